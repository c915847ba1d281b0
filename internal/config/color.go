package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// NamedColors maps color names accepted in configuration files to their
// values.
var NamedColors = map[string]color.NRGBA{
	"black":       {A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"red":         {R: 255, A: 255},
	"green":       {G: 128, A: 255},
	"lime":        {G: 255, A: 255},
	"blue":        {B: 255, A: 255},
	"yellow":      {R: 255, G: 255, A: 255},
	"cyan":        {G: 255, B: 255, A: 255},
	"magenta":     {R: 255, B: 255, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
	"silver":      {R: 192, G: 192, B: 192, A: 255},
	"navy":        {B: 128, A: 255},
	"purple":      {R: 128, B: 128, A: 255},
	"orange":      {R: 255, G: 165, A: 255},
	"pink":        {R: 255, G: 192, B: 203, A: 255},
	"transparent": {},
}

// ParseColor parses a color string. Supported formats:
//   - named colors: "white", "grey"
//   - hex: "#fff", "#ffff", "#ffffff", "#ffffff80", with or without '#'
//   - "rgb(255, 0, 0)"
//   - "rgba(255, 0, 0, 0.5)" or "rgba(255, 0, 0, 128)"
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	lower := strings.ToLower(s)
	if c, ok := NamedColors[lower]; ok {
		return c, nil
	}

	switch {
	case strings.HasPrefix(lower, "rgba("):
		return parseColorFunc(lower, "rgba(", 4)
	case strings.HasPrefix(lower, "rgb("):
		return parseColorFunc(lower, "rgb(", 3)
	case strings.HasPrefix(lower, "#"), isHexString(lower):
		return parseHexColor(strings.TrimPrefix(lower, "#"))
	}
	return color.NRGBA{}, fmt.Errorf("unrecognized color format: %q", s)
}

// MustParseColor is like ParseColor but panics on error.
func MustParseColor(s string) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ToHex formats c as #RRGGBB, or #RRGGBBAA when it is not opaque.
func ToHex(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func isHexString(s string) bool {
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

func parseHexColor(s string) (color.NRGBA, error) {
	var digits int
	switch len(s) {
	case 3, 4:
		digits = 1
	case 6, 8:
		digits = 2
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length: %d", len(s))
	}

	ch := [4]uint8{3: 255}
	for i := 0; i*digits < len(s); i++ {
		part := s[i*digits : (i+1)*digits]
		if digits == 1 {
			part += part
		}
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex component %q: %w", part, err)
		}
		ch[i] = uint8(v)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// parseColorFunc parses rgb(r, g, b) and rgba(r, g, b, a).
func parseColorFunc(s, prefix string, n int) (color.NRGBA, error) {
	if !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, fmt.Errorf("invalid %s) format: %q", prefix, s)
	}
	parts := strings.Split(s[len(prefix):len(s)-1], ",")
	if len(parts) != n {
		return color.NRGBA{}, fmt.Errorf("%s) requires exactly %d values, got %d", prefix, n, len(parts))
	}

	ch := [4]uint8{3: 255}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		var err error
		if i == 3 {
			ch[i], err = parseAlphaComponent(p)
		} else {
			var v uint64
			v, err = strconv.ParseUint(p, 10, 8)
			ch[i] = uint8(v)
		}
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid component %d: %w", i, err)
		}
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// parseAlphaComponent accepts 0-255 integers and 0.0-1.0 fractions.
func parseAlphaComponent(s string) (uint8, error) {
	if strings.Contains(s, ".") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		v = min(max(v, 0), 1)
		return uint8(v * 255), nil
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
