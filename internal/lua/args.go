package lua

import (
	"fmt"
	"image"
	"image/color"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/gravisim/internal/config"
)

// getAllArgs combines c.Args() and c.Etc() to get all arguments including
// varargs.
func getAllArgs(c *rt.GoCont) []rt.Value {
	return append(c.Args(), c.Etc()...)
}

// getFloatArg gets a float argument from the combined args slice.
func getFloatArg(args []rt.Value, idx int) (float64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("argument %d out of range (have %d)", idx+1, len(args))
	}
	if f, ok := args[idx].TryFloat(); ok {
		return f, nil
	}
	if i, ok := args[idx].TryInt(); ok {
		return float64(i), nil
	}
	return 0, fmt.Errorf("argument %d is not a number", idx+1)
}

// getIntArg gets an int argument from the combined args slice, truncating
// floats.
func getIntArg(args []rt.Value, idx int) (int64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("argument %d out of range (have %d)", idx+1, len(args))
	}
	if i, ok := args[idx].TryInt(); ok {
		return i, nil
	}
	if f, ok := args[idx].TryFloat(); ok {
		return int64(f), nil
	}
	return 0, fmt.Errorf("argument %d is not an integer", idx+1)
}

// getStringArg gets a string argument from the combined args slice.
func getStringArg(args []rt.Value, idx int) (string, error) {
	if idx >= len(args) {
		return "", fmt.Errorf("argument %d out of range (have %d)", idx+1, len(args))
	}
	if args[idx].Type() == rt.StringType {
		if s, ok := args[idx].TryString(); ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("argument %d is not a string", idx+1)
}

func clampByte(v int64) uint8 {
	return uint8(min(max(v, 0), 255))
}

// getColorArg reads a color starting at idx. It accepts either a color
// string ("white", "#ff000080", "rgba(...)") or r, g, b and an optional
// alpha, each 0-255. Alpha defaults to 255.
func getColorArg(args []rt.Value, idx int) (color.NRGBA, error) {
	if idx < len(args) && args[idx].Type() == rt.StringType {
		s, _ := getStringArg(args, idx)
		return config.ParseColor(s)
	}

	var ch [4]int64
	ch[3] = 255
	n := 3
	if len(args) > idx+3 && args[idx+3] != rt.NilValue {
		n = 4
	}
	for i := 0; i < n; i++ {
		v, err := getIntArg(args, idx+i)
		if err != nil {
			return color.NRGBA{}, err
		}
		ch[i] = v
	}
	return color.NRGBA{R: clampByte(ch[0]), G: clampByte(ch[1]), B: clampByte(ch[2]), A: clampByte(ch[3])}, nil
}

// getPointsArg reads two parallel arrays of x and y coordinates.
func getPointsArg(args []rt.Value, idx int) ([]image.Point, error) {
	if idx+1 >= len(args) {
		return nil, fmt.Errorf("expected x and y arrays")
	}
	xs, ok := args[idx].TryTable()
	if !ok {
		return nil, fmt.Errorf("argument %d is not a table", idx+1)
	}
	ys, ok := args[idx+1].TryTable()
	if !ok {
		return nil, fmt.Errorf("argument %d is not a table", idx+2)
	}

	var pts []image.Point
	for i := int64(1); ; i++ {
		xv, yv := xs.Get(rt.IntValue(i)), ys.Get(rt.IntValue(i))
		if xv == rt.NilValue || yv == rt.NilValue {
			break
		}
		x, err := getIntArg([]rt.Value{xv}, 0)
		if err != nil {
			return nil, fmt.Errorf("x[%d]: %w", i, err)
		}
		y, err := getIntArg([]rt.Value{yv}, 0)
		if err != nil {
			return nil, fmt.Errorf("y[%d]: %w", i, err)
		}
		pts = append(pts, image.Pt(int(x), int(y)))
	}
	return pts, nil
}
