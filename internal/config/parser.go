package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Parser reads gravisim configuration files. Parsed configurations have
// their environment references expanded.
type Parser struct {
	lua *LuaConfigParser
}

// NewParser creates a new Parser.
func NewParser() (*Parser, error) {
	lp, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}
	return &Parser{lua: lp}, nil
}

// ParseFile reads and parses a configuration file. A relative script path
// is resolved against the directory of the file.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := p.Parse(content)
	if err != nil {
		return nil, err
	}
	if s := cfg.Script.Path; s != "" && !filepath.IsAbs(s) {
		cfg.Script.Path = filepath.Join(filepath.Dir(path), s)
	}
	return cfg, nil
}

// Parse parses configuration content.
func (p *Parser) Parse(content []byte) (*Config, error) {
	cfg, err := p.lua.Parse(content)
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	return cfg, nil
}

// ParseFromFS reads and parses a configuration file from fsys.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}
	return p.Parse(content)
}

// ParseReader parses configuration from an io.Reader.
func (p *Parser) ParseReader(r io.Reader) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return p.Parse(content)
}

// Close releases resources associated with the parser.
func (p *Parser) Close() error {
	if p.lua != nil {
		return p.lua.Close()
	}
	return nil
}
