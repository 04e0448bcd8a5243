// Package yaml loads lectern configuration files.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/lectern"
	"gopkg.in/yaml.v3"
)

// LoadConfig overlays the YAML file at path on base and validates the
// result. Keys missing from the file keep their base value. An empty path
// returns base after validation.
func LoadConfig(path string, base lectern.Config) (*lectern.Config, error) {
	cfg := base
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, lectern.Errorf(lectern.ENOTFOUND, "config file %s not found", path)
			}
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := decode(f, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DecodeConfig overlays YAML read from r on base and validates the result.
func DecodeConfig(r io.Reader, base lectern.Config) (*lectern.Config, error) {
	cfg := base
	if err := decode(r, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(r io.Reader, cfg *lectern.Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty document leaves the base untouched.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return lectern.Errorf(lectern.EINVALID, "decode config: %v", err)
	}
	return nil
}

// EncodeConfig writes cfg as YAML to w.
func EncodeConfig(w io.Writer, cfg lectern.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
