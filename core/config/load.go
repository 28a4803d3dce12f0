package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(fsys afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(fsys, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}

	// Start from the defaults so older files missing newer keys still work.
	out := Default()
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigurationName, err)
	}
	return out, nil
}

// LoadOrDefault is Load, falling back to the built-in configuration when the
// directory has no configuration file.
func LoadOrDefault(fsys afero.Fs, path string) (*Configuration, error) {
	cfg, err := Load(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Initialize writes the default configuration to dir. An existing
// configuration is left alone.
func Initialize(fsys afero.Fs, dir string) (string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, ConfigurationName)
	switch _, err := fsys.Stat(path); {
	case err == nil:
		return path, fmt.Errorf("%s already exists", path)
	case !errors.Is(err, fs.ErrNotExist):
		return path, err
	}

	return path, afero.WriteFile(fsys, path, defaultConfigData, 0644)
}
