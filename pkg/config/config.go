// Package config loads the YAML configuration file: a list of IRR
// databases, each with host/port/dbname and the optional serial_file
// and family_filter settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FamilyFilter restricts a database worker to one address family, or
// both (the default).
type FamilyFilter string

const (
	FamilyBoth FamilyFilter = "both"
	FamilyV4   FamilyFilter = "v4"
	FamilyV6   FamilyFilter = "v6"
)

// Database is one entry under the top-level "databases" key.
type Database struct {
	Name         string       `yaml:"dbname"`
	Host         string       `yaml:"host"`
	Port         int          `yaml:"port"`
	SerialFile   string       `yaml:"serial_file,omitempty"`
	FamilyFilter FamilyFilter `yaml:"family_filter,omitempty"`
}

// Config is the top-level configuration file shape.
type Config struct {
	Databases []Database `yaml:"databases"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML configuration bytes, applying defaults and
// validating each database entry.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Databases))
	for i := range cfg.Databases {
		db := &cfg.Databases[i]
		if db.Name == "" {
			return nil, fmt.Errorf("config: database entry %d missing dbname", i)
		}
		if seen[db.Name] {
			return nil, fmt.Errorf("config: duplicate dbname %q", db.Name)
		}
		seen[db.Name] = true
		if db.FamilyFilter == "" {
			db.FamilyFilter = FamilyBoth
		}
		switch db.FamilyFilter {
		case FamilyBoth, FamilyV4, FamilyV6:
		default:
			return nil, fmt.Errorf("config: database %q has invalid family_filter %q", db.Name, db.FamilyFilter)
		}
	}
	return &cfg, nil
}
