package exporter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config controls one export run.
type Config struct {
	// MeshPerFile writes each mesh as a standalone companion document and
	// records only a reference in the scene document.
	MeshPerFile bool `yaml:"mesh_per_file"`
	// MeshOnly skips lamps, cameras, speakers and world data.
	MeshOnly bool `yaml:"mesh_only"`
	// SampleAnimation forces matrix sampling for every animated object.
	SampleAnimation bool `yaml:"sample_animation"`
	// ExportHideRender includes objects hidden from rendering.
	ExportHideRender bool `yaml:"export_hide_render"`
	// Compress gzips written documents.
	Compress bool `yaml:"compress"`
	// Minimize drops indentation from written documents.
	Minimize bool `yaml:"minimize"`
	// MaxBones caps the skeleton size advertised in animation setups.
	MaxBones int `yaml:"max_bones"`
	// CacheEnabled turns on the incremental mesh cache.
	CacheEnabled bool `yaml:"cache"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxBones:     50,
		CacheEnabled: true,
	}
}

// LoadConfig reads a yaml config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
