// Package config holds the run configuration of the dataset preparation
// pipeline, loaded from YAML with defaults matching the production wood
// inspection setup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wood-tiler/internal/dataset"
)

// Detector names accepted by Tiling.BlobDetector.
const (
	DetectorBuiltin = "builtin"
	DetectorOpenCV  = "opencv"
)

// Paths locates the input frames and the output tree.
type Paths struct {
	// ImageDir holds the sensor frames, LabelDir the matching label maps.
	// Frames and label maps pair by identical filename.
	ImageDir string `yaml:"image_dir"`
	LabelDir string `yaml:"label_dir"`

	// TrainDir and DevDir receive the extracted tiles, one subdirectory
	// per class name.
	TrainDir string `yaml:"train_dir"`
	DevDir   string `yaml:"dev_dir"`

	// ImageExt filters the frame directory listing.
	ImageExt string `yaml:"image_ext"`
}

// Tiling configures both tile samplers.
type Tiling struct {
	TileSize      int    `yaml:"tile_size"`       // extraction tile edge
	FinalTileSize int    `yaml:"final_tile_size"` // edge after center crop
	RetinaSize    int    `yaml:"retina_size"`     // random-tile labeling window
	TilesPerImage int    `yaml:"tiles_per_image"` // random tiles per frame
	SamplingSeed  int64  `yaml:"sampling_seed"`
	BlobDetector  string `yaml:"blob_detector"` // builtin or opencv
}

// Augment configures the class rebalancing pass.
type Augment struct {
	Seed int64 `yaml:"seed"`

	// Replicas is indexed by class value: how many augmented copies each
	// existing tile of that class receives.
	Replicas []int `yaml:"replicas"`
}

// Split configures the train/dev partition.
type Split struct {
	TrainPercent float64 `yaml:"train_percent"`
	Seed         int64   `yaml:"seed"`
}

// Config is the full pipeline configuration.
type Config struct {
	Paths   Paths           `yaml:"paths"`
	Tiling  Tiling          `yaml:"tiling"`
	Augment Augment         `yaml:"augment"`
	Split   Split           `yaml:"split"`
	Classes []dataset.Class `yaml:"classes"`
}

// Default returns the configuration of the production wood-defect runs.
func Default() *Config {
	return &Config{
		Paths: Paths{
			ImageDir: "Images",
			LabelDir: "Labels",
			TrainDir: "Train",
			DevDir:   "Dev",
			ImageExt: ".bmp",
		},
		Tiling: Tiling{
			TileSize:      140,
			FinalTileSize: 115,
			RetinaSize:    16,
			TilesPerImage: 15,
			SamplingSeed:  1,
			BlobDetector:  DetectorBuiltin,
		},
		Augment: Augment{
			Seed:     42,
			Replicas: []int{1, 9, 9},
		},
		Split: Split{
			TrainPercent: 80,
			Seed:         1,
		},
		Classes: []dataset.Class{
			{Name: "NoDefect", Value: 0},
			{Name: "LargeKnots", Value: 1},
			{Name: "SmallKnots", Value: 2},
		},
	}
}

// Load reads a YAML configuration, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	t := c.Tiling
	if t.TileSize <= 0 {
		return fmt.Errorf("tile_size must be positive, got %d", t.TileSize)
	}
	if t.FinalTileSize <= 0 || t.FinalTileSize > t.TileSize {
		return fmt.Errorf("final_tile_size %d must be in 1..tile_size (%d)", t.FinalTileSize, t.TileSize)
	}
	if t.RetinaSize <= 0 || t.RetinaSize > t.TileSize {
		return fmt.Errorf("retina_size %d must be in 1..tile_size (%d)", t.RetinaSize, t.TileSize)
	}
	if t.TilesPerImage < 1 {
		return fmt.Errorf("tiles_per_image must be at least 1, got %d", t.TilesPerImage)
	}
	if t.BlobDetector != DetectorBuiltin && t.BlobDetector != DetectorOpenCV {
		return fmt.Errorf("blob_detector must be %q or %q, got %q", DetectorBuiltin, DetectorOpenCV, t.BlobDetector)
	}

	if c.Split.TrainPercent < 0 || c.Split.TrainPercent > 100 {
		return fmt.Errorf("train_percent must be in 0..100, got %g", c.Split.TrainPercent)
	}

	if len(c.Classes) == 0 {
		return fmt.Errorf("at least one class is required")
	}
	if len(c.Augment.Replicas) != len(c.Classes) {
		return fmt.Errorf("augment replicas has %d entries for %d classes", len(c.Augment.Replicas), len(c.Classes))
	}
	seen := make(map[int]bool)
	for _, cl := range c.Classes {
		if cl.Name == "" {
			return fmt.Errorf("class with value %d has no name", cl.Value)
		}
		if seen[cl.Value] {
			return fmt.Errorf("duplicate class value %d", cl.Value)
		}
		seen[cl.Value] = true
	}
	return nil
}
