package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kerimovok/go-pkg-utils/config"
	"gopkg.in/yaml.v3"
)

// LocalDiskConfig holds local disk settings
type LocalDiskConfig struct {
	Root    string `yaml:"root"`
	BaseURL string `yaml:"base_url"`
	Folder  string `yaml:"folder"`
}

// S3DiskConfig holds S3-compatible disk settings (AWS S3, DigitalOcean Spaces)
type S3DiskConfig struct {
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Bucket   string `yaml:"bucket"`
	Folder   string `yaml:"folder"`
	UseSSL   bool   `yaml:"use_ssl"`
}

// DisksConfig holds the named backing stores
type DisksConfig struct {
	Local LocalDiskConfig `yaml:"local"`
	S3    S3DiskConfig    `yaml:"s3"`
	DO    S3DiskConfig    `yaml:"do"`
}

// OptimizationConfig holds the derivative generation defaults. Webp is a
// pointer so an omitted key keeps the enabled-by-default behavior.
type OptimizationConfig struct {
	Width   int   `yaml:"width"`
	Height  int   `yaml:"height"`
	Quality int   `yaml:"quality"`
	Webp    *bool `yaml:"webp"`
}

// UploadConfig holds upload validation settings
type UploadConfig struct {
	MaxFileSize       int64    `yaml:"max_file_size"`
	BlockedExtensions []string `yaml:"blocked_extensions"`
}

// StorageConfig holds the complete storage configuration
type StorageConfig struct {
	ScratchDir   string             `yaml:"scratch_dir"`
	Disks        DisksConfig        `yaml:"disks"`
	Optimization OptimizationConfig `yaml:"optimization"`
	Upload       UploadConfig       `yaml:"upload"`
}

// MainConfig holds the root configuration
type MainConfig struct {
	Storage StorageConfig `yaml:"storage"`
}

var (
	Config MainConfig
)

// LoadConfig loads the configuration from config/filesystem.yaml
func LoadConfig() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if config.GetEnv("GO_ENV") != "production" {
			log.Println("Warning: Failed to load .env file")
		}
	}

	// Read config file
	data, err := os.ReadFile("config/filesystem.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	// Store config globally
	Config = cfg

	log.Println("Storage configuration loaded successfully from config/filesystem.yaml")
	return nil
}

func applyDefaults(cfg *MainConfig) {
	s := &cfg.Storage
	if s.ScratchDir == "" {
		s.ScratchDir = "storage/image-optimization"
	}
	if s.Disks.Local.Root == "" {
		s.Disks.Local.Root = "storage/app"
	}
	if s.Disks.Local.BaseURL == "" {
		s.Disks.Local.BaseURL = "/storage"
	}
	if s.Optimization.Width == 0 {
		s.Optimization.Width = 1280
	}
	if s.Optimization.Height == 0 {
		s.Optimization.Height = 1280
	}
	if s.Optimization.Quality == 0 {
		s.Optimization.Quality = 80
	}
	if s.Optimization.Webp == nil {
		webp := true
		s.Optimization.Webp = &webp
	}
	if s.Upload.MaxFileSize == 0 {
		s.Upload.MaxFileSize = 100 * 1024 * 1024
	}
}

// GetConfig returns the current configuration
func GetConfig() MainConfig {
	return Config
}
