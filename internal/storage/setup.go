package storage

import (
	"filesystem-api/internal/config"

	pkgConfig "github.com/kerimovok/go-pkg-utils/config"
)

// Disks is the process-wide store registry, populated by Setup at boot.
var Disks *Manager

// Setup builds the store registry from the storage configuration. The local
// store is always registered; remote stores are registered only when their
// endpoint is configured. Credentials come from the environment, not the
// config file.
func Setup(cfg config.StorageConfig) error {
	defaultDisk := pkgConfig.GetEnv("FILESYSTEM_DISK")
	if defaultDisk == "" {
		defaultDisk = "local"
	}
	manager := NewManager(defaultDisk)

	manager.Register(NewLocalStore(
		cfg.Disks.Local.Root,
		cfg.Disks.Local.BaseURL,
		cfg.Disks.Local.Folder,
	))

	if cfg.Disks.S3.Endpoint != "" {
		s3, err := NewS3Store(S3Options{
			Name:     "s3",
			Endpoint: cfg.Disks.S3.Endpoint,
			Region:   cfg.Disks.S3.Region,
			Bucket:   cfg.Disks.S3.Bucket,
			Folder:   cfg.Disks.S3.Folder,
			Key:      pkgConfig.GetEnv("S3_KEY"),
			Secret:   pkgConfig.GetEnv("S3_SECRET"),
			UseSSL:   cfg.Disks.S3.UseSSL,
		})
		if err != nil {
			return err
		}
		manager.Register(s3)
	}

	if cfg.Disks.DO.Endpoint != "" {
		do, err := NewS3Store(S3Options{
			Name:     "do",
			Endpoint: cfg.Disks.DO.Endpoint,
			Region:   cfg.Disks.DO.Region,
			Bucket:   cfg.Disks.DO.Bucket,
			Folder:   cfg.Disks.DO.Folder,
			Key:      pkgConfig.GetEnv("DO_SPACES_KEY"),
			Secret:   pkgConfig.GetEnv("DO_SPACES_SECRET"),
			UseSSL:   cfg.Disks.DO.UseSSL,
		})
		if err != nil {
			return err
		}
		manager.Register(do)
	}

	Disks = manager
	return nil
}
