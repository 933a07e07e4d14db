package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"cultivai/cropvision/croplabel"
)

// prepare creates the working directories and writes the default crop table
// when a table file is configured but missing.
func prepare(cfg Config, logger *zap.Logger) error {
	dirs := []string{cfg.Vision.CacheDir, filepath.Dir(cfg.Store.Path)}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	created, err := croplabel.EnsureTableFile(cfg.Resolver.TableFile, cfg.Resolver.Variant)
	if err != nil {
		return fmt.Errorf("ensure table file: %w", err)
	}
	if created {
		logger.Info("default crop table written",
			zap.String("path", cfg.Resolver.TableFile),
			zap.String("variant", string(cfg.Resolver.Variant)))
	}
	return nil
}
