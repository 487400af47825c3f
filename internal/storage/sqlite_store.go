package storage

import (
	"errors"
	"strings"

	"github.com/dyike/bestfour/config"
	"github.com/dyike/bestfour/internal/storage/sqlite"
)

// ErrDataDirNotConfigured indicates config.DataDir is empty.
var ErrDataDirNotConfigured = errors.New("data_dir is not configured")

// OpenMonthStore opens the sqlite month cache configured by cfg.
func OpenMonthStore(cfg *config.Config) (*sqlite.Store, error) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, ErrDataDirNotConfigured
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.StorePath())
}
