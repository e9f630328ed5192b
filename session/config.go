package session

import (
	"fmt"

	"github.com/jonwraymond/ecaspace/raster"
	"github.com/jonwraymond/ecaspace/slice"
	"github.com/jonwraymond/ecaspace/spacetime"
)

// DefaultCacheCapacity is the raster cache size used when none is configured.
const DefaultCacheCapacity = 4096

// Config describes one simulation.
type Config struct {
	// Rule is the Wolfram rule number, 0..255.
	Rule int

	// Initial is the t = 0 row.
	Initial spacetime.Initial

	// CacheCapacity bounds the raster grid cache.
	// Default: 4096
	CacheCapacity int

	// MaxSlices lowers the slice id ceiling.
	// Default: slice.MaxSlices
	MaxSlices int

	// MinCachedLevel is the smallest block level whose grid is cached.
	// Default: raster.DefaultMinCachedLevel
	MinCachedLevel int
}

// Validate checks the config without applying defaults.
func (c *Config) Validate() error {
	if _, err := slice.NewRule(c.Rule); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.CacheCapacity < 0 {
		return fmt.Errorf("%w: cache capacity must not be negative, got %d", ErrInvalidConfig, c.CacheCapacity)
	}
	if c.MaxSlices != 0 && (c.MaxSlices < 2 || c.MaxSlices > slice.MaxSlices) {
		return fmt.Errorf("%w: max slices must be in [2, %d], got %d", ErrInvalidConfig, slice.MaxSlices, c.MaxSlices)
	}
	if c.MinCachedLevel < 0 || c.MinCachedLevel > raster.MaxLevel {
		return fmt.Errorf("%w: min cached level must be in [0, %d], got %d", ErrInvalidConfig, raster.MaxLevel, c.MinCachedLevel)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.CacheCapacity == 0 {
		c.CacheCapacity = DefaultCacheCapacity
	}
	if c.MaxSlices == 0 {
		c.MaxSlices = slice.MaxSlices
	}
	if c.MinCachedLevel == 0 {
		c.MinCachedLevel = raster.DefaultMinCachedLevel
	}
	return c
}
