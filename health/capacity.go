package health

import (
	"context"
	"fmt"
)

// CapacitySource reports id-space usage of a simulation session.
type CapacitySource interface {
	// SliceUsage returns the number of issued slice ids and the ceiling.
	SliceUsage() (used, limit int)

	// Failed returns the error that latched the session, or nil.
	Failed() error
}

// CapacityCheckerConfig configures the capacity health checker.
type CapacityCheckerConfig struct {
	// WarningRatio of issued ids to the ceiling triggers degraded status.
	// Default: 0.75
	WarningRatio float64

	// CriticalRatio triggers unhealthy status.
	// Default: 0.95
	CriticalRatio float64
}

// CapacityChecker checks how close a session is to exhausting its slice ids.
type CapacityChecker struct {
	src    CapacitySource
	config CapacityCheckerConfig
}

// NewCapacityChecker creates a capacity checker for src.
func NewCapacityChecker(src CapacitySource, config CapacityCheckerConfig) *CapacityChecker {
	if config.WarningRatio <= 0 || config.WarningRatio >= 1 {
		config.WarningRatio = 0.75
	}
	if config.CriticalRatio <= 0 || config.CriticalRatio > 1 {
		config.CriticalRatio = 0.95
	}
	if config.CriticalRatio < config.WarningRatio {
		config.CriticalRatio = config.WarningRatio
	}
	return &CapacityChecker{src: src, config: config}
}

// Name returns the name of this checker.
func (c *CapacityChecker) Name() string {
	return "capacity"
}

// Check performs the capacity health check.
func (c *CapacityChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	used, limit := c.src.SliceUsage()
	ratio := 0.0
	if limit > 0 {
		ratio = float64(used) / float64(limit)
	}
	details := map[string]any{
		"slices":        used,
		"max_slices":    limit,
		"usage_percent": ratio * 100,
	}

	if err := c.src.Failed(); err != nil {
		details["error"] = err.Error()
		return Unhealthy("session failed", err).WithDetails(details)
	}
	if ratio >= c.config.CriticalRatio {
		return Unhealthy(fmt.Sprintf("slice ids nearly exhausted: %.1f%%", ratio*100), ErrCheckFailed).
			WithDetails(details)
	}
	if ratio >= c.config.WarningRatio {
		return Degraded(fmt.Sprintf("slice id usage high: %.1f%%", ratio*100)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("slice id usage normal: %.1f%%", ratio*100)).WithDetails(details)
}
