package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks that the loaded settings are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive, got %s", c.Database.QueryTimeout)
	}
	if c.Search.MaxPageSize < 1 {
		return fmt.Errorf("SEARCH_MAX_PAGE must be at least 1, got %d", c.Search.MaxPageSize)
	}
	if c.Search.DefaultPageSize < 1 || c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("SEARCH_DEFAULT_PAGE must be between 1 and %d, got %d",
			c.Search.MaxPageSize, c.Search.DefaultPageSize)
	}
	if c.Search.MaxRadiusKm <= 0 {
		return fmt.Errorf("SEARCH_MAX_RADIUS must be positive, got %g", c.Search.MaxRadiusKm)
	}
	if c.Attendance.ReconcileSchedule != "" {
		if _, err := cron.ParseStandard(c.Attendance.ReconcileSchedule); err != nil {
			return fmt.Errorf("invalid RECONCILE_SCHEDULE %q: %w", c.Attendance.ReconcileSchedule, err)
		}
	}
	if c.Server.Environment == "production" && len(c.Auth.JWTSecret) > 0 && len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}
