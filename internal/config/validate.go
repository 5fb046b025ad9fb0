package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// JWT secrets
	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}
	if len(c.JWT.RefreshSecret) < 32 {
		errs = append(errs, "JWT_REFRESH_SECRET must be at least 32 characters")
	}
	if c.JWT.AccessSecret != "" && c.JWT.RefreshSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, "JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Generation limits
	if c.AI.MaxPerDraft < 1 {
		errs = append(errs, fmt.Sprintf("AI_MAX_PER_DRAFT must be positive, got %d", c.AI.MaxPerDraft))
	}
	if c.AI.MaxPerDay < c.AI.MaxPerDraft {
		errs = append(errs, fmt.Sprintf("AI_MAX_PER_DAY (%d) must be at least AI_MAX_PER_DRAFT (%d)", c.AI.MaxPerDay, c.AI.MaxPerDraft))
	}
	if c.AI.Cooldown < 0 {
		errs = append(errs, "AI_COOLDOWN must not be negative")
	}
	if c.AI.MaxDrafts < 1 {
		errs = append(errs, fmt.Sprintf("AI_MAX_DRAFTS must be positive, got %d", c.AI.MaxDrafts))
	}

	// Provider: warn only — generation endpoints return 503 without it
	if c.AI.ProviderURL == "" {
		slog.Warn("AI_PROVIDER_URL is empty — AI copywriting is disabled")
	}

	// Blob storage: warn only — uploads return 503 without a bucket
	if c.Blob.Bucket == "" {
		slog.Warn("BLOB_BUCKET is empty — image uploads are disabled")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
