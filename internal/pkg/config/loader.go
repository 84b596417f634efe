// Package config provides fail-open loaders for environment variable overrides.
//
// A value read from the environment replaces the current setting only when it
// parses and passes its validator. Otherwise the current setting is kept and a
// warning describes the rejected value, so a typo in one variable never stops
// the daily run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one configuration value.
type LoadResult[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

func fallback[T any](envKey, raw string, def T, reason any) LoadResult[T] {
	return LoadResult[T]{
		Value:           def,
		Warning:         fmt.Sprintf("Invalid %s='%s': %v, falling back to '%v'", envKey, raw, reason, def),
		FallbackApplied: true,
	}
}

// LoadEnvString returns the variable's value, or defaultValue when it is unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and validates it.
//
//	result := LoadEnvWithFallback("ITOI_SCHEDULE_CRON", "0 7 * * *", ValidateCronSchedule)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	value := strings.TrimSpace(os.Getenv(envKey))
	if value == "" {
		return LoadResult[string]{Value: defaultValue}
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, value, defaultValue, err)
		}
	}
	return LoadResult[string]{Value: value}
}

// LoadEnvDuration loads a Go duration string such as "90s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return LoadResult[time.Duration]{Value: defaultValue}
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, "invalid duration format")
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}
	return LoadResult[time.Duration]{Value: parsed}
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return LoadResult[int]{Value: defaultValue}
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, "invalid integer format")
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}
	return LoadResult[int]{Value: parsed}
}

// LoadEnvBool loads a boolean in any form accepted by strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return LoadResult[bool]{Value: defaultValue}
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, "invalid boolean format, expected 'true' or 'false'")
	}
	return LoadResult[bool]{Value: parsed}
}

// Overrides applies environment variables on top of already loaded settings and
// collects the warnings of rejected values.
type Overrides struct {
	Warnings []string
	metrics  *ConfigMetrics
}

// NewOverrides creates an Overrides. A nil metrics disables fallback counting.
func NewOverrides(metrics *ConfigMetrics) *Overrides {
	return &Overrides{metrics: metrics}
}

func record[T any](o *Overrides, envKey string, r LoadResult[T], dst *T) {
	*dst = r.Value
	if r.FallbackApplied {
		o.Warnings = append(o.Warnings, r.Warning)
		if o.metrics != nil {
			o.metrics.RecordFallback(envKey)
		}
	}
}

// String overrides *dst with envKey when it is set and valid.
func (o *Overrides) String(envKey string, dst *string, validator func(string) error) {
	record(o, envKey, LoadEnvWithFallback(envKey, *dst, validator), dst)
}

// Int overrides *dst with envKey when it is set and valid.
func (o *Overrides) Int(envKey string, dst *int, validator func(int) error) {
	record(o, envKey, LoadEnvInt(envKey, *dst, validator), dst)
}

// Duration overrides *dst with envKey when it is set and valid.
func (o *Overrides) Duration(envKey string, dst *time.Duration, validator func(time.Duration) error) {
	record(o, envKey, LoadEnvDuration(envKey, *dst, validator), dst)
}

// Bool overrides *dst with envKey when it is set and valid.
func (o *Overrides) Bool(envKey string, dst *bool) {
	record(o, envKey, LoadEnvBool(envKey, *dst), dst)
}

// FallbackApplied reports whether any variable was rejected.
func (o *Overrides) FallbackApplied() bool {
	return len(o.Warnings) > 0
}
