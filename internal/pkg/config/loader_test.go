package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("ITOI_TEST_STRING", "value")
	assert.Equal(t, "value", LoadEnvString("ITOI_TEST_STRING", "default"))

	t.Setenv("ITOI_TEST_STRING", "")
	assert.Equal(t, "default", LoadEnvString("ITOI_TEST_STRING", "default"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         string
		wantFallback bool
	}{
		{"unset uses default", "", "0 7 * * *", false},
		{"valid value", "30 6 * * *", "30 6 * * *", false},
		{"surrounding spaces trimmed", "  30 6 * * *  ", "30 6 * * *", false},
		{"invalid value falls back", "every morning", "0 7 * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ITOI_TEST_CRON", tt.value)

			r := LoadEnvWithFallback("ITOI_TEST_CRON", "0 7 * * *", ValidateCronSchedule)

			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
			if tt.wantFallback {
				assert.Contains(t, r.Warning, "Invalid ITOI_TEST_CRON='every morning'")
				assert.Contains(t, r.Warning, "falling back to '0 7 * * *'")
			} else {
				assert.Empty(t, r.Warning)
			}
		})
	}
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{"unset", "", time.Minute, false},
		{"valid", "90s", 90 * time.Second, false},
		{"compound", "1h30m", 90 * time.Minute, false},
		{"bad format", "soon", time.Minute, true},
		{"rejected by validator", "-5s", time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ITOI_TEST_DURATION", tt.value)

			r := LoadEnvDuration("ITOI_TEST_DURATION", time.Minute, ValidatePositiveDuration)

			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         int
		wantFallback bool
	}{
		{"unset", "", 30, false},
		{"valid", "10", 10, false},
		{"with spaces", " 12 ", 12, false},
		{"decimal", "1.5", 30, true},
		{"not a number", "many", 30, true},
		{"out of range", "1000", 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ITOI_TEST_INT", tt.value)

			r := LoadEnvInt("ITOI_TEST_INT", 30, IntRange(1, 500))

			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		value        string
		want         bool
		wantFallback bool
	}{
		{"", true, false},
		{"false", false, false},
		{"0", false, false},
		{"TRUE", true, false},
		{"yes", true, true},
	}

	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			t.Setenv("ITOI_TEST_BOOL", tt.value)

			r := LoadEnvBool("ITOI_TEST_BOOL", true)

			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
		})
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("ITOI_TEST_NAME", "override")
	t.Setenv("ITOI_TEST_LIMIT", "not-a-number")
	t.Setenv("ITOI_TEST_TIMEOUT", "2m")
	t.Setenv("ITOI_TEST_ENABLED", "")

	name, limit, timeout, enabled := "from-yaml", 30, time.Minute, true
	o := NewOverrides(NewConfigMetrics("itoi_test_overrides"))

	o.String("ITOI_TEST_NAME", &name, nil)
	o.Int("ITOI_TEST_LIMIT", &limit, IntRange(1, 100))
	o.Duration("ITOI_TEST_TIMEOUT", &timeout, ValidatePositiveDuration)
	o.Bool("ITOI_TEST_ENABLED", &enabled)

	assert.Equal(t, "override", name)
	assert.Equal(t, 30, limit, "a rejected override keeps the loaded value")
	assert.Equal(t, 2*time.Minute, timeout)
	assert.True(t, enabled)
	assert.True(t, o.FallbackApplied())
	assert.Len(t, o.Warnings, 1)
}
