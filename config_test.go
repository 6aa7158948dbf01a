package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if !config.Headless {
		t.Error("headless should default to true")
	}
	if config.DryRun {
		t.Error("dry run should default to false")
	}
	if config.Locale != "en-US" || config.Country != "US" {
		t.Errorf("locale/country = %s/%s", config.Locale, config.Country)
	}
	if config.TimeoutSeconds != 30 {
		t.Errorf("timeout = %d, want 30", config.TimeoutSeconds)
	}
	if config.LoginTimeoutSeconds != 180 {
		t.Errorf("login timeout = %d, want 180", config.LoginTimeoutSeconds)
	}
	if config.MaxRetries != 2 {
		t.Errorf("max retries = %d, want 2", config.MaxRetries)
	}
	if config.Selectors.PurchaseButton == "" || config.Selectors.Navigation == "" {
		t.Error("selectors must have defaults")
	}
	for _, s := range []string{
		config.Selectors.MonthToggle, config.Selectors.MonthMenu,
		config.Selectors.DayToggle, config.Selectors.DayMenu,
		config.Selectors.YearToggle, config.Selectors.YearMenu,
	} {
		if s == "" {
			t.Error("date widget selectors must have defaults")
		}
	}
	if !strings.Contains(config.Selectors.PlaceOrderButton, "payment-loading") {
		t.Errorf("place order selector %q must exclude the loading state", config.Selectors.PlaceOrderButton)
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "config.yaml")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not created: %v", err)
	}
	for _, d := range []string{config.DataDir, config.BrowserProfileDir(), config.ScreenshotsDir()} {
		if _, err := os.Stat(d); err != nil {
			t.Errorf("data directory %s was not created: %v", d, err)
		}
	}
	if !config.Headless {
		t.Error("created config should carry defaults")
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", "")
	path := filepath.Join(dir, "config.yaml")

	config := DefaultConfig()
	config.Email = "user@example.com"
	config.DryRun = true
	config.MaxRetries = 5
	config.DataDir = filepath.Join(dir, "data")
	config.Selectors.Heading = "h2"
	if err := config.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Email != "user@example.com" {
		t.Errorf("email = %q", loaded.Email)
	}
	if !loaded.DryRun {
		t.Error("dry run flag lost")
	}
	if loaded.MaxRetries != 5 {
		t.Errorf("max retries = %d, want 5", loaded.MaxRetries)
	}
	if loaded.Selectors.Heading != "h2" {
		t.Errorf("selector override lost: %q", loaded.Selectors.Heading)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{invalid: [yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for malformed config")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("EG_EMAIL", "env@example.com")
	t.Setenv("EG_PASSWORD", "env-secret")
	t.Setenv("DRYRUN", "1")
	t.Setenv("HEADLESS", "0")
	t.Setenv("TIMEOUT", "60")
	t.Setenv("LOCALE", "de-DE")

	config, err := LoadConfig(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Email != "env@example.com" || config.Password != "env-secret" {
		t.Errorf("credentials = %q/%q", config.Email, config.Password)
	}
	if !config.DryRun {
		t.Error("DRYRUN=1 not applied")
	}
	if config.Headless {
		t.Error("HEADLESS=0 not applied")
	}
	if config.TimeoutSeconds != 60 {
		t.Errorf("timeout = %d, want 60", config.TimeoutSeconds)
	}
	if config.Locale != "de-DE" {
		t.Errorf("locale = %q, want de-DE", config.Locale)
	}
	if config.DataDir != filepath.Join(dir, "data") {
		t.Errorf("data dir = %q", config.DataDir)
	}
}

func TestBirthDateParts(t *testing.T) {
	tests := []struct {
		birthDate        string
		year, month, day string
	}{
		{"1987-01-01", "1987", "01", "01"},
		{"2000-12-31", "2000", "12", "31"},
		{"not-a-date", "1987", "01", "01"},
		{"", "1987", "01", "01"},
	}

	for _, tt := range tests {
		config := DefaultConfig()
		config.BirthDate = tt.birthDate
		year, month, day := config.birthDateParts()
		if year != tt.year || month != tt.month || day != tt.day {
			t.Errorf("birthDateParts(%q) = (%s, %s, %s), want (%s, %s, %s)",
				tt.birthDate, year, month, day, tt.year, tt.month, tt.day)
		}
	}
}
