package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseDriver:      "memory",
		ClinicTimezone:      "Asia/Kolkata",
		ReminderInterval:    time.Minute,
		ReminderWindow:      time.Hour,
		ReminderConcurrency: 4,
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_IntervalMustBeSmallerThanWindow(t *testing.T) {
	cfg := validConfig()
	cfg.ReminderInterval = time.Hour
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when interval equals window")
	}
	if !strings.Contains(err.Error(), "REMINDER_INTERVAL") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.ClinicTimezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseDriver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMailConfigured(t *testing.T) {
	cfg := validConfig()
	if cfg.MailConfigured() {
		t.Fatal("expected mail to be unconfigured")
	}
	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPUsername = "user"
	cfg.SMTPPassword = "pass"
	cfg.MailFrom = "clinic@example.com"
	if !cfg.MailConfigured() {
		t.Fatal("expected mail to be configured")
	}
}
