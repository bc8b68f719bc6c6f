package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage != StorageMemory {
		t.Errorf("storage = %q, want memory", cfg.Storage)
	}
	if cfg.Pricing.Policy != "base_eco" {
		t.Errorf("policy = %q", cfg.Pricing.Policy)
	}
	if cfg.Pricing.CarbonFactor != 0.10 {
		t.Errorf("carbon factor = %v", cfg.Pricing.CarbonFactor)
	}
	if cfg.Booking.InitialStatus != "CONFIRMED" {
		t.Errorf("initial status = %q", cfg.Booking.InitialStatus)
	}
	if cfg.Booking.PendingTTL != 15*time.Minute {
		t.Errorf("pending ttl = %v", cfg.Booking.PendingTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CABSYS_FARE_POLICY", "PER_CLASS")
	t.Setenv("CABSYS_BOOKING_INITIAL_STATUS", "pending")
	t.Setenv("CABSYS_CARBON_FACTOR", "0.2")
	t.Setenv("CABSYS_GEO_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pricing.Policy != "per_class" {
		t.Errorf("policy = %q", cfg.Pricing.Policy)
	}
	if cfg.Booking.InitialStatus != "PENDING" {
		t.Errorf("initial status = %q", cfg.Booking.InitialStatus)
	}
	if cfg.Pricing.CarbonFactor != 0.2 {
		t.Errorf("carbon factor = %v", cfg.Pricing.CarbonFactor)
	}
	if cfg.Maps.SuggestionLimit != 5 {
		t.Errorf("limit should fall back to default, got %d", cfg.Maps.SuggestionLimit)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"storage", "CABSYS_STORAGE", "mongo", "CABSYS_STORAGE"},
		{"policy", "CABSYS_FARE_POLICY", "surge", "CABSYS_FARE_POLICY"},
		{"status", "CABSYS_BOOKING_INITIAL_STATUS", "COMPLETED", "CABSYS_BOOKING_INITIAL_STATUS"},
		{"google without key", "CABSYS_MAPS_PROVIDER", "google", "CABSYS_GOOGLE_MAPS_KEY"},
		{"firebase without project", "CABSYS_AUTH_PROVIDER", "firebase", "CABSYS_FIREBASE_PROJECT_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}
