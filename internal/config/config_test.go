package config

import (
	"os"
	"path/filepath"
	"testing"

	"hostelbook/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "hostelbook"
database:
  path: "test.db"
resources:
  file: "configs/resources.yaml"
booking:
  slot_minutes: 30
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "hostelbook" {
		t.Errorf("expected app name hostelbook, got %s", cfg.App.Name)
	}
	if cfg.Booking.SlotMinutes != 30 {
		t.Errorf("expected slot_minutes 30, got %d", cfg.Booking.SlotMinutes)
	}
	// Незаданные параметры добиваются дефолтами
	if cfg.Booking.SlotCount != models.DefaultSlotCount {
		t.Errorf("expected default slot_count %d, got %d", models.DefaultSlotCount, cfg.Booking.SlotCount)
	}
	if cfg.Booking.MinimumUsableMinutes != models.DefaultMinimumUsableMinutes {
		t.Errorf("expected default minimum_usable_minutes %d, got %d", models.DefaultMinimumUsableMinutes, cfg.Booking.MinimumUsableMinutes)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("HOSTELBOOK_DB_PATH", "/data/hostel.db")
	yamlContent := `
database:
  path: "${HOSTELBOOK_DB_PATH}"
resources:
  file: "configs/resources.yaml"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database.Path != "/data/hostel.db" {
		t.Errorf("expected expanded db path, got %s", cfg.Database.Path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database:  DatabaseConfig{Path: "path"},
				Resources: ResourcesConfig{File: "resources.yaml"},
				Booking:   BookingConfig{ClosingHour: 23},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				Resources: ResourcesConfig{File: "resources.yaml"},
				Booking:   BookingConfig{ClosingHour: 23},
			},
			wantErr: true,
		},
		{
			name: "missing resources file",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{ClosingHour: 23},
			},
			wantErr: true,
		},
		{
			name: "closing hour out of range",
			cfg: Config{
				Database:  DatabaseConfig{Path: "path"},
				Resources: ResourcesConfig{File: "resources.yaml"},
				Booking:   BookingConfig{ClosingHour: 25},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.Booking.SlotMinutes != models.DefaultSlotMinutes {
		t.Errorf("expected default slot minutes %d, got %d", models.DefaultSlotMinutes, cfg.Booking.SlotMinutes)
	}
	if cfg.Booking.ClosingHour != models.DefaultClosingHour {
		t.Errorf("expected default closing hour %d, got %d", models.DefaultClosingHour, cfg.Booking.ClosingHour)
	}
	if cfg.API.RateLimit.RPS != models.DefaultRateLimitRPS {
		t.Errorf("expected default rate limit rps %v, got %v", float64(models.DefaultRateLimitRPS), cfg.API.RateLimit.RPS)
	}
}

func TestValidateResources(t *testing.T) {
	tests := []struct {
		name      string
		resources []models.Resource
		wantErr   bool
	}{
		{
			name: "Valid resources",
			resources: []models.Resource{
				{ID: "laundry-1", FacilityID: "hostel-a", Category: models.CategoryLaundry},
				{ID: "court-1", FacilityID: "hostel-a", Category: models.CategoryBadminton},
			},
			wantErr: false,
		},
		{
			name: "Duplicate ID",
			resources: []models.Resource{
				{ID: "laundry-1", FacilityID: "hostel-a", Category: models.CategoryLaundry},
				{ID: "laundry-1", FacilityID: "hostel-b", Category: models.CategoryLaundry},
			},
			wantErr: true,
		},
		{
			name: "Empty facility",
			resources: []models.Resource{
				{ID: "laundry-1", Category: models.CategoryLaundry},
			},
			wantErr: true,
		},
		{
			name: "Empty category",
			resources: []models.Resource{
				{ID: "laundry-1", FacilityID: "hostel-a"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResources(tt.resources)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResources() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
