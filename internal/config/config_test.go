package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := Load()
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "fluxo.db")
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8082" {
		t.Errorf("Port = %q, want 8082", cfg.Port)
	}
	if cfg.AMQPExchange != "fluxo" || cfg.AMQPQueue != "generation_completed" {
		t.Errorf("AMQP defaults = %q / %q", cfg.AMQPExchange, cfg.AMQPQueue)
	}
	if cfg.Timezone != "America/Sao_Paulo" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.GenerationInterval != 6*time.Hour {
		t.Errorf("GenerationInterval = %v", cfg.GenerationInterval)
	}
	if cfg.GenerationParallelism != 4 {
		t.Errorf("GenerationParallelism = %d", cfg.GenerationParallelism)
	}
	if cfg.CacheTTL != 5*time.Minute || cfg.CacheMaxSize != 256 {
		t.Errorf("cache defaults = %v / %d", cfg.CacheTTL, cfg.CacheMaxSize)
	}
	if cfg.ReportBackend != "memory" {
		t.Errorf("ReportBackend = %q", cfg.ReportBackend)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GENERATION_INTERVAL", "30m")
	t.Setenv("GENERATION_PARALLELISM", "8")
	t.Setenv("REPORT_BACKEND", "sheets")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-123")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.GenerationInterval != 30*time.Minute {
		t.Errorf("GenerationInterval = %v", cfg.GenerationInterval)
	}
	if cfg.GenerationParallelism != 8 {
		t.Errorf("GenerationParallelism = %d", cfg.GenerationParallelism)
	}
	if cfg.ReportBackend != "sheets" || cfg.GoogleSpreadsheetID != "sheet-123" {
		t.Errorf("report backend = %q / %q", cfg.ReportBackend, cfg.GoogleSpreadsheetID)
	}
}

func TestLoad_IgnoresMalformedEnvironment(t *testing.T) {
	t.Setenv("GENERATION_INTERVAL", "soon")
	t.Setenv("GENERATION_PARALLELISM", "many")

	cfg := Load()
	if cfg.GenerationInterval != 6*time.Hour {
		t.Errorf("GenerationInterval = %v, want default", cfg.GenerationInterval)
	}
	if cfg.GenerationParallelism != 4 {
		t.Errorf("GenerationParallelism = %d, want default", cfg.GenerationParallelism)
	}
}

func TestValidate_DefaultsPass(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = "not-a-port"
	cfg.AMQPURL = "http://localhost:5672/"
	cfg.Timezone = "America/Nowhere"
	cfg.GenerationParallelism = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}

	for _, want := range []string{
		"invalid port",
		"invalid AMQP URL scheme",
		"invalid timezone",
		"invalid generation parallelism",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidate_Port(t *testing.T) {
	tests := []struct {
		port    string
		wantErr bool
	}{
		{"8082", false},
		{"1", false},
		{"65535", false},
		{"0", true},
		{"65536", true},
		{"abc", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Port = tt.port
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_GenerationInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		wantErr  bool
	}{
		{"one minute", time.Minute, false},
		{"six hours", 6 * time.Hour, false},
		{"seven days", 7 * 24 * time.Hour, false},
		{"thirty seconds", 30 * time.Second, true},
		{"eight days", 8 * 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.GenerationInterval = tt.interval
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReportBackend = "ftp"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "invalid report backend") {
		t.Errorf("Validate() error = %v, want invalid report backend", err)
	}

	cfg = testConfig(t)
	cfg.ReportBackend = "sheets"
	cfg.GoogleSpreadsheetID = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "Spreadsheet ID is required") {
		t.Errorf("Validate() error = %v, want missing spreadsheet id", err)
	}

	cfg.GoogleSpreadsheetID = "sheet-123"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_EmptyAMQPURLIsAllowed(t *testing.T) {
	cfg := testConfig(t)
	cfg.AMQPURL = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for eventless setup", err)
	}
}

func TestLocation(t *testing.T) {
	cfg := testConfig(t)
	if got := cfg.Location().String(); got != "America/Sao_Paulo" {
		t.Errorf("Location() = %q", got)
	}

	cfg.Timezone = "America/Nowhere"
	if got := cfg.Location(); got != time.UTC {
		t.Errorf("Location() = %v, want UTC fallback", got)
	}
}
