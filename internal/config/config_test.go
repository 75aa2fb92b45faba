package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileYAML(t *testing.T) {
	content := `
run:
  name: test-run
  description: Test run
  target:
    addr: localhost:50051
    call_timeout: 5s
  users:
    count: 500
    workers: 10
    login_sweep: true
  probe:
    attempts: 8
    interval: 200ms
    pause: 1s
    register_limit_hint: 3 per hour
  bulk:
    rps_limit: 100
`
	tmpFile := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	cfg, err := LoadFile(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Run.Name != "test-run" {
		t.Errorf("expected name 'test-run', got '%s'", cfg.Run.Name)
	}
	if cfg.Run.Users.Count != 500 {
		t.Errorf("expected users.count 500, got %d", cfg.Run.Users.Count)
	}
	if !cfg.Run.Users.LoginSweep {
		t.Error("expected login_sweep to be enabled")
	}
	if cfg.Run.Bulk.RPSLimit != 100 {
		t.Errorf("expected rps_limit 100, got %f", cfg.Run.Bulk.RPSLimit)
	}
}

func TestLoadFileJSON(t *testing.T) {
	content := `{
  "run": {
    "name": "json-test",
    "target": {
      "addr": "10.0.0.1:50051"
    },
    "users": {
      "count": 100
    },
    "probe": {
      "skip": true
    }
  }
}`
	tmpFile := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	cfg, err := LoadFile(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Run.Name != "json-test" {
		t.Errorf("expected name 'json-test', got '%s'", cfg.Run.Name)
	}
	if !cfg.Run.Probe.Skip {
		t.Error("expected probe.skip to be true")
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile("/nonexistent/run.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "run.txt")
	if err := os.WriteFile(tmpFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	_, err := LoadFile(tmpFile)
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestToRunnerConfig(t *testing.T) {
	cfg := &FileConfig{
		Run: RunConfig{
			Name:        "test",
			Description: "Test",
			Target: TargetConfig{
				Addr:        "gateway:50051",
				CallTimeout: "3s",
			},
			Users: UsersConfig{
				Count:      2000,
				Workers:    15,
				LoginSweep: true,
			},
			Probe: ProbeConfig{
				Attempts: 6,
				Interval: "50ms",
				Pause:    "500ms",
			},
			Bulk: BulkConfig{
				RPSLimit: 250,
			},
		},
	}

	rc, err := cfg.ToRunnerConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	if rc.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", rc.Name)
	}
	if rc.Addr != "gateway:50051" {
		t.Errorf("expected addr 'gateway:50051', got '%s'", rc.Addr)
	}
	if rc.CallTimeout != 3*time.Second {
		t.Errorf("expected call timeout 3s, got %v", rc.CallTimeout)
	}
	if rc.NumUsers != 2000 {
		t.Errorf("expected 2000 users, got %d", rc.NumUsers)
	}
	if rc.Workers != 15 {
		t.Errorf("expected 15 workers, got %d", rc.Workers)
	}
	if !rc.LoginSweep {
		t.Error("expected login sweep to be enabled")
	}
	if rc.ProbeAttempts != 6 {
		t.Errorf("expected 6 probe attempts, got %d", rc.ProbeAttempts)
	}
	if rc.ProbeInterval != 50*time.Millisecond {
		t.Errorf("expected probe interval 50ms, got %v", rc.ProbeInterval)
	}
	if rc.BulkRPS != 250 {
		t.Errorf("expected bulk rps 250, got %f", rc.BulkRPS)
	}
}

func TestToRunnerConfigDefaults(t *testing.T) {
	cfg := &FileConfig{}

	rc, err := cfg.ToRunnerConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	// Unset fields keep the defaults
	if rc.Addr != "localhost:50051" {
		t.Errorf("expected default addr, got '%s'", rc.Addr)
	}
	if rc.NumUsers != 10000 {
		t.Errorf("expected default 10000 users, got %d", rc.NumUsers)
	}
	if rc.Workers != 20 {
		t.Errorf("expected default 20 workers, got %d", rc.Workers)
	}
}

func TestToRunnerConfigInvalidDurations(t *testing.T) {
	tests := []struct {
		name string
		cfg  FileConfig
	}{
		{
			name: "invalid call_timeout",
			cfg:  FileConfig{Run: RunConfig{Target: TargetConfig{CallTimeout: "invalid"}}},
		},
		{
			name: "invalid probe interval",
			cfg:  FileConfig{Run: RunConfig{Probe: ProbeConfig{Interval: "ten seconds"}}},
		},
		{
			name: "invalid probe pause",
			cfg:  FileConfig{Run: RunConfig{Probe: ProbeConfig{Pause: "x"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.ToRunnerConfig(); err == nil {
				t.Error("expected error for invalid duration")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		config   FileConfig
		hasError bool
	}{
		{
			name:     "valid config",
			config:   FileConfig{},
			hasError: false,
		},
		{
			name: "negative user count",
			config: FileConfig{
				Run: RunConfig{Users: UsersConfig{Count: -1}},
			},
			hasError: true,
		},
		{
			name: "negative workers",
			config: FileConfig{
				Run: RunConfig{Users: UsersConfig{Workers: -1}},
			},
			hasError: true,
		},
		{
			name: "negative probe attempts",
			config: FileConfig{
				Run: RunConfig{Probe: ProbeConfig{Attempts: -1}},
			},
			hasError: true,
		},
		{
			name: "negative rps limit",
			config: FileConfig{
				Run: RunConfig{Bulk: BulkConfig{RPSLimit: -5}},
			},
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.hasError && err == nil {
				t.Error("expected validation error")
			}
			if !tt.hasError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
