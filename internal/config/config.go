package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"userload/internal/runner"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Run RunConfig `yaml:"run" json:"run"`
}

// RunConfig はラン設定
type RunConfig struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	Target TargetConfig `yaml:"target" json:"target"`
	Users  UsersConfig  `yaml:"users" json:"users"`
	Probe  ProbeConfig  `yaml:"probe" json:"probe"`
	Bulk   BulkConfig   `yaml:"bulk" json:"bulk"`
}

// TargetConfig は接続先設定
type TargetConfig struct {
	Addr        string `yaml:"addr" json:"addr"`
	CallTimeout string `yaml:"call_timeout" json:"call_timeout"`
}

// UsersConfig は作成ユーザー設定
type UsersConfig struct {
	Count      int  `yaml:"count" json:"count"`
	Workers    int  `yaml:"workers" json:"workers"`
	LoginSweep bool `yaml:"login_sweep" json:"login_sweep"`
}

// ProbeConfig はレート制限検証の設定
type ProbeConfig struct {
	Skip              bool   `yaml:"skip" json:"skip"`
	Attempts          int    `yaml:"attempts" json:"attempts"`
	Interval          string `yaml:"interval" json:"interval"`
	Pause             string `yaml:"pause" json:"pause"`
	RegisterLimitHint string `yaml:"register_limit_hint" json:"register_limit_hint"`
	LoginLimitHint    string `yaml:"login_limit_hint" json:"login_limit_hint"`
}

// BulkConfig は一括作成フェーズの設定
type BulkConfig struct {
	Skip     bool    `yaml:"skip" json:"skip"`
	RPSLimit float64 `yaml:"rps_limit" json:"rps_limit"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToRunnerConfig はFileConfigをrunner.Configに変換する
func (f *FileConfig) ToRunnerConfig() (runner.Config, error) {
	rc := f.Run

	// デフォルト値から開始して設定されている項目だけ上書きする
	config := runner.DefaultConfig()

	if rc.Name != "" {
		config.Name = rc.Name
	}
	if rc.Description != "" {
		config.Description = rc.Description
	}

	// 接続先設定
	if rc.Target.Addr != "" {
		config.Addr = rc.Target.Addr
	}
	if rc.Target.CallTimeout != "" {
		d, err := time.ParseDuration(rc.Target.CallTimeout)
		if err != nil {
			return config, fmt.Errorf("invalid call_timeout: %w", err)
		}
		config.CallTimeout = d
	}

	// ユーザー設定
	if rc.Users.Count > 0 {
		config.NumUsers = rc.Users.Count
	}
	if rc.Users.Workers > 0 {
		config.Workers = rc.Users.Workers
	}
	config.LoginSweep = rc.Users.LoginSweep

	// 検証設定
	config.SkipProbes = rc.Probe.Skip
	if rc.Probe.Attempts > 0 {
		config.ProbeAttempts = rc.Probe.Attempts
	}
	if rc.Probe.Interval != "" {
		d, err := time.ParseDuration(rc.Probe.Interval)
		if err != nil {
			return config, fmt.Errorf("invalid probe interval: %w", err)
		}
		config.ProbeInterval = d
	}
	if rc.Probe.Pause != "" {
		d, err := time.ParseDuration(rc.Probe.Pause)
		if err != nil {
			return config, fmt.Errorf("invalid probe pause: %w", err)
		}
		config.ProbePause = d
	}
	if rc.Probe.RegisterLimitHint != "" {
		config.RegisterLimitHint = rc.Probe.RegisterLimitHint
	}
	if rc.Probe.LoginLimitHint != "" {
		config.LoginLimitHint = rc.Probe.LoginLimitHint
	}

	// 一括作成設定
	config.SkipBulk = rc.Bulk.Skip
	if rc.Bulk.RPSLimit > 0 {
		config.BulkRPS = rc.Bulk.RPSLimit
	}

	return config, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	rc := f.Run

	if rc.Users.Count < 0 {
		return fmt.Errorf("users.count must be non-negative")
	}

	if rc.Users.Workers < 0 {
		return fmt.Errorf("users.workers must be non-negative")
	}

	if rc.Probe.Attempts < 0 {
		return fmt.Errorf("probe.attempts must be non-negative")
	}

	if rc.Bulk.RPSLimit < 0 {
		return fmt.Errorf("bulk.rps_limit must be non-negative")
	}

	return nil
}
