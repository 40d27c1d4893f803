package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	API struct {
		Port int `yaml:"port"`
	} `yaml:"api"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Reminders struct {
		FirstLeadHours    int `yaml:"first_lead_hours"`
		SecondLeadMinutes int `yaml:"second_lead_minutes"`
		VoiceLeadMinutes  int `yaml:"voice_lead_minutes"`
	} `yaml:"reminders"`

	Dispatch struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"dispatch"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/medbook.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// BackupSettings applies defaults for unset backup fields.
func (c *Config) BackupSettings() (path string, interval, retention time.Duration) {
	path = c.Backup.Path
	if path == "" {
		path = "backups"
	}
	interval = time.Duration(c.Backup.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	retention = time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
	if retention <= 0 {
		retention = 14 * 24 * time.Hour
	}
	return path, interval, retention
}

func (c *Config) ReminderFirstLead() time.Duration {
	if c.Reminders.FirstLeadHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Reminders.FirstLeadHours) * time.Hour
}

func (c *Config) ReminderSecondLead() time.Duration {
	if c.Reminders.SecondLeadMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Reminders.SecondLeadMinutes) * time.Minute
}

func (c *Config) ReminderVoiceLead() time.Duration {
	if c.Reminders.VoiceLeadMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Reminders.VoiceLeadMinutes) * time.Minute
}
