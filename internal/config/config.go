package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type OTPConfig struct {
	// Backend selects the code store: "shared" (Redis) or "in-process".
	Backend              string `yaml:"backend"`
	MailEnabled          bool   `yaml:"mail_enabled"`
	TTLMinutes           int    `yaml:"ttl_minutes"`
	MaxAttemptsPerWindow int    `yaml:"max_attempts_per_window"`
	WindowHours          int    `yaml:"window_hours"`
	CodeLength           int    `yaml:"code_length"`
	SweepIntervalMinutes int    `yaml:"sweep_interval_minutes"`
}

func (c OTPConfig) TTL() time.Duration           { return time.Duration(c.TTLMinutes) * time.Minute }
func (c OTPConfig) Window() time.Duration        { return time.Duration(c.WindowHours) * time.Hour }
func (c OTPConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

type ZoomConfig struct {
	Enabled      bool   `yaml:"enabled"`
	AccountID    string `yaml:"account_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type FilesConfig struct {
	RootDir string `yaml:"root_dir"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret        string `yaml:"jwt_secret"`
		AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
		RefreshTTLDays   int    `yaml:"refresh_ttl_days"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`
	OTP   OTPConfig   `yaml:"otp"`
	Zoom  ZoomConfig  `yaml:"zoom"`
	Files FilesConfig `yaml:"files"`
}

func LoadConfig() *Config {
	path := os.Getenv("HEALTHLINK_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open " + path + ": " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse " + path + ": " + err.Error())
	}

	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.AccessTTLMinutes == 0 {
		cfg.Auth.AccessTTLMinutes = 15
	}
	if cfg.Auth.RefreshTTLDays == 0 {
		cfg.Auth.RefreshTTLDays = 30
	}
	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = "noreply@healthlink.com"
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "HealthLink Platform"
	}
	if cfg.OTP.Backend == "" {
		cfg.OTP.Backend = "in-process"
	}
	if cfg.OTP.TTLMinutes == 0 {
		cfg.OTP.TTLMinutes = 5
	}
	if cfg.OTP.MaxAttemptsPerWindow == 0 {
		cfg.OTP.MaxAttemptsPerWindow = 5
	}
	if cfg.OTP.WindowHours == 0 {
		cfg.OTP.WindowHours = 1
	}
	if cfg.OTP.CodeLength == 0 {
		cfg.OTP.CodeLength = 6
	}
	if cfg.OTP.SweepIntervalMinutes == 0 {
		cfg.OTP.SweepIntervalMinutes = 5
	}
	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./files"
	}
}
