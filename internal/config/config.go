package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// Config holds all configuration for the portfolio server.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Mail    MailConfig    `mapstructure:"mail"`
	Admin   AdminConfig   `mapstructure:"admin"`
	DB      DBConfig      `mapstructure:"db"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Limits  LimitsConfig  `mapstructure:"limits"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// StorageConfig locates the flat files the portfolio reads and writes.
// Relative file names are resolved against DataDir.
type StorageConfig struct {
	DataDir          string `mapstructure:"data_dir"`
	ProfileFile      string `mapstructure:"profile_file"`
	TestimonialsFile string `mapstructure:"testimonials_file"`
	DefaultImage     string `mapstructure:"default_image"`
	ResumeFile       string `mapstructure:"resume_file"`
	MaxUploadBytes   int64  `mapstructure:"max_upload_bytes"`
}

type MailConfig struct {
	Host        string        `mapstructure:"host"`
	Port        string        `mapstructure:"port"`
	From        string        `mapstructure:"from"`
	To          string        `mapstructure:"to"`
	Subject     string        `mapstructure:"subject"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type AdminConfig struct {
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Session  time.Duration `mapstructure:"session"`
}

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// DefaultUsername reports whether ADMIN_USERNAME was left at its default.
func (a AdminConfig) DefaultUsername() bool { return a.Username == defaultAdminUsername }

// DefaultPassword reports whether ADMIN_PASSWORD was left at its default.
func (a AdminConfig) DefaultPassword() bool { return a.Password == defaultAdminPassword }

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// LimitsConfig bounds form submissions per minute for each client IP.
type LimitsConfig struct {
	SubmissionsPerMinute int `mapstructure:"submissions_per_minute"`
	Burst                int `mapstructure:"burst"`
}

var envBindings = map[string]string{
	"server.port":                   "PORT",
	"server.mode":                   "GIN_MODE",
	"storage.data_dir":              "DATA_DIR",
	"storage.resume_file":           "RESUME_FILE",
	"mail.host":                     "SMTP_HOST",
	"mail.port":                     "SMTP_PORT",
	"mail.from":                     "SMTP_FROM",
	"mail.to":                       "TO_EMAIL",
	"admin.username":                "ADMIN_USERNAME",
	"admin.password":                "ADMIN_PASSWORD",
	"db.path":                       "DB_PATH",
	"logger.level":                  "LOG_LEVEL",
	"logger.format":                 "LOG_FORMAT",
	"logger.file":                   "LOG_FILE",
	"limits.submissions_per_minute": "SUBMISSIONS_PER_MINUTE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("storage.data_dir", ".")
	v.SetDefault("storage.profile_file", "user_data.json")
	v.SetDefault("storage.testimonials_file", "testimonials.json")
	v.SetDefault("storage.default_image", "default.jpeg")
	v.SetDefault("storage.resume_file", "resume.pdf")
	v.SetDefault("storage.max_upload_bytes", 5<<20)

	v.SetDefault("mail.host", "smtp.example.com")
	v.SetDefault("mail.port", "25")
	v.SetDefault("mail.from", "your-email@example.com")
	v.SetDefault("mail.to", "recipient@example.com")
	v.SetDefault("mail.subject", "New Contact Form Submission")
	v.SetDefault("mail.dial_timeout", 10*time.Second)

	v.SetDefault("admin.username", defaultAdminUsername)
	v.SetDefault("admin.password", defaultAdminPassword)
	v.SetDefault("admin.session", 24*time.Hour)

	v.SetDefault("db.path", "portfolio.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.file", "")

	v.SetDefault("limits.submissions_per_minute", 10)
	v.SetDefault("limits.burst", 3)
}

// Load reads defaults, an optional config file and the environment, in that
// order of increasing precedence. An empty path searches for portfolio.yaml
// in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("portfolio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("server port must not be empty")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Storage.ProfileFile == "" || c.Storage.TestimonialsFile == "" {
		return errors.New("storage file names must not be empty")
	}
	if c.Limits.SubmissionsPerMinute <= 0 {
		return fmt.Errorf("limits.submissions_per_minute must be positive, got %d", c.Limits.SubmissionsPerMinute)
	}
	if c.Limits.Burst <= 0 {
		c.Limits.Burst = 1
	}
	return nil
}

// Addr returns the listen address for gin.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// Addr returns host:port of the SMTP relay.
func (c *MailConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Resolve joins a storage-relative name onto DataDir unless it is absolute.
func (s *StorageConfig) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.DataDir, name)
}
