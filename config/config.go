/*
Package config loads the application configuration.

PRIORITY (highest first):
  1. Environment variables, prefix WN_, dots become underscores
     (WN_SERVER_PORT, WN_HOLIDAYS_REGION, ...)
  2. .env file in the working directory (loaded into the environment)
  3. Config file: the given path, else config.yaml in ./config or .
  4. Defaults below

SEE ALSO:
  - cmd/server/main.go: Flags override the loaded values
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/warp/wochennachweis/docx"
	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/holiday"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Session  SessionConfig  `mapstructure:"session"`
	Template TemplateConfig `mapstructure:"template"`
	Holidays HolidayConfig  `mapstructure:"holidays"`
	Report   ReportConfig   `mapstructure:"report"`
	Generate GenerateConfig `mapstructure:"generate"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"` // ":memory:" keeps everything in RAM
}

type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	CookieName  string        `mapstructure:"cookie_name"`
}

type TemplateConfig struct {
	Path      string `mapstructure:"path"`
	FontName  string `mapstructure:"font_name"`
	FontSize  string `mapstructure:"font_size"` // points, decimal
	Bold      bool   `mapstructure:"bold"`
	Italic    bool   `mapstructure:"italic"`
	Underline bool   `mapstructure:"underline"`
}

// Style converts the template settings into a docx.TextStyle.
func (c TemplateConfig) Style() (docx.TextStyle, error) {
	size, err := decimal.NewFromString(c.FontSize)
	if err != nil {
		return docx.TextStyle{}, fmt.Errorf("template.font_size %q: %w", c.FontSize, err)
	}
	return docx.TextStyle{
		FontName:  c.FontName,
		Size:      size,
		Bold:      c.Bold,
		Italic:    c.Italic,
		Underline: c.Underline,
	}, nil
}

type HolidayConfig struct {
	Region           string        `mapstructure:"region"`
	RemoteEnabled    bool          `mapstructure:"remote_enabled"`
	APIURL           string        `mapstructure:"api_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	IncludeCustomary bool          `mapstructure:"include_customary"`
	RedisAddr        string        `mapstructure:"redis_addr"` // empty = in-process cache only
	RedisPassword    string        `mapstructure:"redis_password"`
	RedisDB          int           `mapstructure:"redis_db"`
	RedisTTL         time.Duration `mapstructure:"redis_ttl"`
}

type ReportConfig struct {
	DefaultCategory string `mapstructure:"default_category"`
	DailyHours      string `mapstructure:"daily_hours"`
	PadWeekNumber   int    `mapstructure:"pad_week_number"`
}

// Hours parses DailyHours.
func (c ReportConfig) Hours() (decimal.Decimal, error) {
	return decimal.NewFromString(c.DailyHours)
}

type GenerateConfig struct {
	Workers int `mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// Load reads configuration from defaults, an optional file and the environment.
func Load(path string) (*Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.cors.allow_origins", []string{"*"})

	v.SetDefault("db.path", ":memory:")

	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.cookie_name", "wochennachweis_session")

	v.SetDefault("template.path", "templates/Wochennachweis_Vorlage.docx")
	v.SetDefault("template.font_name", "Arial")
	v.SetDefault("template.font_size", "10")
	v.SetDefault("template.bold", false)
	v.SetDefault("template.italic", false)
	v.SetDefault("template.underline", false)

	v.SetDefault("holidays.region", "NW")
	v.SetDefault("holidays.remote_enabled", true)
	v.SetDefault("holidays.api_url", holiday.DefaultNagerURL)
	v.SetDefault("holidays.timeout", "10s")
	v.SetDefault("holidays.include_customary", true)
	v.SetDefault("holidays.redis_addr", "")
	v.SetDefault("holidays.redis_password", "")
	v.SetDefault("holidays.redis_db", 0)
	v.SetDefault("holidays.redis_ttl", "24h")

	v.SetDefault("report.default_category", string(generic.CategoryUmschulung))
	v.SetDefault("report.daily_hours", "8")
	v.SetDefault("report.pad_week_number", 2)

	v.SetDefault("generate.workers", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the application cannot start without.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		problems = append(problems, "db.path is required")
	}
	if c.Session.CookieName == "" {
		problems = append(problems, "session.cookie_name is required")
	}
	if _, err := c.Template.Style(); err != nil {
		problems = append(problems, err.Error())
	}
	if h, err := c.Report.Hours(); err != nil || h.IsNegative() {
		problems = append(problems, fmt.Sprintf("report.daily_hours %q is not a non-negative number", c.Report.DailyHours))
	}
	if !generic.Category(c.Report.DefaultCategory).Known() {
		problems = append(problems, fmt.Sprintf("report.default_category %q is unknown", c.Report.DefaultCategory))
	}
	if !holiday.KnownRegion(c.Holidays.Region) {
		problems = append(problems, fmt.Sprintf("holidays.region %q is not a German state code", c.Holidays.Region))
	}
	if c.Generate.Workers < 0 {
		problems = append(problems, "generate.workers must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
