package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ETFScope/internal/model"
	"ETFScope/internal/render"
	"ETFScope/internal/series"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Tickers    []string `yaml:"tickers"`
	DataSource struct {
		Provider  string `yaml:"provider"`
		StartDate string `yaml:"start_date"`
		Proxy     string `yaml:"proxy"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Dataset struct {
		JSONPath    string `yaml:"json_path"`
		URL         string `yaml:"url"`
		ParquetPath string `yaml:"parquet_path"`
	} `yaml:"dataset"`
	Processing struct {
		MaxPoints       int      `yaml:"max_points"`
		UnsampledRanges []string `yaml:"unsampled_ranges"`
	} `yaml:"processing"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Display struct {
		Theme  string `yaml:"theme"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
	} `yaml:"display"`
}

// Path resolves the config file location: an explicit flag wins, then
// CONFIG_PATH, then DefaultPath.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, loads .env, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	_ = godotenv.Load()

	// Environment variable overrides
	if v := os.Getenv("ETFSCOPE_TICKERS"); v != "" {
		cfg.Tickers = splitList(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DATASET_PATH"); v != "" {
		cfg.Dataset.JSONPath = v
	}
	if v := os.Getenv("DATASET_URL"); v != "" {
		cfg.Dataset.URL = v
	}
	if v := os.Getenv("PARQUET_PATH"); v != "" {
		cfg.Dataset.ParquetPath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("MAX_POINTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse MAX_POINTS: %w", err)
		}
		cfg.Processing.MaxPoints = n
	}

	for i, t := range cfg.Tickers {
		cfg.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.StartDate == "" {
		cfg.DataSource.StartDate = "1900-01-01"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/etf_data.db"
	}
	if cfg.Dataset.JSONPath == "" {
		cfg.Dataset.JSONPath = "data/etf-data.json"
	}
	if cfg.Processing.MaxPoints == 0 {
		cfg.Processing.MaxPoints = series.DefaultMaxPoints
	}
	if cfg.Processing.UnsampledRanges == nil {
		cfg.Processing.UnsampledRanges = []string{string(model.OneMonth), string(model.SixMonths)}
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Display.Theme == "" {
		cfg.Display.Theme = render.DefaultTheme.Name
	}
	if cfg.Display.Width == 0 {
		cfg.Display.Width = render.DefaultWidth
	}
	if cfg.Display.Height == 0 {
		cfg.Display.Height = render.DefaultHeight
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Processing.MaxPoints < 1 {
		return fmt.Errorf("processing.max_points must be at least 1")
	}
	for _, r := range c.Processing.UnsampledRanges {
		if _, ok := model.LookupRangeSelector(r); !ok {
			return fmt.Errorf("processing.unsampled_ranges: unknown range %q", r)
		}
	}
	if _, err := c.StartDate(); err != nil {
		return err
	}
	switch c.DataSource.Provider {
	case "yahoo", "finance-go", "mock":
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if _, err := render.ThemeByName(c.Display.Theme); err != nil {
		return fmt.Errorf("display.theme: %w", err)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display.width and display.height must be positive")
	}
	return nil
}

// ValidateRefresh additionally requires the settings a price refresh needs.
func (c *Config) ValidateRefresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Tickers) == 0 {
		return fmt.Errorf("tickers is required")
	}
	return nil
}

// StartDate parses data_source.start_date.
func (c *Config) StartDate() (time.Time, error) {
	d, err := model.ParseDate(c.DataSource.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("data_source.start_date: %w", err)
	}
	return d, nil
}

// Policy builds the processing policy.
func (c *Config) Policy() series.Policy {
	p := series.Policy{MaxPoints: c.Processing.MaxPoints}
	for _, r := range c.Processing.UnsampledRanges {
		if sel, ok := model.LookupRangeSelector(r); ok {
			p.Unsampled = append(p.Unsampled, sel)
		}
	}
	return p
}

// Theme returns the configured display theme, falling back to the default.
func (c *Config) Theme() render.Theme {
	t, err := render.ThemeByName(c.Display.Theme)
	if err != nil {
		return render.DefaultTheme
	}
	return t
}

// DatasetSource is where read-only commands load the dataset from: the
// remote URL when set, otherwise the local JSON file.
func (c *Config) DatasetSource() string {
	if c.Dataset.URL != "" {
		return c.Dataset.URL
	}
	return c.Dataset.JSONPath
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
