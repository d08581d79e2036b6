package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/liliang-cn/toolbridge/pkg/domain"
)

// Config is the root configuration. Everything here is read-only after
// Load; concurrent tool calls share it without locking.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" toml:"server"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" toml:"dispatcher"`
	Poller     PollerConfig     `mapstructure:"poller" toml:"poller"`
	Query      QueryConfig      `mapstructure:"query" toml:"query"`
	GitHub     GitHubConfig     `mapstructure:"github" toml:"github"`
	Square     SquareConfig     `mapstructure:"square" toml:"square"`
	Plaid      PlaidConfig      `mapstructure:"plaid" toml:"plaid"`
	H2O        H2OConfig        `mapstructure:"h2o" toml:"h2o"`
}

type ServerConfig struct {
	Name  string `mapstructure:"name" toml:"name"`
	Debug bool   `mapstructure:"debug" toml:"debug"`
}

type DispatcherConfig struct {
	CallsPerMinute int `mapstructure:"calls_per_minute" toml:"calls_per_minute"`
	BurstSize      int `mapstructure:"burst_size" toml:"burst_size"`
}

type PollerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" toml:"poll_interval"`
	Deadline     time.Duration `mapstructure:"deadline" toml:"deadline"`
	MaxInFlight  int64         `mapstructure:"max_in_flight" toml:"max_in_flight"`
}

// QueryConfig configures the asynchronous SQL query service.
type QueryConfig struct {
	BaseURL   string        `mapstructure:"base_url" toml:"base_url"`
	APIKey    string        `mapstructure:"api_key" toml:"api_key"`
	Database  string        `mapstructure:"database" toml:"database"`
	Workgroup string        `mapstructure:"workgroup" toml:"workgroup"`
	Timeout   time.Duration `mapstructure:"timeout" toml:"timeout"`
}

type GitHubConfig struct {
	BaseURL string        `mapstructure:"base_url" toml:"base_url"`
	Token   string        `mapstructure:"token" toml:"token"`
	Timeout time.Duration `mapstructure:"timeout" toml:"timeout"`
}

type SquareConfig struct {
	BaseURL     string        `mapstructure:"base_url" toml:"base_url"`
	AccessToken string        `mapstructure:"access_token" toml:"access_token"`
	Timeout     time.Duration `mapstructure:"timeout" toml:"timeout"`
}

// PlaidConfig configures the Plaid gateway. ClientID and Secret are joined
// into the gateway's basic-style bearer credential.
type PlaidConfig struct {
	BaseURL  string        `mapstructure:"base_url" toml:"base_url"`
	ClientID string        `mapstructure:"client_id" toml:"client_id"`
	Secret   string        `mapstructure:"secret" toml:"secret"`
	Timeout  time.Duration `mapstructure:"timeout" toml:"timeout"`
}

type H2OConfig struct {
	BaseURL string        `mapstructure:"base_url" toml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "toolbridge",
		},
		Poller: PollerConfig{
			PollInterval: 2 * time.Second,
			Deadline:     300 * time.Second,
			MaxInFlight:  8,
		},
		Query: QueryConfig{
			Database:  "default",
			Workgroup: "primary",
			Timeout:   30 * time.Second,
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
			Timeout: 30 * time.Second,
		},
		Square: SquareConfig{
			BaseURL: "https://connect.squareup.com/v2",
			Timeout: 30 * time.Second,
		},
		Plaid: PlaidConfig{
			BaseURL: "https://api.dashboard.plaid.com/mcp/sse",
			Timeout: 15 * time.Second,
		},
		H2O: H2OConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads the configuration from configPath when given, otherwise from
// ./toolbridge.toml or ~/.toolbridge/toolbridge.toml. Environment variables
// prefixed TOOLBRIDGE_ override file values (TOOLBRIDGE_QUERY_API_KEY etc).
// A missing file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	if configPath != "" {
		abs, _ := filepath.Abs(configPath)
		v.SetConfigFile(abs)
	} else {
		if _, err := os.Stat("toolbridge.toml"); err == nil {
			abs, _ := filepath.Abs("toolbridge.toml")
			v.SetConfigFile(abs)
		} else if home, err := os.UserHomeDir(); err == nil {
			p := filepath.Join(home, ".toolbridge", "toolbridge.toml")
			if _, err := os.Stat(p); err == nil {
				v.SetConfigFile(p)
			}
		}
	}

	v.SetEnvPrefix("TOOLBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", domain.ErrConfiguration, v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("server.name", def.Server.Name)
	v.SetDefault("server.debug", def.Server.Debug)
	v.SetDefault("dispatcher.calls_per_minute", def.Dispatcher.CallsPerMinute)
	v.SetDefault("dispatcher.burst_size", def.Dispatcher.BurstSize)
	v.SetDefault("poller.poll_interval", def.Poller.PollInterval)
	v.SetDefault("poller.deadline", def.Poller.Deadline)
	v.SetDefault("poller.max_in_flight", def.Poller.MaxInFlight)
	v.SetDefault("query.database", def.Query.Database)
	v.SetDefault("query.workgroup", def.Query.Workgroup)
	v.SetDefault("query.timeout", def.Query.Timeout)
	v.SetDefault("github.base_url", def.GitHub.BaseURL)
	v.SetDefault("github.timeout", def.GitHub.Timeout)
	v.SetDefault("square.base_url", def.Square.BaseURL)
	v.SetDefault("square.timeout", def.Square.Timeout)
	v.SetDefault("plaid.base_url", def.Plaid.BaseURL)
	v.SetDefault("plaid.timeout", def.Plaid.Timeout)
	v.SetDefault("h2o.timeout", def.H2O.Timeout)
}

// WriteDefault writes the default configuration as TOML to path, creating
// parent directories as needed. Used by `toolbridge config init`.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
