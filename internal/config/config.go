package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Storage       StorageConfig       `yaml:"storage"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	Charset            string        `yaml:"charset"`
	Loc                string        `yaml:"loc"`
	MaxConnections     int           `yaml:"max_connections"`
	MaxIdleConnections int           `yaml:"max_idle_connections"`
	ConnectionLifetime time.Duration `yaml:"connection_lifetime"`

	// DSN, when set (DATABASE_DSN env), overrides the host/port/user fields.
	DSN string `yaml:"-"`
}

type RedisConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Password           string `yaml:"password"`
	DB                 int    `yaml:"db"`
	PoolSize           int    `yaml:"pool_size"`
	TranscriptionQueue string `yaml:"transcription_queue"`
	DLQSuffix          string `yaml:"dlq_suffix"`
}

type StorageConfig struct {
	// Backend selects the storage implementation: "local" or "s3".
	Backend string      `yaml:"backend"`
	Local   LocalConfig `yaml:"local"`
	S3      S3Config    `yaml:"s3"`
}

type LocalConfig struct {
	Root string `yaml:"root"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type TranscriptionConfig struct {
	// APIKey is overridden by the GEMINI_API_KEY environment variable.
	// The process may start without it; every transcription attempt then
	// fails until a key is configured.
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`

	// Mode selects job dispatch: "pool" runs transcription on an in-process
	// worker pool, "queue" pushes jobs to Redis for a separate worker.
	Mode    string `yaml:"mode"`
	Workers int    `yaml:"workers"`
}

type ReconcileConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunOnStart bool          `yaml:"run_on_start"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	config.applyEnvOverrides()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.Local.Root == "" {
		c.Storage.Local.Root = "recordings"
	}
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "gemini-2.0-flash"
	}
	if c.Transcription.Timeout == 0 {
		c.Transcription.Timeout = 60 * time.Second
	}
	if c.Transcription.Mode == "" {
		c.Transcription.Mode = "pool"
	}
	if c.Transcription.Workers == 0 {
		c.Transcription.Workers = 4
	}
	if c.Redis.TranscriptionQueue == "" {
		c.Redis.TranscriptionQueue = "transcription_jobs"
	}
	if c.Redis.DLQSuffix == "" {
		c.Redis.DLQSuffix = ":dlq"
	}
	if c.Reconcile.Interval == 0 {
		c.Reconcile.Interval = time.Hour
	}
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Transcription.APIKey = key
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
}

// MySQL DSN format: [username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	charset := c.Database.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	loc := c.Database.Loc
	if loc == "" {
		loc = "Local"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
		c.Database.Name, charset, loc)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
