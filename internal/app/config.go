package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/baluardo/backup-control-service/pkg/workerpool"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig application configuration, loaded from YAML with defaults
// applied for every omitted field.
type AppConfig struct {
	File     string         `yaml:"-"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	App      AppSettings    `yaml:"app"`
}

// ServerConfig HTTP server configuration.
type ServerConfig struct {
	// RunMode gin run mode
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP listen address
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout read timeout in seconds
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout write timeout in seconds
	WriteTimeout int `yaml:"write-timeout" default:"60"`
}

// LogConfig logging configuration.
type LogConfig struct {
	// Level log level, see zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File log file path
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production enables JSON output
	Production bool `yaml:"production" default:"true"`
	// MaxSize maximum log file size in MB before rotation
	MaxSize int `yaml:"max-size" default:"64"`
	// MaxBackups rotated files kept
	MaxBackups int `yaml:"max-backups" default:"7"`
	// MaxAge rotated file age in days
	MaxAge int `yaml:"max-age" default:"30"`
}

// DatabaseConfig database configuration.
type DatabaseConfig struct {
	// Type database type, sqlite or mysql
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite database file path
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// UserName MySQL user
	UserName string `yaml:"username"`
	// Password MySQL password
	Password string `yaml:"password"`
	// Host MySQL host
	Host string `yaml:"host"`
	// Name MySQL database name
	Name string `yaml:"name"`
	// TablePrefix table name prefix
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate run schema migration on startup
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset MySQL charset
	Charset string `yaml:"charset" default:"utf8mb4"`
	// ParseTime MySQL parseTime flag
	ParseTime bool `yaml:"parse-time" default:"true"`
	// MaxIdleConns maximum idle connections
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns maximum open connections
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
}

// EngineConfig backup engine configuration.
type EngineConfig struct {
	// HeartbeatTTL how long an agent ping stays fresh
	HeartbeatTTL string `yaml:"heartbeat-ttl" default:"2m"`
	// AgentCallTimeout deadline for quick agent calls
	AgentCallTimeout string `yaml:"agent-call-timeout" default:"10s"`
	// AgentBackupTimeout deadline for backup dispatch calls
	AgentBackupTimeout string `yaml:"agent-backup-timeout" default:"15s"`
	// RunRetentionDays run history kept before cleanup, 0 disables
	RunRetentionDays int `yaml:"run-retention-days" default:"90"`
	// HeartbeatSweepInterval how often stale heartbeats are marked offline
	HeartbeatSweepInterval string `yaml:"heartbeat-sweep-interval" default:"1m"`

	// Worker pool sizing for scheduled fires
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"16"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"64"`
}

// AppSettings request handling settings.
type AppSettings struct {
	// DefaultContextTimeout per-request timeout in seconds
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
}

// LoadConfig loads the configuration from a file. Returns the config and
// the absolute path of the file actually read.
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// Fill fields present in the YAML but left empty.
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save writes the configuration back to its file.
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}
	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

// GetWorkerPoolConfig returns the worker pool sizing.
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()
	if c.Engine.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.Engine.WorkerPoolMaxWorkers
	}
	if c.Engine.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.Engine.WorkerPoolQueueSize
	}
	return cfg
}

// GetHeartbeatTTL returns the parsed heartbeat TTL.
func (c *AppConfig) GetHeartbeatTTL() time.Duration {
	return parseDurationOr(c.Engine.HeartbeatTTL, 2*time.Minute)
}

// GetAgentCallTimeout returns the parsed quick-call deadline.
func (c *AppConfig) GetAgentCallTimeout() time.Duration {
	return parseDurationOr(c.Engine.AgentCallTimeout, 10*time.Second)
}

// GetAgentBackupTimeout returns the parsed backup dispatch deadline.
func (c *AppConfig) GetAgentBackupTimeout() time.Duration {
	return parseDurationOr(c.Engine.AgentBackupTimeout, 15*time.Second)
}

// GetHeartbeatSweepInterval returns the parsed offline sweep interval.
func (c *AppConfig) GetHeartbeatSweepInterval() time.Duration {
	return parseDurationOr(c.Engine.HeartbeatSweepInterval, time.Minute)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}
