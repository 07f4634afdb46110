// Package config provides configuration loading and validation for nwconf.
// It reads an optional YAML file, fills in defaults, and checks that the
// values needed to locate the game's configuration directory are usable.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lc/nwconf/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultConfigPath is the config file location relative to the home directory.
	DefaultConfigPath = ".nwconf/config.yaml"
	// DefaultLogPath is the diagnostic log location relative to the home directory.
	DefaultLogPath = ".nwconf/nwconf.log"
	// DefaultEnvVar names the environment variable holding the per-user app data root.
	DefaultEnvVar = "LOCALAPPDATA"
	// DefaultRelativePath is the game's folder below the app data root.
	DefaultRelativePath = "AGS/New World"
	// DefaultProcessName is the executable prefix of the running game client.
	DefaultProcessName = "NewWorld"
	// DefaultCopyWorkers bounds concurrent file copies during backup and restore.
	DefaultCopyWorkers = 4
	// DefaultLogLevel is used when the file does not set one.
	DefaultLogLevel = "info"

	maxCopyWorkers = 32
)

// Config holds the application configuration.
type Config struct {
	Game   GameConfig   `yaml:"game"`
	Backup BackupConfig `yaml:"backup"`
	Log    LogConfig    `yaml:"log"`
}

// GameConfig locates the game's configuration directory.
type GameConfig struct {
	// ConfigDir, when set, is used verbatim instead of EnvVar/RelativePath.
	ConfigDir    string `yaml:"config_dir"`
	EnvVar       string `yaml:"env_var"`
	RelativePath string `yaml:"relative_path"`
	ProcessName  string `yaml:"process_name"`
}

// BackupConfig holds backup/restore tuning.
type BackupConfig struct {
	CopyWorkers int `yaml:"copy_workers"`
}

// LogConfig holds diagnostic log settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs   filesys.ReadWriteFS
	path string
	home string
}

var _ Provider = (*FSProvider)(nil)

// New creates a provider for the default configuration path in the user's
// home directory. An empty path argument selects the default.
func New(path string) Provider {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine home directory: %v\n", err)
		home = ""
	}
	if path == "" {
		path = filepath.Join(home, DefaultConfigPath)
	}
	return &FSProvider{fs: filesys.OS(), path: path, home: home}
}

// NewWithPath creates a new provider with a specific filesystem, config
// path and home directory.
func NewWithPath(fs filesys.ReadWriteFS, path, home string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
		home: home,
	}
}

// Default returns the configuration used when no file exists.
// home anchors the default diagnostic log path; an empty home leaves the
// log on stderr.
func Default(home string) *Config {
	cfg := &Config{
		Game: GameConfig{
			EnvVar:       DefaultEnvVar,
			RelativePath: DefaultRelativePath,
			ProcessName:  DefaultProcessName,
		},
		Backup: BackupConfig{CopyWorkers: DefaultCopyWorkers},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
	if home != "" {
		cfg.Log.File = filepath.Join(home, DefaultLogPath)
	}
	return cfg
}

// Load reads the configuration file, applies defaults for unset keys and
// validates the result.
func (p *FSProvider) Load() (*Config, error) {
	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			return Default(p.home), nil
		}
		return nil, err
	}

	cfg.applyDefaults(p.home)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate checks the configuration to ensure all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Game.ConfigDir) == "" && strings.TrimSpace(c.Game.EnvVar) == "" {
		return errors.New("either game.config_dir or game.env_var must be set")
	}
	if c.Game.ConfigDir != "" && !filepath.IsAbs(c.Game.ConfigDir) {
		return errors.New("game.config_dir must be an absolute path")
	}
	if c.Backup.CopyWorkers < 1 || c.Backup.CopyWorkers > maxCopyWorkers {
		return fmt.Errorf("backup.copy_workers must be between 1 and %d", maxCopyWorkers)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// applyDefaults fills keys the file left empty.
func (c *Config) applyDefaults(home string) {
	def := Default(home)
	if c.Game.EnvVar == "" && c.Game.ConfigDir == "" {
		c.Game.EnvVar = def.Game.EnvVar
	}
	if c.Game.RelativePath == "" {
		c.Game.RelativePath = def.Game.RelativePath
	}
	if c.Game.ProcessName == "" {
		c.Game.ProcessName = def.Game.ProcessName
	}
	if c.Backup.CopyWorkers == 0 {
		c.Backup.CopyWorkers = def.Backup.CopyWorkers
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.File == "" {
		c.Log.File = def.Log.File
	}
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return &cfg, nil
}
