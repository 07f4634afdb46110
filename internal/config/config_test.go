package config_test

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lc/nwconf/internal/config"
)

type ConfigTestSuite struct {
	suite.Suite
	fs       mockFS
	provider config.Provider
}

type mockFS struct {
	files map[string]string
}

func (m mockFS) Stat(path string) (os.FileInfo, error) {
	if _, ok := m.files[path]; !ok {
		return nil, os.ErrNotExist
	}
	return nil, nil
}

func (m mockFS) MkdirAll(_ string, _ os.FileMode) error {
	return nil
}

func (m mockFS) Open(path string) (*os.File, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	tmp, err := os.CreateTemp("", "mock-*")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, err
	}
	return tmp, nil
}

func (m mockFS) WriteFile(path string, content []byte, _ os.FileMode) error {
	m.files[path] = string(content)
	return nil
}

func (s *ConfigTestSuite) SetupTest() {
	s.fs = mockFS{
		files: make(map[string]string),
	}
	s.provider = config.NewWithPath(s.fs, "test/config.yaml", "/home/player")
}

func (s *ConfigTestSuite) TestLoadDefaultWhenNoFile() {
	cfg, err := s.provider.Load()

	s.Require().NoError(err)
	s.Equal(config.DefaultEnvVar, cfg.Game.EnvVar)
	s.Equal(config.DefaultRelativePath, cfg.Game.RelativePath)
	s.Equal(config.DefaultProcessName, cfg.Game.ProcessName)
	s.Equal(config.DefaultCopyWorkers, cfg.Backup.CopyWorkers)
	s.Equal("info", cfg.Log.Level)
	s.Equal("/home/player/.nwconf/nwconf.log", cfg.Log.File)
	s.Empty(cfg.Game.ConfigDir)
}

func (s *ConfigTestSuite) TestLoadValidConfig() {
	s.fs.files["test/config.yaml"] = `
game:
  config_dir: /games/nw
  process_name: NewWorldBeta
backup:
  copy_workers: 8
log:
  level: debug
  file: /tmp/nwconf.log
`
	cfg, err := s.provider.Load()

	s.Require().NoError(err)
	s.Equal("/games/nw", cfg.Game.ConfigDir)
	s.Equal("NewWorldBeta", cfg.Game.ProcessName)
	s.Equal(config.DefaultRelativePath, cfg.Game.RelativePath)
	s.Empty(cfg.Game.EnvVar, "explicit directory does not need an env var")
	s.Equal(8, cfg.Backup.CopyWorkers)
	s.Equal("debug", cfg.Log.Level)
	s.Equal("/tmp/nwconf.log", cfg.Log.File)
}

func (s *ConfigTestSuite) TestLoadEmptyFileUsesDefaults() {
	s.fs.files["test/config.yaml"] = ""

	cfg, err := s.provider.Load()

	s.Require().NoError(err)
	s.Equal(config.DefaultEnvVar, cfg.Game.EnvVar)
	s.Equal(config.DefaultCopyWorkers, cfg.Backup.CopyWorkers)
}

func (s *ConfigTestSuite) TestValidation() {
	valid := func() config.Config {
		return *config.Default("/home/player")
	}
	testCases := []struct {
		name        string
		mutate      func(c *config.Config)
		expectedErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(_ *config.Config) {},
		},
		{
			name: "no way to locate the directory",
			mutate: func(c *config.Config) {
				c.Game.EnvVar = "  "
				c.Game.ConfigDir = ""
			},
			expectedErr: "either game.config_dir or game.env_var must be set",
		},
		{
			name: "relative config dir",
			mutate: func(c *config.Config) {
				c.Game.ConfigDir = "AGS/New World"
			},
			expectedErr: "game.config_dir must be an absolute path",
		},
		{
			name: "zero copy workers",
			mutate: func(c *config.Config) {
				c.Backup.CopyWorkers = 0
			},
			expectedErr: "backup.copy_workers must be between 1 and 32",
		},
		{
			name: "too many copy workers",
			mutate: func(c *config.Config) {
				c.Backup.CopyWorkers = 33
			},
			expectedErr: "backup.copy_workers must be between 1 and 32",
		},
		{
			name: "upper bound copy workers",
			mutate: func(c *config.Config) {
				c.Backup.CopyWorkers = 32
			},
		},
		{
			name: "unknown log level",
			mutate: func(c *config.Config) {
				c.Log.Level = "verbose"
			},
			expectedErr: `unknown log level "verbose"`,
		},
		{
			name: "log level is case insensitive",
			mutate: func(c *config.Config) {
				c.Log.Level = "WARN"
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.expectedErr == "" {
				s.NoError(err)
			} else {
				s.Error(err)
				s.Contains(err.Error(), tc.expectedErr)
			}
		})
	}
}

func (s *ConfigTestSuite) TestLoadInvalidYAML() {
	s.fs.files["test/config.yaml"] = `
game:
  config_dir: [invalid: yaml]
`
	_, err := s.provider.Load()

	s.Error(err)
	s.Contains(err.Error(), "decoding config file")
}

func (s *ConfigTestSuite) TestLoadInvalidValues() {
	s.fs.files["test/config.yaml"] = `
backup:
  copy_workers: 100
`
	_, err := s.provider.Load()

	s.Require().Error(err)
	s.ErrorIs(err, config.ErrInvalidConfig)
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
