package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	cfg, err := Load(LoadOptions{
		ConfigPath: filepath.Join(t.TempDir(), "absent.toml"),
		Env:        map[string]string{"TOMATO_DATA_DIR": dataDir},
	})
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 10, cfg.Logging.MaxSizeMB)
	require.Equal(t, 5, cfg.Logging.MaxFiles)
	require.Equal(t, 4, cfg.Pomodoro.LongBreakEvery)
	require.Equal(t, dataDir, cfg.Storage.DataDir)
	require.Equal(t, filepath.Join(dataDir, "tomato.log"), cfg.Logging.File)
}

func TestLoadParsesAllFields(t *testing.T) {
	cfgPath := writeConfigFile(t, `
[storage]
data_dir = "/var/lib/tomato"

[logging]
level = "debug"
file = "/tmp/tomato.log"
max_size_mb = 3
max_files = 2

[pomodoro]
long_break_every = 3
`)

	cfg, err := Load(LoadOptions{ConfigPath: cfgPath, Env: map[string]string{}})
	require.NoError(t, err)
	require.Equal(t, Config{
		Storage:  StorageConfig{DataDir: "/var/lib/tomato"},
		Logging:  LoggingConfig{Level: "debug", File: "/tmp/tomato.log", MaxSizeMB: 3, MaxFiles: 2},
		Pomodoro: PomodoroConfig{LongBreakEvery: 3},
	}, cfg)
}

func TestLoadPrecedenceFlagOverEnvOverFile(t *testing.T) {
	cfgPath := writeConfigFile(t, `
[storage]
data_dir = "/from/file"

[logging]
level = "warn"
`)

	cfg, err := Load(LoadOptions{
		ConfigPath: cfgPath,
		Env: map[string]string{
			"TOMATO_DATA_DIR":  "/from/env",
			"TOMATO_LOG_LEVEL": "error",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "/from/env", cfg.Storage.DataDir)
	require.Equal(t, "error", cfg.Logging.Level)

	flagDir, flagLevel := "/from/flag", "debug"
	cfg, err = Load(LoadOptions{
		ConfigPath: cfgPath,
		Env: map[string]string{
			"TOMATO_DATA_DIR":  "/from/env",
			"TOMATO_LOG_LEVEL": "error",
		},
		Flags: FlagOverrides{DataDir: &flagDir, LogLevel: &flagLevel},
	})
	require.NoError(t, err)
	require.Equal(t, "/from/flag", cfg.Storage.DataDir)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, filepath.Join("/from/flag", "tomato.log"), cfg.Logging.File)
}

func TestLoadEmptyFlagDoesNotOverride(t *testing.T) {
	empty := ""
	cfg, err := Load(LoadOptions{
		ConfigPath: filepath.Join(t.TempDir(), "absent.toml"),
		Env:        map[string]string{"TOMATO_DATA_DIR": "/from/env"},
		Flags:      FlagOverrides{DataDir: &empty},
	})
	require.NoError(t, err)
	require.Equal(t, "/from/env", cfg.Storage.DataDir)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"malformed toml", "[logging\nlevel = ", nil},
		{"unknown level", "[logging]\nlevel = \"loud\"", nil},
		{"zero long break", "[pomodoro]\nlong_break_every = 0", nil},
		{"bad size", "[logging]\nmax_size_mb = -1", nil},
		{"bad env int", "", map[string]string{"TOMATO_LONG_BREAK_EVERY": "often"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{"TOMATO_DATA_DIR": t.TempDir()}
			for k, v := range tt.env {
				env[k] = v
			}
			_, err := Load(LoadOptions{ConfigPath: writeConfigFile(t, tt.content), Env: env})
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestResolveConfigPathFromEnv(t *testing.T) {
	path, err := resolveConfigPath(LoadOptions{Env: map[string]string{"TOMATO_CONFIG": "/etc/tomato.toml"}})
	require.NoError(t, err)
	require.Equal(t, "/etc/tomato.toml", path)
}

func TestLoadMaxFilesZeroKeepsAll(t *testing.T) {
	cfgPath := writeConfigFile(t, `
[storage]
data_dir = "/var/lib/tomato"

[logging]
max_files = 0
`)
	cfg, err := Load(LoadOptions{ConfigPath: cfgPath, Env: map[string]string{}})
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Logging.MaxFiles)
}
