package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pictoboard/internal/paths"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "PICTOBOARD"

	cfgKeyDataDir     = "data_dir"
	cfgKeyLogLevel    = "log_level"
	cfgKeyBusyTimeout = "busy_timeout_ms"
	cfgKeyLanguage    = "language"

	defaultLanguage = "en-US"
	defaultLogLevel = "info"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level"`
	Language string `yaml:"language"`
}

// loadConfig reads config.yaml from configDir. A missing directory or file
// is not an error. PICTOBOARD_LOG_LEVEL, PICTOBOARD_BUSY_TIMEOUT_MS and
// PICTOBOARD_LANGUAGE override the file; the data directory follows its own
// precedence in paths.ResolveDataDir, so it is not bound to the environment
// here.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLanguage, defaultLanguage)
	v.SetDefault(cfgKeyBusyTimeout, 0)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyLogLevel, cfgKeyBusyTimeout, cfgKeyLanguage} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates configDir and a config.yaml recording
// dataDir. An existing file is left alone. Reports whether it wrote.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&configFile{
		DataDir:  dataDir,
		LogLevel: defaultLogLevel,
		Language: defaultLanguage,
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# pictoboard configuration\n")
	if err := os.WriteFile(filepath.Clean(path), append(header, data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

// newLogger builds the CLI logger. Without verbose only warnings and errors
// reach stderr, as JSON; verbose switches to the development console
// format at the configured level, and trace lowers it to debug.
func newLogger(verbose, trace bool, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var cfg zap.Config
	switch {
	case trace:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case verbose:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	default:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(max(lvl, zapcore.WarnLevel))
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
