package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/Brownie44l1/predict-api/internal/model"
)

// viper keys
const (
	ServerPort            = "server.port"
	ServerShutdownTimeout = "server.shutdown_timeout"
	ModelPath             = "model.path"
	ModelFormat           = "model.format"
	ModelMetadataPath     = "model.metadata_path"
	ModelONNXLibrary      = "model.onnx_library"
	RequestLogEnabled     = "request_log.enabled"
	RequestLogPath        = "request_log.path"
	RequestLogName        = "request_log.name"
	RequestLogMaxSizeMB   = "request_log.max_size_mb"
	LogLevel              = "log.level"
	LogDevelopment        = "log.development"
	MetricsEnabled        = "metrics.enabled"

	EnvPrefix = "PREDICT"
)

type Config struct {
	Server struct {
		Port            int           `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Model struct {
		Path         string `mapstructure:"path"`
		Format       string `mapstructure:"format"`
		MetadataPath string `mapstructure:"metadata_path"`
		ONNXLibrary  string `mapstructure:"onnx_library"`
	} `mapstructure:"model"`
	RequestLog struct {
		Enabled   bool   `mapstructure:"enabled"`
		Path      string `mapstructure:"path"`
		Name      string `mapstructure:"name"`
		MaxSizeMB int    `mapstructure:"max_size_mb"`
	} `mapstructure:"request_log"`
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(ServerPort, 8080)
	v.SetDefault(ServerShutdownTimeout, 5*time.Second)
	v.SetDefault(ModelPath, "models/model.json")
	v.SetDefault(ModelFormat, model.FormatAuto)
	v.SetDefault(ModelMetadataPath, "models/model_metadata.json")
	v.SetDefault(ModelONNXLibrary, "")
	v.SetDefault(RequestLogEnabled, false)
	v.SetDefault(RequestLogPath, "log.txt")
	v.SetDefault(RequestLogName, "root")
	v.SetDefault(RequestLogMaxSizeMB, 0)
	v.SetDefault(LogLevel, "info")
	v.SetDefault(LogDevelopment, false)
	v.SetDefault(MetricsEnabled, false)
}

// New returns a viper instance with defaults and environment binding.
// PREDICT_MODEL_PATH overrides model.path and so on.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// plain PORT is honoured after the prefixed variable
	_ = v.BindEnv(ServerPort, EnvPrefix+"_SERVER_PORT", "PORT")
	return v
}

// Load reads the optional config file into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if _, err := model.ResolveFormat(c.Model.Path, c.Model.Format); err != nil {
		return err
	}
	if c.RequestLog.Enabled && c.RequestLog.Path == "" {
		return errors.New("request_log.path is required when the request log is enabled")
	}
	if c.RequestLog.MaxSizeMB < 0 {
		return errors.New("request_log.max_size_mb must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func (c *Config) ModelOptions() model.Options {
	return model.Options{
		Path:         c.Model.Path,
		Format:       c.Model.Format,
		MetadataPath: c.Model.MetadataPath,
		ONNXLibrary:  c.Model.ONNXLibrary,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
