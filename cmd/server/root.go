package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Brownie44l1/predict-api/internal/config"
	"github.com/Brownie44l1/predict-api/internal/handlers"
	"github.com/Brownie44l1/predict-api/internal/logging"
	"github.com/Brownie44l1/predict-api/internal/metrics"
	"github.com/Brownie44l1/predict-api/internal/model"
	"github.com/Brownie44l1/predict-api/internal/requestlog"
	"github.com/Brownie44l1/predict-api/internal/server"
)

var (
	configPath string
	v          = config.New()
)

var rootCmd = &cobra.Command{
	Use:           "predict-api",
	Short:         "Serve a pre-trained classifier over HTTP",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(v, configPath)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the model and serve POST /predict",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(v, configPath)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.Int("port", 8080, "HTTP listen port")
	flags.String("model", "models/model.json", "path to the model artifact")
	flags.String("model-format", model.FormatAuto, "artifact format: auto, onnx, json or yaml")
	flags.Bool("request-log", false, "append every request's features to the request log")
	flags.String("request-log-path", "log.txt", "request log file")
	flags.String("log-level", "info", "log level")

	bindFlag(v, config.ServerPort, flags.Lookup("port"))
	bindFlag(v, config.ModelPath, flags.Lookup("model"))
	bindFlag(v, config.ModelFormat, flags.Lookup("model-format"))
	bindFlag(v, config.RequestLogEnabled, flags.Lookup("request-log"))
	bindFlag(v, config.RequestLogPath, flags.Lookup("request-log-path"))
	bindFlag(v, config.LogLevel, flags.Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func serve(v *viper.Viper, configPath string) error {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}

	flush, err := logging.Setup(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer flush()
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// the model must be fully loaded before the listener accepts traffic
	zap.S().Infow("loading model", "path", cfg.Model.Path, "format", cfg.Model.Format)
	modelServer, err := model.NewServer(cfg.ModelOptions())
	if err != nil {
		zap.S().Errorw("failed to initialize model server", "err", err)
		return err
	}
	defer modelServer.Close()
	zap.S().Infow("model loaded",
		"path", modelServer.Path,
		"format", modelServer.Format,
		"features", modelServer.NumFeatures(),
		"classes", modelServer.Classes(),
	)

	var recorder requestlog.Recorder
	if cfg.RequestLog.Enabled {
		reqLog, err := requestlog.Open(requestlog.Options{
			Path:      cfg.RequestLog.Path,
			Name:      cfg.RequestLog.Name,
			MaxSizeMB: cfg.RequestLog.MaxSizeMB,
		})
		if err != nil {
			return err
		}
		defer reqLog.Close()
		recorder = reqLog
		zap.S().Infow("request log enabled", "path", cfg.RequestLog.Path)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	router := handlers.NewRouter(handlers.NewHandler(modelServer, recorder), m)
	srv := server.New(cfg.Addr(), router, cfg.Server.ShutdownTimeout)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zap.S().Infow("received signal", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	zap.S().Infow("exiting")
	return nil
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
