package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mapfront/mapfront-viewer/internal/client"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
	"github.com/mapfront/mapfront-viewer/internal/infrastructure/selection"
	"github.com/mapfront/mapfront-viewer/internal/infrastructure/ws"
	"github.com/mapfront/mapfront-viewer/internal/server"
)

func Serve() error {
	cfg := struct {
		Viewer struct {
			Debug                 bool   `conf:"default:false"`
			AgentURL              string `conf:"default:http://localhost/mapguide/mapagent/mapagent.fcgi"`
			ViewerRoot            string `conf:"default:http://localhost/viewer"`
			ProjectionRegistryURL string `conf:"default:https://epsg.io"`
		}
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:3000"`
		}
		Redis struct {
			Addr     string `conf:"default:redis:6379"` // "/var/run/redis/redis.sock"
			Network  string // "unix"
			Password string `conf:"mask"`
			DB       int    `conf:"default:0"`
		}
	}{}

	const prefix = ""
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}
	logLevel := zap.InfoLevel
	if cfg.Viewer.Debug {
		logLevel = zap.DebugLevel
	}
	log, err := createLogger(logLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// for unix socket, use Network: "unix" and Addr: "/var/run/redis/redis.sock"
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Network:  cfg.Redis.Network,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	conf := server.Config{
		Debug:                 cfg.Viewer.Debug,
		AgentURL:              cfg.Viewer.AgentURL,
		ViewerRoot:            cfg.Viewer.ViewerRoot,
		ProjectionRegistryURL: cfg.Viewer.ProjectionRegistryURL,
	}

	bundles := i18n.NewBundles()
	mgClient := client.NewClient(log, cfg.Viewer.AgentURL)
	selections := selection.NewRedisSelectionStore(log, rdb)
	vws := ws.NewViewerWS(log)
	s := server.NewServer(log, conf, bundles, mgClient, selections, selections, vws)

	// Start server
	go func() {
		if err := s.ListenAndServe(cfg.Web.APIHost); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()
	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("Received shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
	log.Sync()
	return nil
}

func createLogger(level zapcore.Level) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.Level.SetLevel(level)

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	log := logger.Sugar()
	return log, nil
}
