package config

import (
	"context"
	"errors"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/tracing"
	"github.com/zjrosen/tourscout/internal/watcher"
)

// ErrNoConfigFile is returned by Watch when v was not loaded from a file.
var ErrNoConfigFile = errors.New("no config file to watch")

// Reload re-reads v's config file and returns the validated result.
func Reload(ctx context.Context, v *viper.Viper) (Config, error) {
	_, span := otel.Tracer("tourscout/config").Start(ctx, tracing.SpanConfigApply)
	defer span.End()
	span.SetAttributes(attribute.String("config.path", v.ConfigFileUsed()))

	if err := v.ReadInConfig(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Config{}, err
	}
	cfg, err := Load(v)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Config{}, err
	}
	return cfg, nil
}

// Watch calls apply with the new config every time v's file changes,
// until ctx is done. Files that fail to parse or validate are logged and
// skipped, leaving the last good config in effect.
func Watch(ctx context.Context, v *viper.Viper, apply func(Config)) error {
	path := v.ConfigFileUsed()
	if path == "" {
		return ErrNoConfigFile
	}

	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}

	go func() {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				cfg, err := Reload(ctx, v)
				if err != nil {
					log.WarnErr(log.CatConfig, "Ignoring invalid config change", err, "path", path)
					continue
				}
				log.Info(log.CatConfig, "Config reloaded", "path", path,
					"poll_interval", cfg.Search.PollInterval, "max_retries", cfg.Search.MaxRetries)
				apply(cfg)
			}
		}
	}()
	return nil
}
