package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/adapters/database"
	"github.com/kevin07696/recharge-gateway/internal/bootstrap"
	"github.com/kevin07696/recharge-gateway/internal/config"
)

// env is what every subcommand starts from
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) database(ctx context.Context) (*database.PostgreSQLAdapter, error) {
	db, err := bootstrap.Database(ctx, e.cfg, e.logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return db, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}
