package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/plutodigital/curve-subgraph/internal/api"
	"github.com/plutodigital/curve-subgraph/internal/config"
	"github.com/plutodigital/curve-subgraph/internal/database"
	"github.com/plutodigital/curve-subgraph/internal/modules/core"
	"github.com/plutodigital/curve-subgraph/internal/modules/curve"
	"github.com/plutodigital/curve-subgraph/internal/modules/loader"
	"github.com/plutodigital/curve-subgraph/internal/processor"
	"github.com/plutodigital/curve-subgraph/internal/registry"
	"github.com/plutodigital/curve-subgraph/internal/rpc"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", "0.1.0").
		Str("config", configPath).
		Msg("Starting Curve indexer")

	ctx := context.Background()

	if err := database.RunMigrations(ctx, &cfg.Database, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	db, err := database.New(ctx, &cfg.Database, cfg.Chain.ChainID, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	rpcClient, err := rpc.NewClient(cfg.Chain.RPCEndpoint, cfg.Chain.ChainID, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create RPC client")
	}
	defer rpcClient.Close()

	manifestLoader := loader.NewManifestLoader(logger)
	manifest, err := manifestLoader.LoadFromFile(cfg.Indexer.ManifestPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Indexer.ManifestPath).Msg("Failed to load manifest")
	}

	moduleConfig, err := curve.ParseConfig(manifest)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid module configuration")
	}

	reader, err := registry.NewReader(rpcClient.Eth(), common.HexToAddress(moduleConfig.RegistryAddress), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create registry reader")
	}

	module, err := curve.NewModuleFromManifest(manifest, reader, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create module")
	}

	entityStore := database.NewStore(db)
	modules := core.NewModuleRegistry(entityStore, logger)
	if err := modules.RegisterModule(module); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register module")
	}
	if err := modules.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start module registry")
	}
	defer modules.Stop()

	indexer := processor.NewIndexer(cfg, rpcClient, db, entityStore, modules, logger)

	if cfg.API.Enabled {
		apiServer := api.NewAPIServer(db.Pool(), indexer, logger)
		apiCtx, apiCancel := context.WithCancel(ctx)
		defer apiCancel()
		go func() {
			if err := apiServer.Start(apiCtx, cfg.API.Listen); err != nil {
				logger.Error().Err(err).Msg("API server failed")
			}
		}()
	}

	// Start indexer (blocks until shutdown)
	if err := indexer.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Indexer failed")
	}

	logger.Info().Msg("Indexer shutdown complete")
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05.000",
		}
		logger = zerolog.New(output).Level(level).With().Timestamp().Caller().Logger()
	} else {
		logger = zerolog.New(os.Stdout).Level(level).With().Timestamp().Caller().Logger()
	}

	return logger
}
