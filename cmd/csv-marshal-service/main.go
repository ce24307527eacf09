package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/csv-marshal-kit/pkg/blobclient"
	"github.com/yourorg/csv-marshal-kit/pkg/config"
	"github.com/yourorg/csv-marshal-kit/pkg/export"
	"github.com/yourorg/csv-marshal-kit/pkg/httpservice"
	"github.com/yourorg/csv-marshal-kit/pkg/logging"
	"github.com/yourorg/csv-marshal-kit/pkg/servicebusclient"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(logger)

	logger.Info("Starting CSV marshal service",
		logging.NewField("version", cfg.AppVersion),
		logging.NewField("environment", cfg.Environment),
	)

	blobClient, busClient, err := newClients(cfg, logger)
	if err != nil {
		logger.Error("Failed to create Azure clients", logging.NewField("error", err))
		os.Exit(1)
	}

	server, err := newServer(cfg, logger, blobClient, busClient)
	if err != nil {
		logger.Error("Failed to create server", logging.NewField("error", err))
		os.Exit(1)
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", logging.NewField("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", logging.NewField("error", err))
	}
}

// loadConfig reads CONFIG_FILE when set, with the environment taking
// precedence, and the environment alone otherwise.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadConfigFromFile(path)
	}
	return config.LoadConfigFromEnv()
}

// newClients returns Azure clients, or in-memory ones for whatever has no
// account configured.
func newClients(cfg *config.Config, logger logging.Logger) (blobclient.BlobClient, servicebusclient.ServiceBusClient, error) {
	var blobClient blobclient.BlobClient
	if cfg.BlobStorageAccountName == "" {
		logger.Info("Using mock blob client (no account name configured)")
		blobClient = blobclient.NewMockBlobClient()
	} else {
		client, err := blobclient.NewAzureBlobClient(cfg.BlobStorageAccountName, cfg.BlobStorageAccountKey, logger)
		if err != nil {
			return nil, nil, err
		}
		blobClient = client
	}

	var busClient servicebusclient.ServiceBusClient
	if cfg.ServiceBusNamespace == "" {
		logger.Info("Using mock Service Bus client (no namespace configured)")
		busClient = servicebusclient.NewMockServiceBusClient()
	} else {
		client, err := servicebusclient.NewAzureServiceBusClient(cfg.ServiceBusNamespace, cfg.ServiceBusKeyName, cfg.ServiceBusKeyValue, logger)
		if err != nil {
			return nil, nil, err
		}
		busClient = client
	}

	return blobClient, busClient, nil
}

func newServer(cfg *config.Config, logger logging.Logger, blobClient blobclient.BlobClient, busClient servicebusclient.ServiceBusClient) (*httpservice.Server, error) {
	format, err := cfg.CSVFormat()
	if err != nil {
		return nil, err
	}
	terminator, err := cfg.LineTerminator()
	if err != nil {
		return nil, err
	}

	exporter, err := export.NewExporter(export.Config{
		Container:  cfg.BlobContainer,
		Queue:      cfg.ServiceBusQueue,
		Format:     format,
		Terminator: terminator,
	}, blobClient, busClient, logger)
	if err != nil {
		return nil, err
	}

	return httpservice.NewServer(httpservice.ServerConfig{
		Port:           cfg.HTTPPort,
		ReadTimeout:    time.Duration(cfg.HTTPReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.HTTPWriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.HTTPIdleTimeout) * time.Second,
		Logger:         logger,
		ServiceName:    cfg.AppName,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxBodySize:    cfg.MaxBodySize,
	}, NewApp(format, terminator, exporter))
}
