// VentLogic Core - Ventilation Feature Reconciliation Engine
//
// This is the main entry point for the VentLogic Core application.
// VentLogic layers optional features (sensors, switches, indicators)
// onto dynamically discovered ventilation units and keeps the
// downstream resource population converged with operator intent:
//   - Operator decisions persist before any resource is touched
//   - Startup self-heals drift accumulated while the process was down
//   - Uncertainty is fail-closed: unknown resources are left alone
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ventlogic/ventlogic-core/migrations"

	"github.com/ventlogic/ventlogic-core/internal/api"
	"github.com/ventlogic/ventlogic-core/internal/capability"
	"github.com/ventlogic/ventlogic-core/internal/catalog"
	"github.com/ventlogic/ventlogic-core/internal/discovery"
	"github.com/ventlogic/ventlogic-core/internal/engine"
	"github.com/ventlogic/ventlogic-core/internal/execute"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/config"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/database"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/influxdb"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/logging"
	"github.com/ventlogic/ventlogic-core/internal/infrastructure/mqtt"
	"github.com/ventlogic/ventlogic-core/internal/matrix"
	"github.com/ventlogic/ventlogic-core/internal/platform"
	"github.com/ventlogic/ventlogic-core/internal/target"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// storedTargetMaxAge bounds how stale a last-seen record may be before
// the stored discovery fallback stops reporting it.
const storedTargetMaxAge = 7 * 24 * time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting VentLogic Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Declare the feature catalogue, then freeze it: every feature a
	// build may consult is known before the first cycle runs.
	registry := capability.NewRegistry()
	if declareErr := capability.DeclareBuiltin(registry); declareErr != nil {
		return fmt.Errorf("declaring features: %w", declareErr)
	}
	registry.Freeze()
	log.Info("feature registry frozen", "features", len(registry.Features()))

	// Restore the decision matrix from its latest snapshot. A missing
	// snapshot is a first boot, not an error.
	store := matrix.NewStore(matrix.NewSQLitePersister(db.DB))
	store.SetLogger(log)
	if restoreErr := store.Restore(ctx); restoreErr != nil {
		return fmt.Errorf("restoring decision matrix: %w", restoreErr)
	}
	log.Info("decision matrix restored", "targets", len(store.Targets()))

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Warm the platform's retained-document cache so existence probes
	// answer Present/Absent instead of Unknown.
	plat := platform.NewMQTT(mqttClient)
	plat.SetLogger(log)
	warmCtx, warmCancel := context.WithTimeout(ctx, cfg.GetProbeTimeout())
	if warmErr := plat.WarmUp(warmCtx); warmErr != nil {
		// A cold platform answers Unknown everywhere; reconciliation
		// degrades to a no-op rather than failing startup.
		log.Warn("platform warm-up failed, probes answer unknown", "error", warmErr)
	}
	warmCancel()

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the discovery chain: live presence first, last-seen store
	// second, static config last. Successes feed the last-seen store.
	targetRepo := target.NewSQLiteRepository(db.DB)

	presence := discovery.NewMQTTPresence(mqttClient)
	presence.SetLogger(log)
	if presenceErr := presence.Start(); presenceErr != nil {
		log.Warn("presence discovery unavailable, falling back to stored targets", "error", presenceErr)
	}

	stored := discovery.NewStored(targetRepo, storedTargetMaxAge)
	stored.SetLogger(log)

	static := discovery.NewStatic(staticTargets(cfg.Discovery.Static))

	chain := discovery.NewChain(presence, stored, static)
	chain.SetLogger(log)
	chain.SetTimeout(cfg.GetDiscoveryTimeout())
	chain.SetRecorder(targetRepo)

	// Assemble the reconciliation engine
	builder := catalog.NewBuilder(registry, store, plat)
	builder.SetLogger(log)
	builder.SetProbeTimeout(cfg.GetProbeTimeout())

	executor := execute.NewExecutor(plat, plat)
	executor.SetLogger(log)

	reconciler := engine.New(chain, builder, executor, store)
	reconciler.SetLogger(log)
	reconciler.SetApplyTimeout(cfg.GetApplyTimeout())
	if influxClient != nil {
		reconciler.SetTelemetry(influxClient)
	}

	// Startup validation pass: self-heal drift accumulated while the
	// process was stopped. Failures are logged, never fatal.
	report := reconciler.Startup(ctx)
	log.Info("startup validation pass complete",
		"status", report.Status,
		"created", report.Created,
		"removed", report.Removed,
		"failed", report.Failed,
	)

	// Start the REST API
	apiServer, err := api.New(api.Deps{
		Config:       cfg.API,
		Logger:       log,
		Reconciler:   reconciler,
		Store:        store,
		Registry:     registry,
		Discovery:    chain,
		SummaryLimit: cfg.Reconcile.SummaryListLimit,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("VentLogic Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses VENTLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VENTLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// staticTargets converts configured static entries into targets.
func staticTargets(entries []config.StaticTargetConfig) []target.Target {
	targets := make([]target.Target, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, target.Target{
			ID:   e.ID,
			Kind: target.Kind(e.Kind),
		})
	}
	return targets
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
