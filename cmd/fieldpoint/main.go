// FieldPoint Core - Device Integration Runtime
//
// This is the main entry point for the FieldPoint Core application.
// FieldPoint exposes heterogeneous Modbus field devices behind a uniform
// register model:
//   - Flat register addressing across coil, discrete, holding, and input spaces
//   - Deterministic simulator for hardware-free development
//   - Concurrent multi-device runtime with background polling and bus scans
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldpoint/fieldpoint-core/internal/api"
	"github.com/fieldpoint/fieldpoint-core/internal/device"
	"github.com/fieldpoint/fieldpoint-core/internal/infrastructure/config"
	"github.com/fieldpoint/fieldpoint-core/internal/infrastructure/logging"
	"github.com/fieldpoint/fieldpoint-core/internal/infrastructure/mqtt"
	"github.com/fieldpoint/fieldpoint-core/internal/infrastructure/telemetry"
	"github.com/fieldpoint/fieldpoint-core/internal/manager"
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

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting FieldPoint Core",
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

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
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
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var telemetryClient *telemetry.Client
	if cfg.Telemetry.Enabled {
		telemetryClient, err = telemetry.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetryClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.Telemetry.URL,
			"org", cfg.Telemetry.Org,
			"bucket", cfg.Telemetry.Bucket,
		)

		telemetryClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub is shared between the API server, the poller, and
	// the scan completion fan-out
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Create the device manager and load configured devices
	mgr := manager.New(manager.Options{
		Logger:         log,
		OnScanComplete: scanFanout(hub, mqttClient, telemetryClient, log),
	})
	defer func() {
		log.Info("shutting down device manager")
		mgr.Shutdown()
	}()

	if err := loadDevices(cfg, mgr, log); err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}
	log.Info("device manager initialised", "devices", len(mgr.ListDevices()))

	// Relay inbound MQTT commands to the device table
	if mqttClient != nil {
		if err := startCommandBridge(mqttClient, mgr, log); err != nil {
			return fmt.Errorf("subscribing to command topics: %w", err)
		}
		log.Info("command bridge subscribed")
	}

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Manager:     mgr,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Start the background poller (optional)
	if cfg.Polling.Enabled {
		poller := startPoller(cfg, mgr, hub, mqttClient, telemetryClient, log)
		defer func() {
			log.Info("stopping poller")
			poller.Stop()
		}()
	} else {
		log.Info("polling disabled")
	}

	// Announce service availability on the status topic
	if mqttClient != nil {
		topic := mqtt.Topics{}.SystemStatus()
		if pubErr := mqttClient.PublishString(topic, "online", 1, true); pubErr != nil {
			log.Warn("failed to publish online status", "error", pubErr)
		}
	}

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, apiServer, mqttClient, telemetryClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Poller (if enabled)
	// 2. API server
	// 3. Device manager
	// 4. InfluxDB (if enabled)
	// 5. MQTT

	log.Info("FieldPoint Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FIELDPOINT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FIELDPOINT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadDevices constructs and connects every device from configuration.
// A device whose transport fails to connect is kept in the table; its
// status reports the failure and the transport may recover later.
func loadDevices(cfg *config.Config, mgr *manager.Manager, log *logging.Logger) error {
	for _, dc := range cfg.Devices {
		d, err := device.New(device.Config{
			ID:       dc.ID,
			UnitID:   uint8(dc.UnitID), // #nosec G115 -- validated to 0-255 by config.Validate
			Port:     dc.Port,
			Baudrate: dc.Baudrate,
			DataBits: cfg.Serial.DataBits,
			Parity:   cfg.Serial.Parity,
			StopBits: cfg.Serial.StopBits,
			Timeout:  cfg.GetSerialTimeout(),
			Mock:     dc.Mock,
			Profile:  device.ProfileForType(dc.Type),
			Logger:   log,
		})
		if err != nil {
			return fmt.Errorf("device %q: %w", dc.ID, err)
		}

		if err := mgr.AddDevice(d); err != nil {
			return fmt.Errorf("device %q: %w", dc.ID, err)
		}

		if err := d.Initialize(); err != nil {
			log.Warn("device connect failed", "device_id", dc.ID, "error", err)
			continue
		}
		log.Info("device connected",
			"device_id", dc.ID,
			"type", d.Type(),
			"mock", dc.Mock,
		)
	}
	return nil
}

// scanFanout builds the scan completion sink: every finished job is
// broadcast to WebSocket subscribers, published on its result topic,
// and recorded in telemetry. MQTT and InfluxDB clients may be nil.
func scanFanout(hub *api.Hub, mqttClient *mqtt.Client, telemetryClient *telemetry.Client, log *logging.Logger) func(manager.ScanJob) {
	return func(job manager.ScanJob) {
		hub.BroadcastScanResult(job)

		if telemetryClient != nil && job.Result != nil {
			telemetryClient.WriteScanResult(job.DeviceID, job.Result.Detected, job.Result.UnitID, job.Result.Baudrate)
		}

		if mqttClient != nil {
			payload, err := json.Marshal(job)
			if err != nil {
				log.Error("scan result marshal failed", "job_id", job.ID, "error", err)
				return
			}
			topic := mqtt.Topics{}.ScanResult(job.ID)
			if err := mqttClient.Publish(topic, payload, 1, false); err != nil {
				log.Warn("scan result publish failed", "job_id", job.ID, "error", err)
			}
		}
	}
}

// startPoller wires the background poller to its configured sinks:
// WebSocket broadcast, MQTT state topics, and InfluxDB samples.
func startPoller(cfg *config.Config, mgr *manager.Manager, hub *api.Hub, mqttClient *mqtt.Client, telemetryClient *telemetry.Client, log *logging.Logger) *manager.Poller {
	opts := manager.PollerOptions{
		Interval:  time.Duration(cfg.Polling.IntervalMS) * time.Millisecond,
		Broadcast: hub.BroadcastSnapshot,
		Logger:    log,
	}
	if mqttClient != nil {
		opts.Publisher = mqttClient
		opts.StateTopic = mqtt.Topics{}.DeviceState
		opts.StatusTopic = mqtt.Topics{}.DeviceStatus
	}
	if telemetryClient != nil {
		opts.Telemetry = telemetryClient
	}

	poller := manager.NewPoller(mgr, opts)
	poller.Start()
	log.Info("poller started", "interval_ms", cfg.Polling.IntervalMS)
	return poller
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - apiServer: API server to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - telemetryClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, apiServer *api.Server, mqttClient *mqtt.Client, telemetryClient *telemetry.Client) error {
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if telemetryClient != nil {
		if err := telemetryClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
