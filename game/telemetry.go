package game

import (
	"fmt"

	"github.com/rs/zerolog"

	"carball/config"
	"carball/telemetry"
)

// Telemetry bundles the sinks a session records into
type Telemetry struct {
	Session string
	Memory  *telemetry.Memory
	Metrics *telemetry.Metrics
	Store   *telemetry.Store
	Writer  *telemetry.Writer

	sink telemetry.Multi
}

// OpenTelemetry creates otel counters and, when enabled, the event store.
// keep additionally retains every event in memory.
func OpenTelemetry(cfg config.TelemetryConfig, keep bool, log zerolog.Logger) (*Telemetry, error) {
	t := &Telemetry{Session: telemetry.NewSession()}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, err
	}
	t.Metrics = metrics
	t.sink = append(t.sink, metrics)

	if keep {
		t.Memory = &telemetry.Memory{}
		t.sink = append(t.sink, t.Memory)
	}

	if cfg.Enabled {
		store, err := telemetry.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("telemetry store: %w", err)
		}
		t.Store = store
		t.Writer = telemetry.NewWriter(store, t.Session, cfg.QueueSize, metrics, log)
		t.sink = append(t.sink, t.Writer)
		log.Info().Str("driver", cfg.Driver).Str("session", t.Session).Msg("telemetry store open")
	}
	return t, nil
}

// Sink fans events out to every configured destination
func (t *Telemetry) Sink() telemetry.Sink {
	return t.sink
}

// Close flushes queued events and closes the store
func (t *Telemetry) Close() error {
	if t.Writer != nil {
		t.Writer.Close()
	}
	if t.Store == nil {
		return nil
	}
	return t.Store.Close()
}
