package dashboard

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/autopeer-io/ridertrack/internal/dashboard/broker"
	"github.com/autopeer-io/ridertrack/internal/dashboard/console"
	"github.com/autopeer-io/ridertrack/internal/dashboard/notifier"
	"github.com/autopeer-io/ridertrack/internal/dashboard/server"
	"github.com/autopeer-io/ridertrack/internal/dashboard/server/grpc"
	"github.com/autopeer-io/ridertrack/internal/dashboard/server/http"
	"github.com/autopeer-io/ridertrack/internal/fleet/engine"
	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/seed"
	"github.com/autopeer-io/ridertrack/internal/fleet/selection"
	"github.com/autopeer-io/ridertrack/pkg/log"
	"github.com/autopeer-io/ridertrack/pkg/mqtt/topic"
	"github.com/autopeer-io/ridertrack/pkg/options"
)

type Config struct {
	// SeedFile, when set, replaces generation with Seed.
	SeedFile   string
	Seed       seed.Config
	Tuning     engine.Tuning
	RandomSeed uint64

	HttpOptions    *options.HttpOptions
	GrpcOptions    *options.GrpcOptions
	MqttOptions    *options.MqttOptions
	ConsoleOptions *options.ConsoleOptions

	// Stdout receives the console table. Defaults to os.Stdout.
	Stdout io.Writer
}

// Riders returns the initial rider set.
func (cfg *Config) Riders(rnd random.Source, now time.Time) ([]model.Entity, error) {
	if cfg.SeedFile != "" {
		riders, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file %s: %w", cfg.SeedFile, err)
		}
		return riders, nil
	}
	return seed.Generate(cfg.Seed, rnd, now), nil
}

// NewDashboard wires the engine to its viewers: HTTP API and stream, gRPC
// health, the optional MQTT mirror and the optional console table.
func (cfg *Config) NewDashboard() (*Dashboard, error) {
	logger := log.WithName("dashboard")
	rnd := random.New(cfg.RandomSeed)

	riders, err := cfg.Riders(rnd, time.Now())
	if err != nil {
		return nil, err
	}

	// 1. Viewers that receive notifications.
	hub := http.NewHub(logger.WithName("stream"))
	sinks := []selection.Notifier{notifier.NewLog(logger.WithName("notifier")), hub}

	var mirror *broker.Mirror
	var outbox *broker.Outbox
	if cfg.MqttOptions != nil && cfg.MqttOptions.Enabled {
		topics := topic.NewBuilder(cfg.MqttOptions.TopicRoot)
		client, err := InitializeMQTTClient(cfg.MqttOptions, topics)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		outbox = broker.NewOutbox(client, broker.DefaultQueueSize, logger.WithName("mqtt"))
		mirror = broker.NewMirror(outbox, topics, logger.WithName("mqtt"))
		sinks = append(sinks, mirror)
	}

	// 2. The engine.
	eng, err := engine.New(engine.Config{
		Seed:     riders,
		Tuning:   cfg.Tuning,
		Random:   rnd,
		Notifier: notifier.NewFanout(sinks...),
		Logger:   log.Std(),
	})
	if err != nil {
		return nil, err
	}
	eng.SubscribeSnapshots(hub)

	// 3. Servers, all sharing one lifecycle.
	servers := []server.Server{
		server.ServerFunc(eng.Run),
		http.NewServer(cfg.HttpOptions, eng, eng.Selection(), hub, logger.WithName("http")),
		grpc.NewServer(cfg.GrpcOptions, eng, logger.WithName("grpc")),
	}
	if mirror != nil {
		eng.SubscribeSnapshots(mirror)
		eng.SubscribeStatusChanges(mirror)
		servers = append(servers, outbox)
	}
	if cfg.ConsoleOptions != nil && cfg.ConsoleOptions.Enabled {
		out := cfg.Stdout
		if out == nil {
			out = os.Stdout
		}
		view := console.New(out, eng.Selection(), cfg.ConsoleOptions.MaxColWidth, logger.WithName("console"))
		eng.SubscribeSnapshots(view)
		servers = append(servers, view)
	}

	logger.Info("Dashboard configured", "riders", len(riders), "servers", len(servers),
		"mqtt", mirror != nil, "console", cfg.ConsoleOptions != nil && cfg.ConsoleOptions.Enabled)

	return &Dashboard{
		engine:  eng,
		manager: server.NewManager(servers...),
	}, nil
}
