package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/ridertrack/internal/dashboard"
	"github.com/autopeer-io/ridertrack/internal/fleet/engine"
	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/seed"
	"github.com/autopeer-io/ridertrack/internal/fleet/telemetry"
	"github.com/autopeer-io/ridertrack/pkg/log"
	"github.com/autopeer-io/ridertrack/pkg/options"
)

type RiderTrackOptions struct {
	SimOptions     *options.SimulationOptions `json:"sim" mapstructure:"sim"`
	SeedOptions    *options.SeedOptions       `json:"seed" mapstructure:"seed"`
	HttpOptions    *options.HttpOptions       `json:"http" mapstructure:"http"`
	GrpcOptions    *options.GrpcOptions       `json:"grpc" mapstructure:"grpc"`
	MqttOptions    *options.MqttOptions       `json:"mqtt" mapstructure:"mqtt"`
	ConsoleOptions *options.ConsoleOptions    `json:"console" mapstructure:"console"`
	Log            *log.Options               `json:"log" mapstructure:"log"`
}

func NewRiderTrackOptions() *RiderTrackOptions {
	return &RiderTrackOptions{
		SimOptions:     options.NewSimulationOptions(),
		SeedOptions:    options.NewSeedOptions(),
		HttpOptions:    options.NewHttpOptions(),
		GrpcOptions:    options.NewGrpcOptions(),
		MqttOptions:    options.NewMqttOptions(),
		ConsoleOptions: options.NewConsoleOptions(),
		Log:            log.NewOptions(),
	}
}

func (o *RiderTrackOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.SimOptions.AddFlags(fss.FlagSet("sim"))
	o.SeedOptions.AddFlags(fss.FlagSet("seed"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.GrpcOptions.AddFlags(fss.FlagSet("grpc"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.ConsoleOptions.AddFlags(fss.FlagSet("console"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *RiderTrackOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.SimOptions.Validate()...)
	errs = append(errs, o.SeedOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.GrpcOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.ConsoleOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *RiderTrackOptions) Config() (*dashboard.Config, error) {
	return &dashboard.Config{
		SeedFile:       o.SeedOptions.File,
		Seed:           SeedConfig(o.SeedOptions),
		Tuning:         Tuning(o.SimOptions),
		RandomSeed:     o.SimOptions.RandomSeed,
		HttpOptions:    o.HttpOptions,
		GrpcOptions:    o.GrpcOptions,
		MqttOptions:    o.MqttOptions,
		ConsoleOptions: o.ConsoleOptions,
	}, nil
}

// Tuning converts simulation options to engine tuning.
func Tuning(o *options.SimulationOptions) engine.Tuning {
	return engine.Tuning{
		TickInterval: o.TickInterval,
		Telemetry: telemetry.Config{
			PositionJitterDeg:       o.PositionJitterDeg,
			SpeedJitterStep:         o.SpeedJitterStep,
			SpeedChangeProbability:  o.SpeedChangeProbability,
			BatteryDrainProbability: o.BatteryDrainProbability,
		},
		TransitionProbability: o.TransitionProbability,
	}
}

// SeedConfig converts seed options to generator configuration.
func SeedConfig(o *options.SeedOptions) seed.Config {
	return seed.Config{
		Count:    o.Count,
		Center:   model.Location{Lat: o.CenterLat, Lng: o.CenterLng},
		RadiusKm: o.RadiusKm,
		Weights: seed.Weights{
			Active:   o.ActiveWeight,
			Inactive: o.InactiveWeight,
			Offline:  o.OfflineWeight,
		},
	}
}
