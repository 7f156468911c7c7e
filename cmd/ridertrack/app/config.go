package app

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/ridertrack/cmd/ridertrack/app/options"
	"github.com/autopeer-io/ridertrack/internal/fleet/engine"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

// loadConfig layers the optional config file under the command-line flags and
// decodes the result into opts. Explicitly set flags win over the file; the
// file wins over flag defaults.
func loadConfig(v *viper.Viper, path string, fs *pflag.FlagSet, opts *options.RiderTrackOptions) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

type tuningSetter interface {
	SetTuning(engine.Tuning) error
}

// reloadSimulation re-decodes the configuration and hands the sim section to
// the engine. Other sections only apply on restart.
func reloadSimulation(v *viper.Viper, eng tuningSetter) error {
	fresh := options.NewRiderTrackOptions()
	if err := v.Unmarshal(fresh); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if errs := fresh.SimOptions.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid sim configuration: %v", errs)
	}
	return eng.SetTuning(options.Tuning(fresh.SimOptions))
}

// watchSimulation hot-reloads the sim section whenever the config file changes.
func watchSimulation(v *viper.Viper, eng tuningSetter) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if err := reloadSimulation(v, eng); err != nil {
			log.Error(err, "Ignoring config change", "file", e.Name)
			return
		}
		log.Info("Simulation tuning reloaded", "file", e.Name)
	})
	v.WatchConfig()
}
