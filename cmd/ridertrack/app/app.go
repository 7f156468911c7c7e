package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/term"

	"github.com/autopeer-io/ridertrack/cmd/ridertrack/app/options"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

const (
	commandName = "ridertrack"
	commandDesc = `ridertrack simulates a fleet of riders and keeps a consistent view of
them: every tick it moves active riders, occasionally changes one rider's
status, and publishes a snapshot to the HTTP API, the websocket stream and,
when enabled, an MQTT broker and the terminal.`
)

// NewRiderTrackCommand returns the root command. ctx ends the dashboard.
func NewRiderTrackCommand(ctx context.Context) *cobra.Command {
	opts := options.NewRiderTrackOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:          commandName,
		Short:        "Run the rider fleet dashboard",
		Long:         commandDesc,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := loadConfig(v, configFile, cmd.Flags(), opts); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			log.Init(opts.Log)
			defer log.Sync()

			return run(ctx, v, configFile, opts)
		},
	}

	fs := cmd.Flags()
	namedfs := opts.Flags()
	globalflag.AddGlobalFlags(namedfs.FlagSet("global"), cmd.Name())
	namedfs.FlagSet("global").StringVarP(&configFile, "config", "c", configFile,
		"Optional YAML config file. Its sim section is reloaded when the file changes.")
	for _, f := range namedfs.FlagSets {
		fs.AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, namedfs, cols)

	cmd.AddCommand(newSeedCommand(), newHealthCommand())
	return cmd
}

func run(ctx context.Context, v *viper.Viper, configFile string, opts *options.RiderTrackOptions) error {
	cfg, err := opts.Config()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	d, err := cfg.NewDashboard()
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	if configFile != "" {
		watchSimulation(v, d.Engine())
	}

	return d.Run(ctx)
}
