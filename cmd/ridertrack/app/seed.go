package app

import (
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/ridertrack/cmd/ridertrack/app/options"
	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	"github.com/autopeer-io/ridertrack/internal/fleet/seed"
	pkgoptions "github.com/autopeer-io/ridertrack/pkg/options"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
)

func newSeedCommand() *cobra.Command {
	opts := pkgoptions.NewSeedOptions()
	var (
		output     string
		randomSeed uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate an initial rider set",
		Long: `Generate riders the way the dashboard does at startup and print them.
The yaml output can be passed back with --seed.file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			errs := opts.Validate()
			if output != outputTable && output != outputYAML {
				errs = append(errs, fmt.Errorf("--output must be %q or %q", outputTable, outputYAML))
			}
			if err := utilerrors.NewAggregate(errs); err != nil {
				return err
			}

			riders, err := loadRiders(opts, randomSeed, time.Now())
			if err != nil {
				return err
			}
			return printRiders(cmd.OutOrStdout(), riders, output, time.Now())
		},
	}

	opts.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table or yaml.")
	cmd.Flags().Uint64Var(&randomSeed, "random-seed", 0, "Seed for the generator; 0 picks one from the clock.")
	return cmd
}

func loadRiders(opts *pkgoptions.SeedOptions, randomSeed uint64, now time.Time) ([]model.Entity, error) {
	if opts.File != "" {
		return seed.LoadFile(opts.File)
	}
	return seed.Generate(options.SeedConfig(opts), random.New(randomSeed), now), nil
}

func printRiders(w io.Writer, riders []model.Entity, output string, now time.Time) error {
	if output == outputYAML {
		return seed.Write(w, riders)
	}

	table := uitable.New()
	table.MaxColWidth = 32
	table.AddRow("ID", "NAME", "STATUS", "SPEED", "BATTERY", "VEHICLE", "POSITION", "UPDATED")
	for _, r := range riders {
		table.AddRow(r.ID, r.Name, r.Status,
			fmt.Sprintf("%.0f km/h", r.Speed),
			fmt.Sprintf("%d%%", r.BatteryLevel),
			fmt.Sprintf("%s %s (%s)", r.Vehicle.Color, r.Vehicle.Model, r.Vehicle.Type),
			fmt.Sprintf("%.4f,%.4f", r.Location.Lat, r.Location.Lng),
			model.FormatSince(r.LastUpdated, now))
	}
	_, err := fmt.Fprintln(w, table)
	return err
}
