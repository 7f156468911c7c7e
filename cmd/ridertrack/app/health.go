package app

import (
	"fmt"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/autopeer-io/ridertrack/internal/dashboard/server/grpc"
	pkgoptions "github.com/autopeer-io/ridertrack/pkg/options"
)

func newHealthCommand() *cobra.Command {
	opts := pkgoptions.NewGrpcOptions()
	opts.Addr = "127.0.0.1:8091"

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check whether a running dashboard is ticking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := grpc.Check(cmd.Context(), opts.Addr, opts.Timeout)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.String())
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("engine is %s", status)
			}
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
