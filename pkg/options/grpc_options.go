package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*GrpcOptions)(nil)

// GrpcOptions configure the engine health service: where it listens, how
// often it samples the tick loop, and how long a health check may take.
// The listener is plaintext.
type GrpcOptions struct {
	Network string `json:"network" mapstructure:"network"`
	Addr    string `json:"addr" mapstructure:"addr"`

	// ProbeInterval is how often the served status is refreshed from the
	// engine.
	ProbeInterval time.Duration `json:"probe-interval" mapstructure:"probe-interval"`

	// Timeout bounds one health check RPC on the client side.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewGrpcOptions() *GrpcOptions {
	return &GrpcOptions{
		Network:       "tcp",
		Addr:          "0.0.0.0:8091",
		ProbeInterval: time.Second,
		Timeout:       5 * time.Second,
	}
}

func (o *GrpcOptions) Validate() []error {
	var errs []error
	if err := ValidateNetwork(o.Network); err != nil {
		errs = append(errs, fmt.Errorf("grpc: %w", err))
	}
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, fmt.Errorf("grpc: %w", err))
	}
	if o.ProbeInterval <= 0 {
		errs = append(errs, fmt.Errorf("grpc: probe interval must be positive, got %v", o.ProbeInterval))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("grpc: timeout must be positive, got %v", o.Timeout))
	}
	return errs
}

func (o *GrpcOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Network, "grpc.network", o.Network, "Network of the engine health service listener.")
	fs.StringVar(&o.Addr, "grpc.addr", o.Addr, "Address of the engine health service (grpc.health.v1).")
	fs.DurationVar(&o.ProbeInterval, "grpc.probe-interval", o.ProbeInterval,
		"How often the health service samples whether the tick loop is running.")
	fs.DurationVar(&o.Timeout, "grpc.timeout", o.Timeout, "Deadline for a single health check call.")
}
