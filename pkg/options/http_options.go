package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions configure the dashboard listener that serves the rider API,
// the selection endpoints, probes, metrics and the websocket stream.
type HttpOptions struct {
	Network string `json:"network" mapstructure:"network"`
	Addr    string `json:"addr" mapstructure:"addr"`

	// Timeout bounds reading request headers.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// ShutdownTimeout is how long in-flight requests get to finish on exit.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

func NewHttpOptions() *HttpOptions {
	return &HttpOptions{
		Network:         "tcp",
		Addr:            "0.0.0.0:8080",
		Timeout:         10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

func (o *HttpOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if err := ValidateNetwork(o.Network); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http: timeout must be positive, got %v", o.Timeout))
	}
	if o.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("http: shutdown timeout must not be negative, got %v", o.ShutdownTimeout))
	}
	return errs
}

func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Network, "http.network", o.Network, "Network of the dashboard listener.")
	fs.StringVar(&o.Addr, "http.addr", o.Addr, "Address of the dashboard API, probes, metrics and live stream.")
	fs.DurationVar(&o.Timeout, "http.timeout", o.Timeout, "Deadline for reading request headers.")
	fs.DurationVar(&o.ShutdownTimeout, "http.shutdown-timeout", o.ShutdownTimeout,
		"Grace period for in-flight requests when the dashboard exits.")
}
