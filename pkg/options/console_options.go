package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ConsoleOptions)(nil)

// ConsoleOptions controls the terminal rider table.
type ConsoleOptions struct {
	// Enabled prints the rider table after every tick.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// MaxColWidth truncates wide cells.
	MaxColWidth uint `json:"max-col-width" mapstructure:"max-col-width"`
}

// NewConsoleOptions returns the console view disabled.
func NewConsoleOptions() *ConsoleOptions {
	return &ConsoleOptions{MaxColWidth: 24}
}

// Validate checks the column width.
func (o *ConsoleOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}
	if o.MaxColWidth == 0 {
		return []error{fmt.Errorf("--console.max-col-width must be > 0")}
	}
	return nil
}

// AddFlags adds flags for ConsoleOptions to the specified FlagSet.
func (o *ConsoleOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "console.enabled", o.Enabled, "Print the rider table to stdout after every tick.")
	fs.UintVar(&o.MaxColWidth, "console.max-col-width", o.MaxColWidth, "Maximum width of a console table column.")
}
