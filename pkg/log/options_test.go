package log

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Options)
		wantErrs int
	}{
		{"defaults", func(*Options) {}, 0},
		{"json debug", func(o *Options) { o.Level, o.Format = "debug", "json" }, 0},
		{"unknown level", func(o *Options) { o.Level = "chatty" }, 1},
		{"unknown format", func(o *Options) { o.Format = "logfmt" }, 1},
		{"everything wrong", func(o *Options) { o.Level, o.Format, o.CallerSkip = "", "xml", -1 }, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			if errs := o.Validate(); len(errs) != tt.wantErrs {
				t.Fatalf("Validate() = %v, want %d errors", errs, tt.wantErrs)
			}
		})
	}
}

func TestOptionsFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	if err := fs.Parse([]string{"--log.level=debug", "--log.format=json", "--log.output-paths=stderr"}); err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	if o.Level != "debug" || o.Format != "json" || len(o.OutputPaths) != 1 || o.OutputPaths[0] != "stderr" {
		t.Fatalf("flags not bound: %+v", o)
	}
}
