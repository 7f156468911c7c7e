package options

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:8080", false},
		{":8091", false},
		{"localhost:1883", false},
		{"[::1]:9000", false},
		{"8080", true},
		{"host:http", true},
		{"host:70000", true},
		{"bad host!:80", true},
	}
	for _, tt := range tests {
		if err := ValidateAddress(tt.addr); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) err=%v, wantErr=%v", tt.addr, err, tt.wantErr)
		}
	}
}

func TestSimulationOptionsFlags(t *testing.T) {
	o := NewSimulationOptions()
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("defaults invalid: %v", errs)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	if err := fs.Parse([]string{"--sim.tick-interval=500ms", "--sim.transition-probability=1", "--sim.random-seed=42"}); err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	if o.TickInterval != 500*time.Millisecond || o.TransitionProbability != 1 || o.RandomSeed != 42 {
		t.Fatalf("flags not bound: %+v", o)
	}

	o.TickInterval = 0
	o.SpeedJitterStep = -1
	o.BatteryDrainProbability = 1.2
	if errs := o.Validate(); len(errs) != 3 {
		t.Fatalf("Validate() = %v, want 3 errors", errs)
	}
}

func TestSeedOptionsValidate(t *testing.T) {
	o := NewSeedOptions()
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("defaults invalid: %v", errs)
	}
	o.ActiveWeight, o.InactiveWeight, o.OfflineWeight = 0, 0, 0
	if errs := o.Validate(); len(errs) != 1 {
		t.Fatalf("Validate() = %v, want 1 error", errs)
	}
	o.File = "riders.yaml"
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("generator options validated despite seed file: %v", errs)
	}
}

func TestMqttOptionsOnlyValidatedWhenEnabled(t *testing.T) {
	o := NewMqttOptions()
	o.Broker = ""
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("disabled MQTT validated: %v", errs)
	}
	o.Enabled = true
	if errs := o.Validate(); len(errs) != 1 {
		t.Fatalf("Validate() = %v, want 1 error", errs)
	}
	o.Broker = "tcp://broker:1883"
	cfg := o.ToClientConfig()
	if cfg.BrokerURL != o.Broker || cfg.KeepAlive != 60 {
		t.Fatalf("ToClientConfig() = %+v", cfg)
	}
}

func TestListenerOptionsValidate(t *testing.T) {
	if errs := NewHttpOptions().Validate(); len(errs) != 0 {
		t.Fatalf("http defaults invalid: %v", errs)
	}
	if errs := NewGrpcOptions().Validate(); len(errs) != 0 {
		t.Fatalf("grpc defaults invalid: %v", errs)
	}

	h := NewHttpOptions()
	h.Network = "udp"
	h.Timeout = 0
	h.ShutdownTimeout = -time.Second
	if errs := h.Validate(); len(errs) != 3 {
		t.Fatalf("http Validate() = %v, want 3 errors", errs)
	}

	g := NewGrpcOptions()
	g.Network = "unix"
	g.Addr = "8091"
	g.ProbeInterval = 0
	g.Timeout = -1
	if errs := g.Validate(); len(errs) != 4 {
		t.Fatalf("grpc Validate() = %v, want 4 errors", errs)
	}
}

func TestGrpcOptionsFlags(t *testing.T) {
	o := NewGrpcOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	if err := fs.Parse([]string{"--grpc.addr=127.0.0.1:9000", "--grpc.probe-interval=250ms", "--grpc.timeout=2s"}); err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	if o.Addr != "127.0.0.1:9000" || o.ProbeInterval != 250*time.Millisecond || o.Timeout != 2*time.Second {
		t.Fatalf("flags not bound: %+v", o)
	}
}
