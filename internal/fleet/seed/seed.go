// Package seed produces the initial rider set: either generated around a
// centre point or loaded from a YAML file.
package seed

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
)

// kmPerDegreeLat is the approximate length of one degree of latitude.
const kmPerDegreeLat = 111.32

type vehicleType struct {
	Type   string
	Models []string
}

var (
	vehicleCatalogue = []vehicleType{
		{Type: "Scooter", Models: []string{"Xiaomi Pro 2", "Segway Ninebot Max", "Inokim OX"}},
		{Type: "Bike", Models: []string{"Trek FX 3", "Specialized Sirrus", "Giant Escape"}},
		{Type: "Motorcycle", Models: []string{"Honda CB300R", "Yamaha MT-03", "KTM Duke 390"}},
		{Type: "Car", Models: []string{"Toyota Prius", "Honda Civic", "Tesla Model 3"}},
	}

	vehicleColors = []string{"Black", "White", "Silver", "Blue", "Red", "Green"}
)

// Weights is the relative frequency of each initial status.
type Weights struct {
	Active   int `json:"active" mapstructure:"active"`
	Inactive int `json:"inactive" mapstructure:"inactive"`
	Offline  int `json:"offline" mapstructure:"offline"`
}

func (w Weights) total() int { return w.Active + w.Inactive + w.Offline }

// Config controls generation.
type Config struct {
	Count    int
	Center   model.Location
	RadiusKm float64
	Weights  Weights
}

// DefaultConfig is 20 riders within 10 km of New York City, three times as
// many active as inactive or offline.
func DefaultConfig() Config {
	return Config{
		Count:    20,
		Center:   model.Location{Lat: 40.7128, Lng: -74.0060},
		RadiusKm: 10,
		Weights:  Weights{Active: 3, Inactive: 1, Offline: 1},
	}
}

// Validate returns every problem with c.
func (c Config) Validate() []error {
	var errs []error
	if c.Count < 0 {
		errs = append(errs, fmt.Errorf("rider count must be >= 0, got %d", c.Count))
	}
	if c.RadiusKm < 0 {
		errs = append(errs, fmt.Errorf("radius must be >= 0, got %v", c.RadiusKm))
	}
	if c.Center.Lat < -90 || c.Center.Lat > 90 || c.Center.Lng < -180 || c.Center.Lng > 180 {
		errs = append(errs, fmt.Errorf("centre %v is not a valid coordinate", c.Center))
	}
	w := c.Weights
	if w.Active < 0 || w.Inactive < 0 || w.Offline < 0 {
		errs = append(errs, fmt.Errorf("status weights must be >= 0, got %+v", w))
	} else if w.total() == 0 {
		errs = append(errs, fmt.Errorf("at least one status weight must be positive"))
	}
	return errs
}

// Generate returns cfg.Count riders named rider-1 .. rider-N.
func Generate(cfg Config, rnd random.Source, now time.Time) []model.Entity {
	riders := make([]model.Entity, 0, cfg.Count)
	for i := 1; i <= cfg.Count; i++ {
		vt := vehicleCatalogue[rnd.IntN(len(vehicleCatalogue))]
		vehicle := model.Vehicle{
			Type:  vt.Type,
			Model: vt.Models[rnd.IntN(len(vt.Models))],
			Color: vehicleColors[rnd.IntN(len(vehicleColors))],
		}

		status := drawStatus(cfg.Weights, rnd)
		riders = append(riders, model.Entity{
			ID:            fmt.Sprintf("rider-%d", i),
			Name:          fmt.Sprintf("Rider %d", i),
			Avatar:        fmt.Sprintf("https://i.pravatar.cc/150?img=%d", (i-1)%70+1),
			Status:        status,
			Location:      randomLocation(cfg.Center, cfg.RadiusKm, rnd),
			LastUpdated:   now.Add(-time.Duration(rnd.IntN(60)) * time.Minute),
			Speed:         initialSpeed(status, rnd),
			BatteryLevel:  rnd.IntN(100),
			TotalDistance: float64(rnd.IntN(1000) + 100),
			Vehicle:       vehicle,
		})
	}
	return riders
}

func drawStatus(w Weights, rnd random.Source) model.Status {
	n := rnd.IntN(w.total())
	switch {
	case n < w.Active:
		return model.StatusActive
	case n < w.Active+w.Inactive:
		return model.StatusInactive
	default:
		return model.StatusOffline
	}
}

func initialSpeed(status model.Status, rnd random.Source) float64 {
	switch status {
	case model.StatusActive:
		return float64(rnd.IntN(50) + 10)
	case model.StatusInactive:
		return float64(rnd.IntN(5))
	default:
		return 0
	}
}

func randomLocation(center model.Location, radiusKm float64, rnd random.Source) model.Location {
	radiusLat := radiusKm / kmPerDegreeLat
	radiusLng := radiusKm / (kmPerDegreeLat * math.Cos(center.Lat*math.Pi/180))
	return model.Location{
		Lat: center.Lat + random.Uniform(rnd, -radiusLat, radiusLat),
		Lng: center.Lng + random.Uniform(rnd, -radiusLng, radiusLng),
	}
}

// File is the on-disk seed format.
type File struct {
	Riders []model.Entity `yaml:"riders"`
}

// Load decodes a seed file from r.
func Load(r io.Reader) ([]model.Entity, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	for i, e := range f.Riders {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("seed rider #%d: %w", i, err)
		}
	}
	return f.Riders, nil
}

// LoadFile reads a seed file from path.
func LoadFile(path string) ([]model.Entity, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Load(fh)
}

// Write encodes riders in the seed file format.
func Write(w io.Writer, riders []model.Entity) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Riders: riders}); err != nil {
		return err
	}
	return enc.Close()
}
