package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SeedOptions)(nil)

// SeedOptions selects where the initial rider set comes from.
type SeedOptions struct {
	// File is a YAML seed file. When empty, riders are generated.
	File string `json:"file" mapstructure:"file"`

	Count     int     `json:"count" mapstructure:"count"`
	CenterLat float64 `json:"center-lat" mapstructure:"center-lat"`
	CenterLng float64 `json:"center-lng" mapstructure:"center-lng"`
	RadiusKm  float64 `json:"radius-km" mapstructure:"radius-km"`

	// Relative frequency of each generated status.
	ActiveWeight   int `json:"active-weight" mapstructure:"active-weight"`
	InactiveWeight int `json:"inactive-weight" mapstructure:"inactive-weight"`
	OfflineWeight  int `json:"offline-weight" mapstructure:"offline-weight"`
}

// NewSeedOptions returns 20 riders around New York City.
func NewSeedOptions() *SeedOptions {
	return &SeedOptions{
		Count:          20,
		CenterLat:      40.7128,
		CenterLng:      -74.0060,
		RadiusKm:       10,
		ActiveWeight:   3,
		InactiveWeight: 1,
		OfflineWeight:  1,
	}
}

// Validate checks the generator parameters. They are ignored when File is set.
func (o *SeedOptions) Validate() []error {
	if o == nil || o.File != "" {
		return nil
	}

	errors := []error{}

	if o.Count < 0 {
		errors = append(errors, fmt.Errorf("--seed.count must be >= 0"))
	}
	if o.RadiusKm < 0 {
		errors = append(errors, fmt.Errorf("--seed.radius-km must be >= 0"))
	}
	if o.CenterLat < -90 || o.CenterLat > 90 || o.CenterLng < -180 || o.CenterLng > 180 {
		errors = append(errors, fmt.Errorf("--seed.center-lat/--seed.center-lng out of range"))
	}
	if o.ActiveWeight < 0 || o.InactiveWeight < 0 || o.OfflineWeight < 0 ||
		o.ActiveWeight+o.InactiveWeight+o.OfflineWeight == 0 {
		errors = append(errors, fmt.Errorf("status weights must be >= 0 and not all zero"))
	}

	return errors
}

// AddFlags adds flags for SeedOptions to the specified FlagSet.
func (o *SeedOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.File, "seed.file", o.File, "YAML file with the initial riders. Overrides generation.")
	fs.IntVar(&o.Count, "seed.count", o.Count, "Number of riders to generate.")
	fs.Float64Var(&o.CenterLat, "seed.center-lat", o.CenterLat, "Latitude riders are generated around.")
	fs.Float64Var(&o.CenterLng, "seed.center-lng", o.CenterLng, "Longitude riders are generated around.")
	fs.Float64Var(&o.RadiusKm, "seed.radius-km", o.RadiusKm, "Radius in km riders are scattered within.")
	fs.IntVar(&o.ActiveWeight, "seed.active-weight", o.ActiveWeight, "Relative weight of the active status.")
	fs.IntVar(&o.InactiveWeight, "seed.inactive-weight", o.InactiveWeight, "Relative weight of the inactive status.")
	fs.IntVar(&o.OfflineWeight, "seed.offline-weight", o.OfflineWeight, "Relative weight of the offline status.")
}
