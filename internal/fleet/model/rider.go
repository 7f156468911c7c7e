package model

import (
	"fmt"
	"time"
)

// Status is the operational state of a rider.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusOffline  Status = "offline"
)

// Statuses lists every status in draw order. Uniform status draws index into it.
var Statuses = []Status{StatusActive, StatusInactive, StatusOffline}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOffline:
		return true
	}
	return false
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown rider status %q", s)
	}
	return st, nil
}

// Location is an abstract geo-coordinate in degrees.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Vehicle describes what a rider is riding. It never changes after seeding.
type Vehicle struct {
	Type  string `json:"type" yaml:"type"`
	Model string `json:"model" yaml:"model"`
	Color string `json:"color" yaml:"color"`
}

// Entity is a tracked rider.
//
// Entity has no reference fields; copies never share state.
type Entity struct {
	// ID is the unique, immutable identifier of the rider.
	ID string `json:"id" yaml:"id"`

	Name   string `json:"name" yaml:"name"`
	Avatar string `json:"avatar" yaml:"avatar"`

	Status   Status   `json:"status" yaml:"status"`
	Location Location `json:"location" yaml:"location"`

	// Speed is in km/h and never negative.
	Speed float64 `json:"speed" yaml:"speed"`

	// BatteryLevel is a percentage in [0, 100].
	BatteryLevel int `json:"batteryLevel" yaml:"batteryLevel"`

	// TotalDistance is in km.
	TotalDistance float64 `json:"totalDistance" yaml:"totalDistance"`

	// LastUpdated is the time of the most recent mutation.
	LastUpdated time.Time `json:"lastUpdated" yaml:"lastUpdated"`

	Vehicle Vehicle `json:"vehicle" yaml:"vehicle"`
}

// Validate checks the domain invariants that must hold for any stored entity.
func (e Entity) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("rider id is required")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("rider %s: unknown status %q", e.ID, e.Status)
	}
	if e.Speed < 0 {
		return fmt.Errorf("rider %s: negative speed %v", e.ID, e.Speed)
	}
	if e.BatteryLevel < 0 || e.BatteryLevel > 100 {
		return fmt.Errorf("rider %s: battery level %d out of range", e.ID, e.BatteryLevel)
	}
	if e.TotalDistance < 0 {
		return fmt.Errorf("rider %s: negative total distance %v", e.ID, e.TotalDistance)
	}
	return nil
}

// StatusChange is emitted when a rider's status actually changes.
type StatusChange struct {
	EntityID       string    `json:"entityId"`
	PreviousStatus Status    `json:"previousStatus"`
	NewStatus      Status    `json:"newStatus"`
	Timestamp      time.Time `json:"timestamp"`
}

// Notification is a user-facing message about the selected rider.
type Notification struct {
	ID          string        `json:"id"`
	EntityID    string        `json:"entityId"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Timestamp   time.Time     `json:"timestamp"`
	Duration    time.Duration `json:"duration"`
}
