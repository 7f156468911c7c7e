package transition

import (
	"context"
	"math"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/internal/fleet/random"
	fsmutil "github.com/autopeer-io/ridertrack/internal/pkg/util/fsm"
)

const (
	// EventActivate moves a rider into the active state.
	EventActivate = "activate"
	// EventDeactivate parks a rider.
	EventDeactivate = "deactivate"
	// EventDisconnect takes a rider offline.
	EventDisconnect = "disconnect"
)

// eventFor maps a target status to the event that reaches it.
func eventFor(dst model.Status) string {
	switch dst {
	case model.StatusActive:
		return EventActivate
	case model.StatusInactive:
		return EventDeactivate
	default:
		return EventDisconnect
	}
}

// statusMachine is the rider status graph. Every status can reach every other
// one; a self transition is not an edge.
type statusMachine struct {
	*fsm.FSM
	rnd random.Source
}

func newStatusMachine(initial model.Status, rnd random.Source) *statusMachine {
	m := &statusMachine{rnd: rnd}

	active := string(model.StatusActive)
	inactive := string(model.StatusInactive)
	offline := string(model.StatusOffline)

	events := fsm.Events{
		{Name: EventActivate, Src: []string{inactive, offline}, Dst: active},
		{Name: EventDeactivate, Src: []string{active, offline}, Dst: inactive},
		{Name: EventDisconnect, Src: []string{active, inactive}, Dst: offline},
	}

	callbacks := fsm.Callbacks{
		"enter_" + active:   fsmutil.WrapEvent(m.actionEnterActive),
		"enter_" + inactive: fsmutil.WrapEvent(m.actionEnterInactive),
		"enter_" + offline:  fsmutil.WrapEvent(m.actionEnterOffline),
	}

	m.FSM = fsm.NewFSM(string(initial), events, callbacks)
	return m
}

// Resync speed to the conventions of the new status. These overwrite whatever
// telemetry did to the rider earlier in the tick.

func (m *statusMachine) actionEnterActive(_ context.Context, e *fsm.Event) error {
	rider, err := fsmutil.Arg[*model.Entity](e, 0)
	if err != nil {
		return err
	}
	rider.Status = model.StatusActive
	rider.Speed = math.Floor(random.Uniform(m.rnd, 0, 50)) + 10
	return nil
}

func (m *statusMachine) actionEnterInactive(_ context.Context, e *fsm.Event) error {
	rider, err := fsmutil.Arg[*model.Entity](e, 0)
	if err != nil {
		return err
	}
	rider.Status = model.StatusInactive
	rider.Speed = math.Floor(random.Uniform(m.rnd, 0, 5))
	return nil
}

func (m *statusMachine) actionEnterOffline(_ context.Context, e *fsm.Event) error {
	rider, err := fsmutil.Arg[*model.Entity](e, 0)
	if err != nil {
		return err
	}
	rider.Status = model.StatusOffline
	rider.Speed = 0
	return nil
}
