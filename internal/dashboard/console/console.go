// Package console renders the rider list as a table on a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/ridertrack/internal/fleet/model"
	"github.com/autopeer-io/ridertrack/pkg/log"
)

// Selection reports the focused rider.
type Selection interface {
	Selected() (string, bool)
}

// Console prints the latest snapshot. It only keeps the newest pending
// snapshot, so a slow terminal skips frames instead of slowing ticks.
type Console struct {
	out         io.Writer
	selection   Selection
	maxColWidth uint
	log         log.Logger

	pending chan model.Snapshot
}

func New(out io.Writer, selection Selection, maxColWidth uint, logger log.Logger) *Console {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Console{
		out:         out,
		selection:   selection,
		maxColWidth: maxColWidth,
		log:         logger,
		pending:     make(chan model.Snapshot, 1),
	}
}

// OnSnapshot implements publisher.SnapshotSubscriber.
func (c *Console) OnSnapshot(_ context.Context, snap model.Snapshot) {
	for {
		select {
		case c.pending <- snap:
			return
		default:
		}
		// Replace the stale frame.
		select {
		case <-c.pending:
		default:
		}
	}
}

// Start renders frames until ctx is done.
func (c *Console) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-c.pending:
			selected := ""
			if c.selection != nil {
				selected, _ = c.selection.Selected()
			}
			if _, err := io.WriteString(c.out, Render(snap, selected, c.maxColWidth, time.Now())); err != nil {
				c.log.Error(err, "Failed to render rider table")
			}
		}
	}
}

// Render formats snap as a summary line followed by one row per rider. The
// selected rider is marked with '>'.
func Render(snap model.Snapshot, selected string, maxColWidth uint, now time.Time) string {
	counts := snap.Counts()
	var b strings.Builder
	fmt.Fprintf(&b, "tick %d  all %d  active %d  inactive %d  offline %d\n",
		snap.Seq(), snap.Len(),
		counts[model.StatusActive], counts[model.StatusInactive], counts[model.StatusOffline])

	table := uitable.New()
	if maxColWidth > 0 {
		table.MaxColWidth = maxColWidth
	}
	table.AddRow("", "ID", "NAME", "STATUS", "SPEED", "BATTERY", "POSITION", "VEHICLE", "UPDATED")
	for _, e := range snap.Entities() {
		mark := ""
		if e.ID == selected {
			mark = ">"
		}
		table.AddRow(mark, e.ID, e.Name, e.Status,
			fmt.Sprintf("%.0f km/h", e.Speed),
			fmt.Sprintf("%d%%", e.BatteryLevel),
			fmt.Sprintf("%.4f,%.4f", e.Location.Lat, e.Location.Lng),
			e.Vehicle.Type,
			model.FormatSince(e.LastUpdated, now))
	}
	b.WriteString(table.String())
	b.WriteString("\n")
	return b.String()
}
