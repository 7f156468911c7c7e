package topic

import (
	"strings"
)

// Builder constructs MQTT topic strings under a common root.
type Builder struct {
	// root is the base namespace for all topics (e.g., "ridertrack/v1").
	root string
	// share, when set, prefixes filters with $share/{group}/.
	share string
}

// NewBuilder creates a Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimSuffix(root, "/")}
}

// Root returns the root namespace.
func (b *Builder) Root() string { return b.root }

// Shared returns a copy of the builder whose wildcard filters join the given
// shared-subscription group.
func (b *Builder) Shared(group string) *Builder {
	return &Builder{root: b.root, share: group}
}

// Build returns {root}/{segment}/{id...}.
func (b *Builder) Build(segment string, ids ...string) string {
	parts := make([]string, 0, 2+len(ids))
	parts = append(parts, b.root, segment)
	parts = append(parts, ids...)
	return strings.Join(parts, "/")
}

// BuildWildcard returns the filter {root}/{segment}/+ (or the $share form).
func (b *Builder) BuildWildcard(segment string) string {
	filter := b.Build(segment, Wildcard)
	if b.share != "" {
		return "$share/" + b.share + "/" + filter
	}
	return filter
}

// RiderSnapshot is where the full snapshot is retained.
// Result: {root}/riders/snapshot
func (b *Builder) RiderSnapshot() string {
	return b.Build(SegmentRiders, SuffixSnapshot)
}

// RiderStatus carries status changes of a single rider.
// Result: {root}/riders/{riderID}/status
func (b *Builder) RiderStatus(riderID string) string {
	return b.Build(SegmentRiders, riderID, SuffixStatus)
}

// RiderNotifications carries notifications about the selected rider.
// Result: {root}/riders/{riderID}/notifications
func (b *Builder) RiderNotifications(riderID string) string {
	return b.Build(SegmentRiders, riderID, SuffixNotifications)
}

// RiderStatusWildcard matches the status topic of every rider.
// Result: {root}/riders/+/status
func (b *Builder) RiderStatusWildcard() string {
	return b.RiderStatus(Wildcard)
}

// EnginePresence holds "online" while the engine is connected; the broker
// replaces it with "offline" through the last will.
// Result: {root}/engine/online
func (b *Builder) EnginePresence() string {
	return b.Build(SegmentEngine, SuffixOnline)
}
