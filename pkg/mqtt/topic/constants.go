package topic

// Standard MQTT wildcard definitions.
const (
	// Wildcard is the single-level wildcard "+".
	// Example: "sensors/+/temperature" matches "sensors/room1/temperature".
	Wildcard = "+"

	// MultiWildcard is the multi-level wildcard "#". It must be the last level.
	MultiWildcard = "#"
)

// Topic segments of the rider feed.
const (
	// SegmentRiders groups everything about riders.
	SegmentRiders = "riders"
	// SegmentEngine carries engine presence.
	SegmentEngine = "engine"

	SuffixSnapshot      = "snapshot"
	SuffixStatus        = "status"
	SuffixNotifications = "notifications"
	SuffixOnline        = "online"
)
