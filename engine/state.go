package engine

// State is where a view's toolbar is in its lifecycle
type State int

const (
	Absent State = iota
	Rendering
	Rendered
	Stale
)

func (s State) String() string {
	switch s {
	case Rendering:
		return "rendering"
	case Rendered:
		return "rendered"
	case Stale:
		return "stale"
	}
	return "absent"
}

// Outcome reports what a reconciliation pass did
type Outcome string

const (
	// OutcomeNone: no toolbar applies and none was showing
	OutcomeNone Outcome = "none"
	// OutcomeRendered: a toolbar was inserted where none was
	OutcomeRendered Outcome = "rendered"
	// OutcomeRebuilt: a stale toolbar was removed and replaced
	OutcomeRebuilt Outcome = "rebuilt"
	// OutcomePatched: the toolbar was current; only in-place updates ran
	OutcomePatched Outcome = "patched"
	// OutcomeRemoved: a toolbar was showing but none applies now
	OutcomeRemoved Outcome = "removed"
	// OutcomeDropped: another pass for the same view was in flight
	OutcomeDropped Outcome = "dropped"
)

// Trigger names the host event that started a pass
type Trigger string

const (
	TriggerFileOpen   Trigger = "file-open"
	TriggerMetadata   Trigger = "metadata-changed"
	TriggerLeafChange Trigger = "active-leaf-change"
	TriggerLayout     Trigger = "layout-change"
	TriggerCSS        Trigger = "css-change"
	TriggerSettings   Trigger = "settings-changed"
	TriggerManual     Trigger = "manual"
)
