package replica

// State is where a collection stands relative to its remote document.
type State int

const (
	// Unsynced: no remote subscription. Writes stay local.
	Unsynced State = iota
	// AwaitingFirstSnapshot: subscribed, local hydrated, nothing received yet.
	AwaitingFirstSnapshot
	// Synced: at least one snapshot received; remote is authoritative.
	Synced
)

func (s State) String() string {
	switch s {
	case Unsynced:
		return "unsynced"
	case AwaitingFirstSnapshot:
		return "awaiting_first_snapshot"
	case Synced:
		return "synced"
	default:
		return "unknown"
	}
}

// Decision is the outcome of reconciling the first snapshot with local content.
type Decision int

const (
	AdoptRemote Decision = iota
	PushLocal
)

func (d Decision) String() string {
	if d == PushLocal {
		return "push_local"
	}
	return "adopt_remote"
}

// Decide applies the first-snapshot rule: a non-empty local collection that is strictly
// larger than the remote one is pushed; anything else, ties included, adopts remote.
func Decide(localLen, remoteLen int) Decision {
	if localLen > 0 && localLen > remoteLen {
		return PushLocal
	}
	return AdoptRemote
}
