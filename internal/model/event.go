package model

import "time"

type EventType string

const (
	EventCreate   EventType = "CREATE"
	EventWrite    EventType = "WRITE"
	EventRemove   EventType = "REMOVE"
	EventRename   EventType = "RENAME"
	EventOverflow EventType = "OVERFLOW"
)

// FileEvent is a raw notification from the host file-event subsystem.
type FileEvent struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

type Trigger string

const (
	TriggerInitial  Trigger = "initial"
	TriggerModified Trigger = "modified"
	TriggerDeleted  Trigger = "deleted"
	TriggerCreated  Trigger = "created"
	TriggerResync   Trigger = "resync"
	TriggerManual   Trigger = "manual"
)

// TriggerFor maps a raw event onto the reason a restore is requested.
// Overflowed queues may have hidden any change, so they count as a modification.
func TriggerFor(t EventType) Trigger {
	switch t {
	case EventCreate:
		return TriggerCreated
	case EventRemove, EventRename:
		return TriggerDeleted
	default:
		return TriggerModified
	}
}

type RestoreEvent struct {
	Target    WatchTarget
	Trigger   Trigger
	Timestamp time.Time
}

type RestoreOutcome struct {
	Target        WatchTarget
	Trigger       Trigger
	Success       bool
	BytesCopied   int64
	Unchanged     bool
	Repaired      bool
	SourceMissing bool
	Checksum      string
	Kind          ErrorKind
	Err           error
	Timestamp     time.Time
	Duration      time.Duration
}

func (o RestoreOutcome) Result() string {
	switch {
	case !o.Success:
		return "failed"
	case o.SourceMissing:
		return "source_missing"
	case o.Unchanged:
		return "unchanged"
	case o.Repaired:
		return "repaired"
	default:
		return "restored"
	}
}
