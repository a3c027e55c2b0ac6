package model

import "time"

type TargetSnapshot struct {
	Name         string     `json:"name"`
	Source       string     `json:"source"`
	Target       string     `json:"target"`
	State        string     `json:"state"`
	StartedAt    time.Time  `json:"started_at"`
	Restored     int        `json:"restored"`
	Unchanged    int        `json:"unchanged"`
	Failed       int        `json:"failed"`
	Lost         int        `json:"subscriptions_lost"`
	LastResult   string     `json:"last_result"`
	LastError    string     `json:"last_error,omitempty"`
	LastChecksum string     `json:"last_checksum,omitempty"`
	LastRestore  *time.Time `json:"last_restore"`
}
