package models

import "time"

// LevelRecord is the leveling state of one user on one guild.
// Level is always derived from XP by the level engine.
type LevelRecord struct {
	XP            int64
	Level         int
	LastMessageAt *time.Time
}

// Copy returns a record that shares no memory with r.
func (r LevelRecord) Copy() LevelRecord {
	if r.LastMessageAt != nil {
		t := *r.LastMessageAt
		r.LastMessageAt = &t
	}
	return r
}
