package db

import (
	"time"
)

// Entry is a single journal post as persisted in the entries table.
type Entry struct {
	ID      int64
	Title   string
	Text    string
	Created time.Time
}
