package store

import (
	"database/sql"
	"sync"
	"time"
)

// store handles all database operations.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// MatchFilter narrows ListMatches. Zero values match everything.
type MatchFilter struct {
	LeagueID string
	// OfficialID keeps matches where the user is the referee or the observer.
	OfficialID string
	From       time.Time
	To         time.Time
}
