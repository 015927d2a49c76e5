package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (scope, key). Scope names the route the key was used on (e.g.
// "POST /api/v1/chat/messages"), so the same key may be reused on other
// routes. It enables safe retries of POST operations by
// returning the originally produced resource without re-executing side
// effects.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	ResourceID string    `gorm:"type:TEXT NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:TIMESTAMP NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:TIMESTAMP NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
