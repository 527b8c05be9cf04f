package domain

import "time"

// Audit is the composed audit value embedded in every persisted entity.
// It replaces a base-entity hierarchy: no polymorphic dispatch happens over
// entities, so plain composition is enough.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAudit stamps both audit fields with the same creation instant.
func NewAudit(now time.Time) Audit {
	return Audit{CreatedAt: now, UpdatedAt: now}
}

// Touch records a modification instant. CreatedAt never changes.
func (a *Audit) Touch(now time.Time) {
	a.UpdatedAt = now
}
