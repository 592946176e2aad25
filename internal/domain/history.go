package domain

import "time"

// RentalEvent is a single entry in the append-only rental audit log.
type RentalEvent struct {
	Type      string    `json:"type"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"ts"`
	TokenID   string    `json:"token_id"`
	Location  string    `json:"location,omitempty"`
	BondID    string    `json:"bond_id"`
}
