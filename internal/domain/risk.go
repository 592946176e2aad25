package domain

import "time"

// MaxWearLevel caps the wear counter on item profiles.
const MaxWearLevel = 5

// InitialUserScore is the score assigned to a user profile on first contact.
// Deliberately below the AAA band so new users have room to earn trust.
const InitialUserScore = 85.0

// RiskGrade is one of ten bands derived from a 0-100 score, descending.
type RiskGrade string

const (
	GradeAAA RiskGrade = "AAA"
	GradeAA  RiskGrade = "AA"
	GradeA   RiskGrade = "A"
	GradeBBB RiskGrade = "BBB"
	GradeBB  RiskGrade = "BB"
	GradeB   RiskGrade = "B"
	GradeCCC RiskGrade = "CCC"
	GradeCC  RiskGrade = "CC"
	GradeC   RiskGrade = "C"
	GradeD   RiskGrade = "D"
)

// GradeFromScore maps a clamped 0-100 score onto the ten-band scale.
// Band edges are inclusive at the lower bound: 90 is AAA, 89.999 is AA.
func GradeFromScore(score float64) RiskGrade {
	switch {
	case score >= 90:
		return GradeAAA
	case score >= 80:
		return GradeAA
	case score >= 70:
		return GradeA
	case score >= 60:
		return GradeBBB
	case score >= 55:
		return GradeBB
	case score >= 50:
		return GradeB
	case score >= 45:
		return GradeCCC
	case score >= 40:
		return GradeCC
	case score >= 35:
		return GradeC
	default:
		return GradeD
	}
}

// RiskEvent is a single entry in a profile's append-only event log. Events are
// recorded even when rejected by the attestation gate, as an audit trail.
type RiskEvent struct {
	Timestamp time.Time      `json:"ts"`
	Type      string         `json:"type"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// ItemProfile accumulates condition and logistics counters for a rentable item.
type ItemProfile struct {
	TokenID        string      `json:"token_id"`
	Title          string      `json:"title"`
	WearLevel      int         `json:"wear_level"`
	Cleans30d      int         `json:"cleans_30d"`
	LateDeliveries int         `json:"late_deliveries"`
	Returns        int         `json:"returns"`
	Events         []RiskEvent `json:"events"`
}

// RiskScore computes the item's reliability score from its counters:
// condition (wear) plus logistics issues, clamped to [0, 100].
func (p ItemProfile) RiskScore() float64 {
	score := 100 - 10*float64(p.WearLevel) - 5*float64(p.Cleans30d) -
		3*float64(p.LateDeliveries) - 4*float64(p.Returns)
	return ClampScore(score)
}

// UserProfile accumulates a reliability score over a user's event history.
type UserProfile struct {
	UserID string      `json:"user_id"`
	Score  float64     `json:"score"`
	Events []RiskEvent `json:"events"`
}

// ClampScore bounds a score to the [0, 100] range.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
