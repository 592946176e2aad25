package domain

import "time"

// BondWindow is the redemption window granted to a freshly purchased bond.
const BondWindow = 90 * 24 * time.Hour

// RedemptionReward is the flat points credit issued per successful redemption.
const RedemptionReward = 10

// BondStatus is the lifecycle state of a rental bond. Exhausted and Expired
// are terminal; there is no transition out of either.
type BondStatus string

const (
	BondActive    BondStatus = "active"
	BondExhausted BondStatus = "exhausted"
	BondExpired   BondStatus = "expired"
)

// Redemption records consumption of one rental from a bond's bundle.
// Entries are append-only and immutable once written.
type Redemption struct {
	Timestamp time.Time `json:"ts"`
	TokenID   string    `json:"token_id"`
	Location  string    `json:"location,omitempty"`
}

// Bond is a pre-paid bundle of rentals sold at a computed fair value.
// BundleLeft never goes negative; redemptions against an expired or
// exhausted bond must fail. Bonds are never deleted, only left inert.
type Bond struct {
	BondID      string        `json:"bond_id"`
	User        string        `json:"user"`
	BundleLeft  int           `json:"bundle_left"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
	PricePaid   float64       `json:"price_paid"`
	Params      PricingParams `json:"params"`
	Redemptions []Redemption  `json:"redemptions"`
}

// StatusAt derives the bond's lifecycle state at the given instant. Expiry is
// detected lazily on access; there is no background sweep.
func (b Bond) StatusAt(now time.Time) BondStatus {
	if b.BundleLeft <= 0 {
		return BondExhausted
	}
	if now.After(b.ExpiresAt) {
		return BondExpired
	}
	return BondActive
}
