package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylelend/rentbond/internal/domain"
)

func TestPriceZeroSpread(t *testing.T) {
	p := Price(domain.PricingParams{
		BasePrice:         100,
		BundleRentals:     3,
		HolidayMultiplier: 1.0,
		RiskSpreadBps:     0,
	})

	assert.Equal(t, 300.00, p.RentalsValue)
	assert.Equal(t, 300.00, p.FairValue)
	assert.Equal(t, 0.00, p.Discount)
	assert.Equal(t, 0.0, p.ImpliedYield)
	assert.Equal(t, 0.25, p.TenorYears)
}

func TestPriceWithSpread(t *testing.T) {
	p := Price(domain.PricingParams{
		BasePrice:         100,
		BundleRentals:     3,
		HolidayMultiplier: 1.0,
		RiskSpreadBps:     250,
	})

	// 300 / 1.025^0.25 = 298.15 after rounding.
	assert.Equal(t, 300.00, p.RentalsValue)
	assert.Equal(t, 298.15, p.FairValue)
	assert.Equal(t, 1.85, p.Discount)
	assert.Equal(t, 0.025, p.ImpliedYield)
}

func TestPriceHolidayMultiplier(t *testing.T) {
	p := Price(domain.PricingParams{
		BasePrice:         80,
		BundleRentals:     5,
		HolidayMultiplier: 1.5,
		RiskSpreadBps:     0,
	})

	assert.Equal(t, 600.00, p.RentalsValue)
	assert.Equal(t, 600.00, p.FairValue)
}

func TestPriceFairValueBounds(t *testing.T) {
	// fair_value <= rentals_value for any non-negative spread, and fair_value
	// is non-increasing as the spread widens.
	params := domain.PricingParams{
		BasePrice:         42.50,
		BundleRentals:     7,
		HolidayMultiplier: 1.2,
	}

	prev := Price(params).FairValue
	for _, bps := range []int{0, 10, 50, 100, 250, 500, 1000, 5000} {
		params.RiskSpreadBps = bps
		p := Price(params)

		require.GreaterOrEqual(t, p.RentalsValue, p.FairValue, "bps=%d", bps)
		require.GreaterOrEqual(t, p.FairValue, 0.0, "bps=%d", bps)
		require.LessOrEqual(t, p.FairValue, prev, "bps=%d", bps)
		prev = p.FairValue
	}
}

func TestPriceDeterministic(t *testing.T) {
	params := domain.PricingParams{
		BasePrice:         123.45,
		BundleRentals:     4,
		HolidayMultiplier: 1.1,
		RiskSpreadBps:     175,
	}

	assert.Equal(t, Price(params), Price(params))
}

func TestParamsValidate(t *testing.T) {
	valid := domain.PricingParams{BasePrice: 10, BundleRentals: 1, HolidayMultiplier: 1}
	require.NoError(t, valid.Validate())

	cases := map[string]domain.PricingParams{
		"zero base price":       {BasePrice: 0, BundleRentals: 1, HolidayMultiplier: 1},
		"negative base price":   {BasePrice: -1, BundleRentals: 1, HolidayMultiplier: 1},
		"zero bundle":           {BasePrice: 10, BundleRentals: 0, HolidayMultiplier: 1},
		"negative multiplier":   {BasePrice: 10, BundleRentals: 1, HolidayMultiplier: -0.5},
		"negative spread":       {BasePrice: 10, BundleRentals: 1, HolidayMultiplier: 1, RiskSpreadBps: -1},
	}
	for name, p := range cases {
		assert.ErrorIs(t, p.Validate(), domain.ErrValidation, name)
	}
}
