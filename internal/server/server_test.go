package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stylelend/rentbond/internal/attest"
	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/feed"
	"github.com/stylelend/rentbond/internal/ledger"
	"github.com/stylelend/rentbond/internal/server"
	"github.com/stylelend/rentbond/internal/server/handler"
	"github.com/stylelend/rentbond/internal/service"
	"github.com/stylelend/rentbond/internal/store/memory"
)

type fixture struct {
	handler http.Handler
	quotes  *memory.QuoteStore
	ledger  *ledger.MemoryLedger
}

func newFixture(t *testing.T, enforceGate bool) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	quotes := memory.NewQuoteStore()
	bonds := memory.NewBondStore()
	items := memory.NewItemProfileStore()
	users := memory.NewUserProfileStore()
	history := memory.NewHistoryStore()
	points := ledger.NewMemoryLedger()

	quoteSvc := service.NewQuoteService(quotes, logger)
	bondSvc := service.NewBondService(bonds, quoteSvc, history, points, nil, logger)
	riskSvc := service.NewRiskService(items, users, attest.NewGate(enforceGate, logger), nil, logger)
	priceSvc := service.NewPriceService(feed.NewMockFeed(), items, logger)

	srv := server.NewServer(
		server.Config{Port: 0},
		server.Handlers{
			Health:  handler.NewHealthHandler("test"),
			Bonds:   handler.NewBondHandler(quoteSvc, bondSvc, logger),
			Risk:    handler.NewRiskHandler(riskSvc, logger),
			Pricing: handler.NewPricingHandler(priceSvc, logger),
			Rewards: handler.NewRewardsHandler(points, logger),
		},
		nil,
		logger,
	)

	return &fixture{handler: srv.Handler(), quotes: quotes, ledger: points}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestQuotePurchaseRedeemFlow(t *testing.T) {
	f := newFixture(t, false)

	rec, quote := f.do(t, http.MethodPost, "/bonds/quote", map[string]any{
		"base_price": 100.0, "bundle_rentals": 2, "holiday_multiplier": 1.0, "risk_spread_bps": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "QUOTE-000001", quote["quote_id"])
	require.InDelta(t, 200.0, quote["fair_value"], 1e-9)
	require.InDelta(t, 200.0, quote["rentals_value"], 1e-9)
	require.NotEmpty(t, quote["expires_at"])

	rec, bond := f.do(t, http.MethodPost, "/bonds/purchase", map[string]any{
		"user": "alice", "quote_id": quote["quote_id"],
	})
	require.Equal(t, http.StatusOK, rec.Code)
	bondID, _ := bond["bond_id"].(string)
	require.Equal(t, "BOND-000001", bondID)
	require.InDelta(t, 200.0, bond["fair_value"], 1e-9)

	// Two redemptions drain the bundle; each credits the flat reward.
	rec, res := f.do(t, http.MethodPost, "/bonds/redeem", map[string]any{
		"bond_id": bondID, "token_id": "NFT-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, res["ok"])
	require.InDelta(t, 1, res["bundle_left"], 1e-9)
	require.InDelta(t, domain.RedemptionReward, res["reward_points"], 1e-9)

	rec, res = f.do(t, http.MethodPost, "/bonds/redeem", map[string]any{
		"bond_id": bondID, "token_id": "NFT-2", "location": "paris",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 0, res["bundle_left"], 1e-9)

	// A third attempt hits the exhausted bond.
	rec, res = f.do(t, http.MethodPost, "/bonds/redeem", map[string]any{
		"bond_id": bondID, "token_id": "NFT-3",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, res["error"], "no rentals left")

	// Full record and audit trail.
	rec, record := f.do(t, http.MethodGet, "/bonds/"+bondID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 0, record["bundle_left"], 1e-9)
	require.Len(t, record["redemptions"], 2)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	recHist := httptest.NewRecorder()
	f.handler.ServeHTTP(recHist, req)
	require.Equal(t, http.StatusOK, recHist.Code)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(recHist.Body.Bytes(), &events))
	require.Len(t, events, 2)
	require.Equal(t, "redeem", events[0]["type"])
	require.Equal(t, "paris", events[1]["location"])
}

func TestPurchaseQuoteFailures(t *testing.T) {
	f := newFixture(t, false)

	rec, _ := f.do(t, http.MethodPost, "/bonds/purchase", map[string]any{
		"user": "alice", "quote_id": "QUOTE-999999",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Plant a stale quote directly in the store.
	stale, err := f.quotes.Create(context.Background(), domain.Quote{
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		ExpiresAt: time.Now().UTC().Add(-50 * time.Minute),
		Params:    domain.PricingParams{BasePrice: 100, BundleRentals: 2, HolidayMultiplier: 1},
	})
	require.NoError(t, err)

	rec, body := f.do(t, http.MethodPost, "/bonds/purchase", map[string]any{
		"user": "alice", "quote_id": stale.QuoteID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "expired")
}

func TestUnknownBondRoutes(t *testing.T) {
	f := newFixture(t, false)

	rec, _ := f.do(t, http.MethodGet, "/bonds/BOND-424242", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/bonds/redeem", map[string]any{
		"bond_id": "BOND-424242", "token_id": "NFT-1",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRiskItemLifecycle(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodPost, "/risk/nft/register", map[string]any{
		"token_id": "NFT-7", "title": "leather jacket", "wear_level": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 100.0, body["risk_score"], 1e-9)
	require.Equal(t, "AAA", body["risk_grade"])

	rec, body = f.do(t, http.MethodPost, "/risk/nft/event", map[string]any{
		"token_id": "NFT-7", "event_type": "dirty_return",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 86.0, body["risk_score"], 1e-9)
	require.Equal(t, "AA", body["risk_grade"])
	require.InDelta(t, 1, body["events"], 1e-9)

	rec, body = f.do(t, http.MethodGet, "/risk/score/NFT-7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 86.0, body["risk_score"], 1e-9)

	rec, _ = f.do(t, http.MethodPost, "/risk/nft/event", map[string]any{
		"token_id": "NFT-unknown", "event_type": "cleaned",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRiskUserGating(t *testing.T) {
	f := newFixture(t, true)

	// Gated event without proof: 400, audit trail only.
	rec, body := f.do(t, http.MethodPost, "/risk/user/event", map[string]any{
		"user_id": "bob", "event_type": "false_non_delivery",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "attestation")

	rec, body = f.do(t, http.MethodGet, "/risk/user/score/bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, domain.InitialUserScore, body["user_score"], 1e-9)
	require.InDelta(t, 1, body["events"], 1e-9)

	// Same event with a proof marker lands the penalty.
	rec, body = f.do(t, http.MethodPost, "/risk/user/event", map[string]any{
		"user_id": "bob", "event_type": "false_non_delivery",
		"meta": map[string]any{"fdc_proof": "ok"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, domain.InitialUserScore-12, body["user_score"], 1e-9)

	rec, body = f.do(t, http.MethodGet, "/risk/fdc/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["use_fdc"])
	required, ok := body["required_events"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "delivery_confirmed", required["false_non_delivery"])
}

func TestPricingQuoteRoute(t *testing.T) {
	f := newFixture(t, false)

	_, _ = f.do(t, http.MethodPost, "/risk/nft/register", map[string]any{
		"token_id": "NFT-9", "title": "dress", "wear_level": 0,
	})

	rec, body := f.do(t, http.MethodPost, "/pricing/quote", map[string]any{
		"token_id": "NFT-9", "base_price": 50.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	// AAA items rent at a 5% discount.
	require.InDelta(t, 47.5, body["final_price"], 1e-9)

	rec, _ = f.do(t, http.MethodPost, "/pricing/quote", map[string]any{
		"token_id": "NFT-9", "base_price": -1.0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRewardsRoutes(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodPost, "/rewards/issue", map[string]any{
		"user": "carol", "amount": 30,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 30, body["balance"], 1e-9)

	rec, body = f.do(t, http.MethodPost, "/rewards/spend", map[string]any{
		"user": "carol", "amount": 50,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "insufficient")

	rec, body = f.do(t, http.MethodGet, "/rewards/balance/carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 30, body["balance"], 1e-9)
}

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	points := ledger.NewMemoryLedger()
	quotes := memory.NewQuoteStore()
	quoteSvc := service.NewQuoteService(quotes, logger)
	bondSvc := service.NewBondService(memory.NewBondStore(), quoteSvc, memory.NewHistoryStore(), points, nil, logger)
	riskSvc := service.NewRiskService(memory.NewItemProfileStore(), memory.NewUserProfileStore(), attest.NewGate(false, logger), nil, logger)
	priceSvc := service.NewPriceService(feed.NewMockFeed(), memory.NewItemProfileStore(), logger)

	srv := server.NewServer(
		server.Config{Port: 0, APIKey: "sekrit"},
		server.Handlers{
			Health:  handler.NewHealthHandler("test"),
			Bonds:   handler.NewBondHandler(quoteSvc, bondSvc, logger),
			Risk:    handler.NewRiskHandler(riskSvc, logger),
			Pricing: handler.NewPricingHandler(priceSvc, logger),
			Rewards: handler.NewRewardsHandler(points, logger),
		},
		nil,
		logger,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/bonds/quote", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthRoute(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "test", body["version"])
}

func TestRedeemErrorBodyMentionsBond(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodPost, "/bonds/redeem", map[string]any{
		"bond_id": "", "token_id": "NFT-1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, fmt.Sprint(body["error"]))
}
