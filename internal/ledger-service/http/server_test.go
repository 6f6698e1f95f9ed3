package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	evsvc "github.com/radieske/bet-ledger-core/internal/ledger-service/events"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/ledger"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo/memory"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/settlement"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/validation"
	"github.com/radieske/bet-ledger-core/internal/shared/logger"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newTestAPI(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.New()
	log := logger.Nop()

	params := ledger.Params{
		Limits: validation.Limits{
			MinStake: dec("1"),
			MaxStake: dec("10000"),
			LeadTime: 15 * time.Minute,
		},
		InitialBalance: dec("1000.00"),
	}
	l := ledger.NewService(log, store, params, nil)
	settler := settlement.NewSettler(log, store, nil)
	events := evsvc.NewService(log, store, nil, 15*time.Minute)

	return NewServer(log, l, settler, events).Router(), store
}

func seedFixtures(store *memory.Store) {
	now := time.Now()
	store.SeedAccount(domain.Account{ID: "acc-1", Balance: dec("1000")})
	store.SeedEvent(domain.Event{
		ID: "ev-1", Name: "Flamengo vs Palmeiras",
		TeamA: "Flamengo", TeamB: "Palmeiras",
		TeamAOdds: dec("2.10"), TeamBOdds: dec("3.40"),
		StartsAt: now.Add(3 * time.Hour), Status: domain.EventUpcoming,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, accountID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if accountID != "" {
		req.Header.Set(accountHeader, accountID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPlaceWagerEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	seedFixtures(store)

	rec := doJSON(t, api, http.MethodPost, "/v1/wagers", "acc-1", map[string]any{
		"event_id": "ev-1",
		"team":     "Flamengo",
		"stake":    "300",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID              string          `json:"id"`
		Odds            decimal.Decimal `json:"odds"`
		PotentialPayout decimal.Decimal `json:"potential_payout"`
		Status          string          `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Odds.Equal(dec("2.10")))
	assert.True(t, resp.PotentialPayout.Equal(dec("630.00")))
	assert.Equal(t, "ACTIVE", resp.Status)

	acc, _ := store.GetAccount(context.Background(), "acc-1")
	assert.True(t, acc.Balance.Equal(dec("700")))
}

func TestPlaceWagerEndpointRequiresIdentity(t *testing.T) {
	api, store := newTestAPI(t)
	seedFixtures(store)

	rec := doJSON(t, api, http.MethodPost, "/v1/wagers", "", map[string]any{
		"event_id": "ev-1", "team": "Flamengo", "stake": "10",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFaultStatusMapping(t *testing.T) {
	api, store := newTestAPI(t)
	seedFixtures(store)

	t.Run("validation is 400", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/v1/wagers", "acc-1", map[string]any{
			"event_id": "ev-1", "team": "Santos", "stake": "10",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp struct {
			Error   string   `json:"error"`
			Reasons []string `json:"reasons"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "validation", resp.Error)
		assert.Contains(t, resp.Reasons, "invalid team selection: Santos")
	})

	t.Run("not found is 404", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/v1/wagers", "acc-1", map[string]any{
			"event_id": "ghost", "team": "Flamengo", "stake": "10",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("conflict is 409", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/v1/events/ev-1/settle", "", map[string]any{
			"winning_team": "Flamengo",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, api, http.MethodPost, "/v1/events/ev-1/settle", "", map[string]any{
			"winning_team": "Flamengo",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAccountLifecycleEndpoints(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/v1/accounts", "acc-new", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		AccountID string          `json:"account_id"`
		Balance   decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "acc-new", resp.AccountID)
	assert.True(t, resp.Balance.Equal(dec("1000.00")))

	// idempotente: segunda chamada responde 200
	rec = doJSON(t, api, http.MethodPost, "/v1/accounts", "acc-new", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/v1/accounts/deposit", "acc-new", map[string]any{
		"amount": "500",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Balance.Equal(dec("1500.00")))

	rec = doJSON(t, api, http.MethodGet, "/v1/accounts/me", "acc-new", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelWagerEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	seedFixtures(store)

	rec := doJSON(t, api, http.MethodPost, "/v1/wagers", "acc-1", map[string]any{
		"event_id": "ev-1", "team": "Flamengo", "stake": "100",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var placed struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	rec = doJSON(t, api, http.MethodDelete, "/v1/wagers/"+placed.ID, "acc-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	acc, _ := store.GetAccount(context.Background(), "acc-1")
	assert.True(t, acc.Balance.Equal(dec("1000")))

	// cancelamento repetido: 409, saldo intacto
	rec = doJSON(t, api, http.MethodDelete, "/v1/wagers/"+placed.ID, "acc-1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	acc, _ = store.GetAccount(context.Background(), "acc-1")
	assert.True(t, acc.Balance.Equal(dec("1000")))
}

func TestListWagersEndpointFilters(t *testing.T) {
	api, store := newTestAPI(t)
	seedFixtures(store)

	for _, team := range []string{"Flamengo", "Palmeiras"} {
		rec := doJSON(t, api, http.MethodPost, "/v1/wagers", "acc-1", map[string]any{
			"event_id": "ev-1", "team": team, "stake": "50",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, api, http.MethodGet, "/v1/wagers?only_active=true", "acc-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []struct {
		Team      string `json:"team"`
		CanCancel bool   `json:"can_cancel"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.True(t, list[0].CanCancel)
}

func TestEventEndpoints(t *testing.T) {
	api, _ := newTestAPI(t)
	now := time.Now()

	rec := doJSON(t, api, http.MethodPost, "/v1/events", "", map[string]any{
		"name":        "Grêmio vs Internacional",
		"team_a":      "Grêmio",
		"team_b":      "Internacional",
		"team_a_odds": "1.95",
		"team_b_odds": "2.05",
		"starts_at":   now.Add(4 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"ID"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, api, http.MethodGet, "/v1/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, api, http.MethodGet, "/v1/events/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, api, http.MethodPut, "/v1/events/"+created.ID+"/status", "", map[string]any{
		"status": "LIVE",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// FINISHED manual é rejeitado
	rec = doJSON(t, api, http.MethodPut, "/v1/events/"+created.ID+"/status", "", map[string]any{
		"status": "FINISHED",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
