package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/validation"
)

func TestWagersForAccountViews(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	now := time.Now()
	svc.now = func() time.Time { return now }

	store.SeedAccount(domain.Account{ID: "acc-1", Balance: dec("1000")})
	seedUpcomingEvent(store, now)

	w, err := svc.PlaceWager(ctx, validationRequest("acc-1", "ev-1", "Flamengo", "300"))
	require.NoError(t, err)

	views, err := svc.WagersForAccount(ctx, "acc-1", repo.WagerFilter{})
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0]
	assert.Equal(t, w.ID, v.Wager.ID)
	assert.Equal(t, "Flamengo vs Palmeiras", v.EventName)
	assert.Equal(t, domain.EventUpcoming, v.EventStatus)
	assert.True(t, v.PotentialPayout.Equal(dec("630.00")), "derived on read")
	assert.True(t, v.CanCancel)
	assert.Equal(t, "3 hours", v.TimeUntilStart)
}

func TestWagersForAccountFilter(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	now := time.Now()

	store.SeedAccount(domain.Account{ID: "acc-1", Balance: dec("1000")})
	seedUpcomingEvent(store, now)

	w1, err := svc.PlaceWager(ctx, validationRequest("acc-1", "ev-1", "Flamengo", "100"))
	require.NoError(t, err)
	w2, err := svc.PlaceWager(ctx, validationRequest("acc-1", "ev-1", "Palmeiras", "50"))
	require.NoError(t, err)

	ok, err := svc.CancelWager(ctx, "acc-1", w1.ID)
	require.NoError(t, err)
	require.True(t, ok)

	views, err := svc.WagersForAccount(ctx, "acc-1", repo.WagerFilter{OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, w2.ID, views[0].Wager.ID)

	refunded := domain.WagerRefunded
	views, err = svc.WagersForAccount(ctx, "acc-1", repo.WagerFilter{Status: &refunded})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, w1.ID, views[0].Wager.ID)
	assert.False(t, views[0].CanCancel)
}

func TestWagersForAccountUnknownAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.WagersForAccount(ctx, "ghost", repo.WagerFilter{})
	require.Error(t, err)
	assert.Equal(t, domain.FaultNotFound, domain.KindOf(err))
}

func TestStatsForAccount(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	now := time.Now()

	store.SeedAccount(domain.Account{ID: "acc-1", Balance: dec("10000")})
	seedUpcomingEvent(store, now)
	store.SeedEvent(domain.Event{
		ID: "ev-2", Name: "Grêmio vs Internacional",
		TeamA: "Grêmio", TeamB: "Internacional",
		TeamAOdds: dec("2.00"), TeamBOdds: dec("2.00"),
		StartsAt: now.Add(5 * time.Hour), Status: domain.EventUpcoming,
	})

	_, err := svc.PlaceWager(ctx, validationRequest("acc-1", "ev-1", "Flamengo", "100"))
	require.NoError(t, err)
	_, err = svc.PlaceWager(ctx, validationRequest("acc-1", "ev-2", "Grêmio", "200"))
	require.NoError(t, err)
	w3, err := svc.PlaceWager(ctx, validationRequest("acc-1", "ev-2", "Internacional", "60"))
	require.NoError(t, err)

	ok, err := svc.CancelWager(ctx, "acc-1", w3.ID)
	require.NoError(t, err)
	require.True(t, ok)

	stats, err := svc.StatsForAccount(ctx, "acc-1")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalWagers)
	assert.Equal(t, 2, stats.ActiveWagers)
	assert.Equal(t, 1, stats.RefundedWagers)
	assert.True(t, stats.TotalStaked.Equal(dec("360")))
	// 100×2.10 + 200×2.00
	assert.True(t, stats.CurrentPotentialWin.Equal(dec("610.00")), "got %s", stats.CurrentPotentialWin)
	assert.True(t, stats.AverageStake.Equal(dec("120.00")), "got %s", stats.AverageStake)
	assert.Zero(t, stats.WinRate, "no decided wagers yet")
}

func validationRequest(accountID, eventID, team, stake string) validation.Request {
	return validation.Request{AccountID: accountID, EventID: eventID, Team: team, Stake: dec(stake)}
}
