package events

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo/memory"
	"github.com/radieske/bet-ledger-core/internal/shared/logger"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewService(logger.Nop(), store, nil, 15*time.Minute), store
}

func validInput(now time.Time) CreateEventInput {
	return CreateEventInput{
		Name:      "Flamengo vs Palmeiras",
		TeamA:     "Flamengo",
		TeamB:     "Palmeiras",
		TeamAOdds: dec("2.10"),
		TeamBOdds: dec("3.40"),
		StartsAt:  now.Add(3 * time.Hour),
	}
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	now := time.Now()

	evt, err := svc.Create(ctx, validInput(now))
	require.NoError(t, err)

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, domain.EventUpcoming, evt.Status, "new events start UPCOMING")

	stored, err := store.GetEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flamengo vs Palmeiras", stored.Name)
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name       string
		mutate     func(in *CreateEventInput)
		wantReason string
	}{
		{
			name:       "short name",
			mutate:     func(in *CreateEventInput) { in.Name = "abc" },
			wantReason: "event name must be at least 5 characters",
		},
		{
			name:       "missing team",
			mutate:     func(in *CreateEventInput) { in.TeamB = "  " },
			wantReason: "both teams are required",
		},
		{
			name:       "same team twice",
			mutate:     func(in *CreateEventInput) { in.TeamB = "flamengo" },
			wantReason: "teams must be distinct",
		},
		{
			name:       "odds at most 1",
			mutate:     func(in *CreateEventInput) { in.TeamAOdds = dec("1.00") },
			wantReason: "odds must be greater than 1.0 and at most 50.0",
		},
		{
			name:       "odds above ceiling",
			mutate:     func(in *CreateEventInput) { in.TeamBOdds = dec("50.01") },
			wantReason: "odds must be greater than 1.0 and at most 50.0",
		},
		{
			name:       "starts too soon",
			mutate:     func(in *CreateEventInput) { in.StartsAt = now.Add(30 * time.Minute) },
			wantReason: "event must start at least 1 hour in the future",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			in := validInput(now)
			tt.mutate(&in)

			_, err := svc.Create(ctx, in)
			require.Error(t, err)
			assert.Equal(t, domain.FaultValidation, domain.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantReason)
		})
	}

	t.Run("reasons accumulate", func(t *testing.T) {
		svc, _ := newTestService(t)
		in := validInput(now)
		in.Name = "ab"
		in.TeamAOdds = dec("0.5")
		in.StartsAt = now

		_, err := svc.Create(ctx, in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event name must be at least 5 characters")
		assert.Contains(t, err.Error(), "odds must be greater than 1.0 and at most 50.0")
		assert.Contains(t, err.Error(), "event must start at least 1 hour in the future")
	})
}

func TestListAvailable(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	now := time.Now()

	// disponível
	_, err := svc.Create(ctx, validInput(now))
	require.NoError(t, err)

	// dentro da janela de lead time: fora da listagem
	store.SeedEvent(domain.Event{
		ID: "ev-soon", Name: "Grêmio vs Internacional",
		TeamA: "Grêmio", TeamB: "Internacional",
		TeamAOdds: dec("2"), TeamBOdds: dec("2"),
		StartsAt: now.Add(10 * time.Minute), Status: domain.EventUpcoming,
	})

	// já encerrado: fora da listagem
	store.SeedEvent(domain.Event{
		ID: "ev-done", Name: "Corinthians vs Santos",
		TeamA: "Corinthians", TeamB: "Santos",
		TeamAOdds: dec("2"), TeamBOdds: dec("2"),
		StartsAt: now.Add(5 * time.Hour), Status: domain.EventFinished,
	})

	list, err := svc.ListAvailable(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Flamengo vs Palmeiras", list[0].Event.Name)
	assert.True(t, list[0].CanPlaceBets)
	assert.Equal(t, "2 hours", list[0].TimeUntilStart)
	assert.Zero(t, list[0].WagerCount)
}

func TestGetDetailAggregates(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	now := time.Now()

	evt, err := svc.Create(ctx, validInput(now))
	require.NoError(t, err)

	seedWager := func(id, team, stake string, createdAt time.Time) {
		w := domain.Wager{
			ID: id, AccountID: "acc-1", EventID: evt.ID,
			Team: team, Stake: dec(stake), Odds: dec("2.10"),
			Status: domain.WagerActive, CreatedAt: createdAt,
		}
		require.NoError(t, store.Atomic(ctx, func(tx repo.Tx) error {
			return tx.InsertWager(ctx, &w)
		}))
	}
	seedWager("w-1", "Flamengo", "100", now.Add(-3*time.Minute))
	seedWager("w-2", "palmeiras", "40", now.Add(-2*time.Minute))
	seedWager("w-3", "Flamengo", "60", now.Add(-time.Minute))

	detail, err := svc.GetDetail(ctx, evt.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, detail.WagerCount)
	assert.True(t, detail.TotalWagered.Equal(dec("200")))
	assert.True(t, detail.TeamATotal.Equal(dec("160")), "team match is case-insensitive")
	assert.True(t, detail.TeamBTotal.Equal(dec("40")))
	assert.Equal(t, 2, detail.TeamACount)
	assert.Equal(t, 1, detail.TeamBCount)

	require.Len(t, detail.RecentWagers, 3)
	assert.Equal(t, "w-3", detail.RecentWagers[0].ID, "most recent first")
}

func TestGetDetailUnknownEvent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.GetDetail(ctx, "ghost")
	require.Error(t, err)
	assert.Equal(t, domain.FaultNotFound, domain.KindOf(err))
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("upcoming to live", func(t *testing.T) {
		svc, store := newTestService(t)
		evt, err := svc.Create(ctx, validInput(now))
		require.NoError(t, err)

		require.NoError(t, svc.UpdateStatus(ctx, evt.ID, domain.EventLive))

		stored, _ := store.GetEvent(ctx, evt.ID)
		assert.Equal(t, domain.EventLive, stored.Status)
	})

	t.Run("finished is settlement-only", func(t *testing.T) {
		svc, store := newTestService(t)
		evt, err := svc.Create(ctx, validInput(now))
		require.NoError(t, err)

		err = svc.UpdateStatus(ctx, evt.ID, domain.EventFinished)
		require.Error(t, err)
		assert.Equal(t, domain.FaultConflict, domain.KindOf(err))

		stored, _ := store.GetEvent(ctx, evt.ID)
		assert.Equal(t, domain.EventUpcoming, stored.Status)
	})

	t.Run("terminal status rejects transitions", func(t *testing.T) {
		svc, store := newTestService(t)
		store.SeedEvent(domain.Event{
			ID: "ev-c", Name: "Corinthians vs Santos",
			TeamA: "Corinthians", TeamB: "Santos",
			TeamAOdds: dec("2"), TeamBOdds: dec("2"),
			StartsAt: now.Add(5 * time.Hour), Status: domain.EventCancelled,
		})

		err := svc.UpdateStatus(ctx, "ev-c", domain.EventLive)
		require.Error(t, err)
		assert.Equal(t, domain.FaultConflict, domain.KindOf(err))
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.UpdateStatus(ctx, "ghost", domain.EventLive)
		require.Error(t, err)
		assert.Equal(t, domain.FaultNotFound, domain.KindOf(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.UpdateStatus(ctx, "any", domain.EventStatus("PAUSED"))
		require.Error(t, err)
		assert.Equal(t, domain.FaultValidation, domain.KindOf(err))
	})
}
