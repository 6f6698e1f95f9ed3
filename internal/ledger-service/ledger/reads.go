package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
)

// WagerView é o snapshot point-in-time de uma aposta com os campos derivados
// calculados na leitura (payout potencial, cancelável, tempo até o início) —
// nunca armazenados.
type WagerView struct {
	Wager           domain.Wager
	EventName       string
	EventStatus     domain.EventStatus
	EventStartsAt   time.Time
	PotentialPayout decimal.Decimal
	CanCancel       bool
	TimeUntilStart  string
}

// AccountStats resume o histórico de apostas de uma conta.
type AccountStats struct {
	TotalWagers         int
	ActiveWagers        int
	WonWagers           int
	LostWagers          int
	RefundedWagers      int
	TotalStaked         decimal.Decimal
	TotalWinnings       decimal.Decimal
	CurrentPotentialWin decimal.Decimal
	AverageStake        decimal.Decimal
	WinRate             float64 // % sobre apostas decididas (won+lost)
}

// WagersForAccount lista as apostas da conta com os campos derivados.
// A navegação aposta→evento é lookup explícito por id, mediado pelo store;
// nenhum grafo de objetos atravessa o limite da operação.
func (s *Service) WagersForAccount(ctx context.Context, accountID string, f repo.WagerFilter) ([]WagerView, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	wagers, err := s.store.ListWagersByAccount(ctx, accountID, f)
	if err != nil {
		return nil, fmt.Errorf("list wagers: %w", err)
	}

	now := s.now()
	eventsByID := make(map[string]*domain.Event)
	views := make([]WagerView, 0, len(wagers))
	for _, w := range wagers {
		evt, ok := eventsByID[w.EventID]
		if !ok {
			evt, err = s.store.GetEvent(ctx, w.EventID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("load event %s: %w", w.EventID, err)
			}
			eventsByID[w.EventID] = evt
		}

		view := WagerView{
			Wager:           w,
			PotentialPayout: w.PotentialPayout(),
		}
		if evt != nil {
			view.EventName = evt.Name
			view.EventStatus = evt.Status
			view.EventStartsAt = evt.StartsAt
			view.CanCancel = w.CanBeCancelled(evt, now)
			view.TimeUntilStart = domain.FormatTimeUntil(now, evt.StartsAt)
		}
		views = append(views, view)
	}
	return views, nil
}

// StatsForAccount calcula as estatísticas agregadas da conta na leitura
func (s *Service) StatsForAccount(ctx context.Context, accountID string) (AccountStats, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return AccountStats{}, err
	}

	wagers, err := s.store.ListWagersByAccount(ctx, accountID, repo.WagerFilter{})
	if err != nil {
		return AccountStats{}, fmt.Errorf("list wagers: %w", err)
	}

	stats := AccountStats{TotalWagers: len(wagers)}
	for _, w := range wagers {
		stats.TotalStaked = stats.TotalStaked.Add(w.Stake)
		switch w.Status {
		case domain.WagerActive:
			stats.ActiveWagers++
			stats.CurrentPotentialWin = stats.CurrentPotentialWin.Add(w.PotentialPayout())
		case domain.WagerWon:
			stats.WonWagers++
			stats.TotalWinnings = stats.TotalWinnings.Add(w.PotentialPayout())
		case domain.WagerLost:
			stats.LostWagers++
		case domain.WagerRefunded:
			stats.RefundedWagers++
		}
	}

	if len(wagers) > 0 {
		stats.AverageStake = stats.TotalStaked.Div(decimal.NewFromInt(int64(len(wagers)))).Round(2)
	}
	if decided := stats.WonWagers + stats.LostWagers; decided > 0 {
		stats.WinRate = float64(stats.WonWagers) / float64(decided) * 100
	}
	return stats, nil
}
