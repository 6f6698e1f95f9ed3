package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
	"github.com/radieske/bet-ledger-core/internal/shared/db"
	ev "github.com/radieske/bet-ledger-core/pkg/contracts/events"
)

// Publisher emite o evento de liquidação concluída.
type Publisher interface {
	PublishEventSettled(ctx context.Context, e ev.EventSettled) error
}

// Result resume uma liquidação.
type Result struct {
	EventID     string
	WinningTeam string
	Processed   int
	Winners     int
	Losers      int
	TotalPayout decimal.Decimal
	SettledAt   time.Time
}

// Settler é a engine de liquidação: resolve todas as apostas ACTIVE de um
// evento contra a equipe vencedora declarada, credita os vencedores e fecha
// o evento — tudo em uma única unidade atômica.
type Settler struct {
	log   *zap.Logger
	store repo.Store
	publ  Publisher // opcional
	now   func() time.Time

	// callback de métricas, ligada no main
	OnSettled func(winners, losers int)
}

// NewSettler instancia a engine de liquidação
func NewSettler(log *zap.Logger, store repo.Store, publ Publisher) *Settler {
	return &Settler{log: log, store: store, publ: publ, now: time.Now}
}

// SettleEvent liquida o evento: trava a linha do evento (o que serializa a
// liquidação contra novas apostas no mesmo evento), carrega o conjunto de
// apostas ACTIVE, credita stake×odds aos vencedores, marca os demais como
// LOST e transiciona o evento para FINISHED. Liquidação parcial nunca é
// observável: qualquer falha desfaz a unidade inteira.
//
// Re-liquidar um evento FINISHED retorna ConflictFailure, nunca paga de novo.
func (s *Settler) SettleEvent(ctx context.Context, eventID, winningTeam string) (Result, error) {
	var result Result

	err := s.store.Atomic(ctx, func(tx repo.Tx) error {
		now := s.now()

		evt, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.NewNotFound("event")
			}
			return fmt.Errorf("load event: %w", err)
		}

		if !evt.IsValidTeam(winningTeam) {
			return domain.NewValidation(fmt.Sprintf("invalid winner team: %s", winningTeam))
		}
		if evt.Status == domain.EventFinished {
			return domain.NewConflict("event " + eventID + " is already settled")
		}
		if evt.Status == domain.EventCancelled {
			return domain.NewConflict("event " + eventID + " is cancelled")
		}

		wagers, err := tx.ActiveWagersByEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("load active wagers: %w", err)
		}

		res := Result{EventID: eventID, WinningTeam: winningTeam, SettledAt: now}
		for i := range wagers {
			w := &wagers[i]
			if strings.EqualFold(w.Team, winningTeam) {
				payout, err := w.MarkWon(now)
				if err != nil {
					return err
				}
				if err := tx.CreditAccount(ctx, w.AccountID, payout, now); err != nil {
					return fmt.Errorf("credit account %s: %w", w.AccountID, err)
				}
				if err := tx.UpdateWagerStatus(ctx, w.ID, domain.WagerWon, now); err != nil {
					return fmt.Errorf("update wager %s: %w", w.ID, err)
				}
				res.Winners++
				res.TotalPayout = res.TotalPayout.Add(payout)
			} else {
				if err := w.MarkLost(now); err != nil {
					return err
				}
				if err := tx.UpdateWagerStatus(ctx, w.ID, domain.WagerLost, now); err != nil {
					return fmt.Errorf("update wager %s: %w", w.ID, err)
				}
				res.Losers++
			}
		}
		res.Processed = res.Winners + res.Losers

		if err := evt.Finish(now); err != nil {
			return err
		}
		if err := tx.SetEventStatus(ctx, eventID, domain.EventFinished, now); err != nil {
			return fmt.Errorf("finish event: %w", err)
		}

		result = res
		return nil
	})
	if err != nil {
		return Result{}, s.classify(eventID, err)
	}

	if s.publ != nil {
		_ = s.publ.PublishEventSettled(ctx, ev.EventSettled{
			EventID:     result.EventID,
			WinningTeam: result.WinningTeam,
			Processed:   result.Processed,
			Winners:     result.Winners,
			Losers:      result.Losers,
			TotalPayout: result.TotalPayout.String(),
			SettledAt:   result.SettledAt,
		})
	}
	if s.OnSettled != nil {
		s.OnSettled(result.Winners, result.Losers)
	}

	s.log.Info("event settled",
		zap.String("eventId", result.EventID),
		zap.String("winner", result.WinningTeam),
		zap.Int("processed", result.Processed),
		zap.String("totalPayout", result.TotalPayout.String()),
	)
	return result, nil
}

// classify traduz erros da unidade atômica para a taxonomia do ledger
func (s *Settler) classify(eventID string, err error) error {
	kind := domain.KindOf(err)
	if kind == domain.FaultValidation || kind == domain.FaultNotFound || kind == domain.FaultConflict {
		s.log.Warn("settlement rejected", zap.String("eventId", eventID), zap.Error(err))
		return err
	}
	if db.IsTransient(err) {
		s.log.Error("settlement exhausted retries", zap.String("eventId", eventID), zap.Error(err))
		return domain.NewTransient(err.Error())
	}
	s.log.Error("settlement failed", zap.String("eventId", eventID), zap.Error(err))
	return err
}
