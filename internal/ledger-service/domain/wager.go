package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WagerStatus é o ciclo de vida de uma aposta.
// WON, LOST e REFUNDED são terminais.
type WagerStatus string

const (
	WagerActive   WagerStatus = "ACTIVE"
	WagerWon      WagerStatus = "WON"
	WagerLost     WagerStatus = "LOST"
	WagerRefunded WagerStatus = "REFUNDED"
)

// Wager é um stake colocado por uma conta em uma equipe de um evento.
// Odds são capturadas no momento da aposta e nunca recalculadas depois;
// é o preço que vincula as partes.
type Wager struct {
	ID        string
	AccountID string
	EventID   string
	Team      string
	Stake     decimal.Decimal
	Odds      decimal.Decimal
	Status    WagerStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PotentialPayout é sempre derivado (stake × odds), nunca armazenado
func (w *Wager) PotentialPayout() decimal.Decimal {
	return w.Stake.Mul(w.Odds)
}

// MarkWon transiciona ACTIVE→WON e retorna o payout a creditar
func (w *Wager) MarkWon(now time.Time) (decimal.Decimal, error) {
	if w.Status != WagerActive {
		return decimal.Decimal{}, NewConflict("only active wagers can be marked as won")
	}
	w.Status = WagerWon
	w.UpdatedAt = now
	return w.PotentialPayout(), nil
}

// MarkLost transiciona ACTIVE→LOST
func (w *Wager) MarkLost(now time.Time) error {
	if w.Status != WagerActive {
		return NewConflict("only active wagers can be marked as lost")
	}
	w.Status = WagerLost
	w.UpdatedAt = now
	return nil
}

// Refund transiciona ACTIVE→REFUNDED e retorna o stake a devolver
func (w *Wager) Refund(now time.Time) (decimal.Decimal, error) {
	if w.Status != WagerActive {
		return decimal.Decimal{}, NewConflict("only active wagers can be refunded")
	}
	w.Status = WagerRefunded
	w.UpdatedAt = now
	return w.Stake, nil
}

// CanBeCancelled reporta se a aposta ainda pode ser cancelada pelo dono:
// aposta ACTIVE, evento UPCOMING e ainda não iniciado
func (w *Wager) CanBeCancelled(ev *Event, now time.Time) bool {
	return w.Status == WagerActive &&
		ev != nil &&
		ev.Status == EventUpcoming &&
		now.Before(ev.StartsAt)
}
