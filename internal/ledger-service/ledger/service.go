package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/validation"
	"github.com/radieske/bet-ledger-core/internal/shared/db"
	ev "github.com/radieske/bet-ledger-core/pkg/contracts/events"
)

// Publisher emite os eventos de ciclo de vida das apostas.
type Publisher interface {
	PublishWagerPlaced(ctx context.Context, e ev.WagerPlaced) error
	PublishWagerRefunded(ctx context.Context, e ev.WagerRefunded) error
}

// Params são os parâmetros de negócio do ledger.
type Params struct {
	Limits         validation.Limits
	InitialBalance decimal.Decimal
}

// Service é o Wager Ledger: dono do ciclo de vida das apostas e do movimento
// de dinheiro associado. Toda mutação de saldo passa por aqui ou pela
// liquidação; nenhum outro caminho escreve saldo.
type Service struct {
	log    *zap.Logger
	store  repo.Store
	params Params
	publ   Publisher // opcional
	now    func() time.Time

	// callbacks de métricas (counter++), ligadas no main
	OnPlaced    func()
	OnRejected  func(reason string)
	OnCancelled func()
}

// NewService instancia o ledger
func NewService(log *zap.Logger, store repo.Store, params Params, publ Publisher) *Service {
	return &Service{
		log:    log,
		store:  store,
		params: params,
		publ:   publ,
		now:    time.Now,
	}
}

// errPrecondition aborta a unidade atômica de Cancel sem mutação.
var errPrecondition = errors.New("cancel precondition failed")

// Validate roda a engine de validação sobre snapshots atuais, sem mutação.
// Serve de preview; Place re-valida com estado fresco dentro da transação.
func (s *Service) Validate(ctx context.Context, req validation.Request) (validation.Result, error) {
	acc, err := s.store.GetAccount(ctx, req.AccountID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return validation.Result{}, fmt.Errorf("load account: %w", err)
	}
	evt, err := s.store.GetEvent(ctx, req.EventID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return validation.Result{}, fmt.Errorf("load event: %w", err)
	}
	return validation.Check(acc, evt, req, s.params.Limits, s.now()), nil
}

// PlaceWager valida e cria a aposta debitando o stake, tudo em uma unidade
// atômica: re-lê conta e evento com lock de linha, re-valida, debita com
// guarda e insere a aposta com as odds capturadas. Qualquer falha desfaz
// a unidade inteira — débito sem aposta (ou o inverso) nunca é observável.
func (s *Service) PlaceWager(ctx context.Context, req validation.Request) (*domain.Wager, error) {
	var wager *domain.Wager

	err := s.store.Atomic(ctx, func(tx repo.Tx) error {
		now := s.now()

		// lock do evento antes da conta: mesma ordem da liquidação,
		// serializando place × settle no mesmo evento
		evt, err := tx.EventForUpdate(ctx, req.EventID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("load event: %w", err)
		}
		acc, err := tx.AccountForUpdate(ctx, req.AccountID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("load account: %w", err)
		}

		if acc == nil {
			return domain.NewNotFound("account")
		}
		if evt == nil {
			return domain.NewNotFound("event")
		}

		res := validation.Check(acc, evt, req, s.params.Limits, now)
		if !res.OK {
			return domain.NewValidation(res.Errors...)
		}

		if err := tx.DebitAccount(ctx, acc.ID, req.Stake, now); err != nil {
			if errors.Is(err, repo.ErrInsufficientFunds) {
				return domain.NewValidation("insufficient balance")
			}
			return fmt.Errorf("debit account: %w", err)
		}

		w := &domain.Wager{
			ID:        uuid.NewString(),
			AccountID: acc.ID,
			EventID:   evt.ID,
			Team:      req.Team,
			Stake:     req.Stake,
			Odds:      res.Odds, // preço vinculante; nunca recalculado
			Status:    domain.WagerActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertWager(ctx, w); err != nil {
			return fmt.Errorf("insert wager: %w", err)
		}

		wager = w
		return nil
	})
	if err != nil {
		return nil, s.classify("place", req.AccountID, err)
	}

	if s.publ != nil {
		_ = s.publ.PublishWagerPlaced(ctx, ev.WagerPlaced{
			WagerID:   wager.ID,
			AccountID: wager.AccountID,
			EventID:   wager.EventID,
			Team:      wager.Team,
			Stake:     wager.Stake.String(),
			Odds:      wager.Odds.String(),
			TsUnixMs:  s.now().UnixMilli(),
		})
	}
	if s.OnPlaced != nil {
		s.OnPlaced()
	}

	s.log.Info("wager placed",
		zap.String("wagerId", wager.ID),
		zap.String("accountId", wager.AccountID),
		zap.String("eventId", wager.EventID),
		zap.String("stake", wager.Stake.String()),
	)
	return wager, nil
}

// CancelWager é o inverso exato de Place em relação ao saldo: marca a aposta
// REFUNDED e credita o stake original, atomicamente. Pré-condições (dono,
// aposta ACTIVE, evento UPCOMING ainda não iniciado) são checadas dentro da
// mesma unidade; falhando qualquer uma, retorna false sem mutação.
func (s *Service) CancelWager(ctx context.Context, accountID, wagerID string) (bool, error) {
	// leitura prévia só para descobrir o evento; tudo é re-lido sob lock
	w0, err := s.store.GetWager(ctx, wagerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load wager: %w", err)
	}

	var refunded decimal.Decimal
	err = s.store.Atomic(ctx, func(tx repo.Tx) error {
		now := s.now()

		evt, err := tx.EventForUpdate(ctx, w0.EventID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errPrecondition
			}
			return fmt.Errorf("load event: %w", err)
		}
		w, err := tx.WagerForUpdate(ctx, wagerID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errPrecondition
			}
			return fmt.Errorf("load wager: %w", err)
		}

		if w.AccountID != accountID || !w.CanBeCancelled(evt, now) {
			return errPrecondition
		}

		amount, err := w.Refund(now)
		if err != nil {
			return errPrecondition
		}
		if err := tx.UpdateWagerStatus(ctx, w.ID, domain.WagerRefunded, now); err != nil {
			return fmt.Errorf("update wager: %w", err)
		}
		if err := tx.CreditAccount(ctx, accountID, amount, now); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}

		refunded = amount
		return nil
	})
	if errors.Is(err, errPrecondition) {
		s.log.Warn("wager cannot be cancelled",
			zap.String("wagerId", wagerID), zap.String("accountId", accountID))
		return false, nil
	}
	if err != nil {
		return false, s.classify("cancel", accountID, err)
	}

	if s.publ != nil {
		_ = s.publ.PublishWagerRefunded(ctx, ev.WagerRefunded{
			WagerID:   wagerID,
			AccountID: accountID,
			EventID:   w0.EventID,
			Stake:     refunded.String(),
			Ts:        s.now(),
		})
	}
	if s.OnCancelled != nil {
		s.OnCancelled()
	}

	s.log.Info("wager refunded",
		zap.String("wagerId", wagerID),
		zap.String("accountId", accountID),
		zap.String("stake", refunded.String()),
	)
	return true, nil
}

// classify traduz erros da unidade atômica para a taxonomia do ledger
func (s *Service) classify(op, accountID string, err error) error {
	kind := domain.KindOf(err)
	if kind == domain.FaultValidation || kind == domain.FaultNotFound || kind == domain.FaultConflict {
		if s.OnRejected != nil {
			s.OnRejected(string(kind))
		}
		s.log.Warn(op+" rejected", zap.String("accountId", accountID), zap.Error(err))
		return err
	}
	if db.IsTransient(err) {
		s.log.Error(op+" exhausted retries", zap.String("accountId", accountID), zap.Error(err))
		return domain.NewTransient(err.Error())
	}
	s.log.Error(op+" failed", zap.String("accountId", accountID), zap.Error(err))
	return err
}
