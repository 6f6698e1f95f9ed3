package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
)

// GetOrCreateAccount retorna a conta do usuário, provisionando-a com o saldo
// inicial configurado quando ainda não existe. A identidade vem autenticada
// da camada externa.
func (s *Service) GetOrCreateAccount(ctx context.Context, accountID string) (*domain.Account, bool, error) {
	var (
		acc     *domain.Account
		created bool
	)
	err := s.store.Atomic(ctx, func(tx repo.Tx) error {
		existing, err := tx.AccountForUpdate(ctx, accountID)
		if err == nil {
			acc = existing
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("load account: %w", err)
		}

		now := s.now()
		acc = &domain.Account{
			ID:        accountID,
			Balance:   s.params.InitialBalance,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created = true
		return tx.InsertAccount(ctx, acc)
	})
	if err != nil {
		return nil, false, s.classify("provision account", accountID, err)
	}

	if created {
		s.log.Info("account provisioned",
			zap.String("accountId", accountID),
			zap.String("balance", acc.Balance.String()),
		)
	}
	return acc, created, nil
}

// GetAccount retorna um snapshot da conta
func (s *Service) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, domain.NewNotFound("account")
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acc, nil
}

// Deposit credita valor positivo na conta, atomicamente
func (s *Service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, domain.NewValidation("deposit amount must be positive")
	}

	var acc *domain.Account
	err := s.store.Atomic(ctx, func(tx repo.Tx) error {
		now := s.now()
		existing, err := tx.AccountForUpdate(ctx, accountID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.NewNotFound("account")
			}
			return fmt.Errorf("load account: %w", err)
		}
		if err := tx.CreditAccount(ctx, accountID, amount, now); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		existing.Balance = existing.Balance.Add(amount)
		existing.UpdatedAt = now
		acc = existing
		return nil
	})
	if err != nil {
		return nil, s.classify("deposit", accountID, err)
	}

	s.log.Info("deposit applied",
		zap.String("accountId", accountID),
		zap.String("amount", amount.String()),
	)
	return acc, nil
}
