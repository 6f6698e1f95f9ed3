package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account guarda o saldo monetário de um usuário.
// O saldo só é mutado pelas operações do ledger (débito guardado e crédito);
// nunca fica negativo.
type Account struct {
	ID        string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSufficientBalance reporta se o saldo cobre o valor (positivo) informado
func (a *Account) HasSufficientBalance(amount decimal.Decimal) bool {
	return amount.IsPositive() && a.Balance.GreaterThanOrEqual(amount)
}
