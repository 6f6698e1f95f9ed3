package validation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
)

// Limits são os parâmetros configurados de aceitação de apostas.
type Limits struct {
	MinStake decimal.Decimal
	MaxStake decimal.Decimal
	LeadTime time.Duration
}

// Request é o pedido de aposta a validar.
type Request struct {
	AccountID string
	EventID   string
	Team      string
	Stake     decimal.Decimal
}

// Result carrega o veredito e os snapshots úteis ao chamador.
// Odds é o valor que será capturado na aposta caso ela seja criada.
type Result struct {
	OK      bool
	Errors  []string
	Odds    decimal.Decimal
	Balance decimal.Decimal
}

// Check é função pura de (snapshot de conta, snapshot de evento, pedido, limites).
// Não muta estado; é chamável isoladamente (preview) e re-executada dentro da
// unidade atômica de Place com snapshots frescos, porque conta/evento podem
// mudar entre preview e commit.
//
// Ordem das checagens: conta existe, evento existe, evento aberto a apostas,
// equipe válida, saldo suficiente, stake dentro dos limites e com até 2 casas.
func Check(acc *domain.Account, ev *domain.Event, req Request, lim Limits, now time.Time) Result {
	var res Result

	if acc == nil {
		res.Errors = append(res.Errors, "account not found")
		return res
	}
	res.Balance = acc.Balance

	if ev == nil {
		res.Errors = append(res.Errors, "event not found")
		return res
	}

	if !ev.IsAvailableForBetting(now, lim.LeadTime) {
		res.Errors = append(res.Errors, "event is not available for betting")
		return res
	}

	if !ev.IsValidTeam(req.Team) {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid team selection: %s", req.Team))
		return res
	}

	if !acc.HasSufficientBalance(req.Stake) {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"insufficient balance: available %s, required %s", acc.Balance, req.Stake))
		return res
	}

	if req.Stake.LessThan(lim.MinStake) {
		res.Errors = append(res.Errors, fmt.Sprintf("stake is below minimum required: %s", lim.MinStake))
		return res
	}
	if req.Stake.GreaterThan(lim.MaxStake) {
		res.Errors = append(res.Errors, fmt.Sprintf("stake exceeds maximum allowed: %s", lim.MaxStake))
		return res
	}
	if req.Stake.Exponent() < -2 && !req.Stake.Equal(req.Stake.Round(2)) {
		res.Errors = append(res.Errors, "stake must have at most 2 decimal places")
		return res
	}

	odds, _ := ev.OddsForTeam(req.Team)
	res.OK = true
	res.Odds = odds
	return res
}
