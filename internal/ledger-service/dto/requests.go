package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlaceWagerRequest struct {
	EventID string          `json:"event_id"`
	Team    string          `json:"team"`
	Stake   decimal.Decimal `json:"stake"`
}

// ValidateWagerRequest é o mesmo payload de Place, usado no preview
type ValidateWagerRequest = PlaceWagerRequest

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type CreateEventRequest struct {
	Name      string          `json:"name"`
	TeamA     string          `json:"team_a"`
	TeamB     string          `json:"team_b"`
	TeamAOdds decimal.Decimal `json:"team_a_odds"`
	TeamBOdds decimal.Decimal `json:"team_b_odds"`
	StartsAt  time.Time       `json:"starts_at"`
}

type UpdateEventStatusRequest struct {
	Status string `json:"status"` // "LIVE" | "CANCELLED"
}

type SettleEventRequest struct {
	WinningTeam string `json:"winning_team"`
}
