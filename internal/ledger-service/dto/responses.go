package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type WagerResponse struct {
	ID              string          `json:"id"`
	EventID         string          `json:"event_id"`
	EventName       string          `json:"event_name,omitempty"`
	Team            string          `json:"team"`
	Stake           decimal.Decimal `json:"stake"`
	Odds            decimal.Decimal `json:"odds"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`

	EventStatus    string    `json:"event_status,omitempty"`
	EventStartsAt  time.Time `json:"event_starts_at,omitempty"`
	CanCancel      bool      `json:"can_cancel"`
	TimeUntilStart string    `json:"time_until_start,omitempty"`
}

type ValidateResponse struct {
	OK      bool            `json:"ok"`
	Errors  []string        `json:"errors,omitempty"`
	Odds    decimal.Decimal `json:"odds,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

type SettlementResponse struct {
	EventID     string          `json:"event_id"`
	WinningTeam string          `json:"winning_team"`
	Processed   int             `json:"processed"`
	Winners     int             `json:"winners"`
	Losers      int             `json:"losers"`
	TotalPayout decimal.Decimal `json:"total_payout"`
	SettledAt   time.Time       `json:"settled_at"`
}

type AccountStatsResponse struct {
	TotalWagers         int             `json:"total_wagers"`
	ActiveWagers        int             `json:"active_wagers"`
	WonWagers           int             `json:"won_wagers"`
	LostWagers          int             `json:"lost_wagers"`
	RefundedWagers      int             `json:"refunded_wagers"`
	TotalStaked         decimal.Decimal `json:"total_staked"`
	TotalWinnings       decimal.Decimal `json:"total_winnings"`
	CurrentPotentialWin decimal.Decimal `json:"current_potential_win"`
	AverageStake        decimal.Decimal `json:"average_stake"`
	WinRate             float64         `json:"win_rate"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"`
}
