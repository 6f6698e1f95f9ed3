package events

import "time"

// Evento publicado no tópico "event_settled" após a liquidação completa.
type EventSettled struct {
	EventID     string    `json:"event_id"`
	WinningTeam string    `json:"winning_team"`
	Processed   int       `json:"processed"`
	Winners     int       `json:"winners"`
	Losers      int       `json:"losers"`
	TotalPayout string    `json:"total_payout"`
	SettledAt   time.Time `json:"settled_at"`
}
