package events

import "time"

// Evento publicado quando uma aposta Active é cancelada e o stake devolvido.
type WagerRefunded struct {
	WagerID   string    `json:"wager_id"`
	AccountID string    `json:"account_id"`
	EventID   string    `json:"event_id"`
	Stake     string    `json:"stake"`
	Ts        time.Time `json:"ts"`
}
