package events

// Evento publicado no tópico "wager_placed" após o commit da aposta.
// Stake e odds viajam como string decimal para não perder precisão no JSON.
type WagerPlaced struct {
	WagerID   string `json:"wager_id"`
	AccountID string `json:"account_id"`
	EventID   string `json:"event_id"`
	Team      string `json:"team"`
	Stake     string `json:"stake"`
	Odds      string `json:"odds"` // odds capturadas no momento da aposta
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
