package events

import "time"

// Resultado declarado por um feed externo; dispara a liquidação do evento.
type EventResult struct {
	EventID     string    `json:"event_id"`
	WinningTeam string    `json:"winning_team"`
	Source      string    `json:"source"` // ex: "result-simulator"
	DeclaredAt  time.Time `json:"declared_at"`
}
