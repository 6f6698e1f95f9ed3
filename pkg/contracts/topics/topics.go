package topics

const (
	// Ciclo de vida de apostas
	WagerPlaced   = "wager_placed"
	WagerRefunded = "wager_refunded"

	// Liquidação de eventos
	EventSettled = "event_settled"

	// Feed externo de resultados (consumido pelo settlement-worker)
	EventResults    = "event_results"
	EventResultsDLQ = "event_results_dlq"
)
