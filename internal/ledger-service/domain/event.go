package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus é o ciclo de vida de um evento de duas equipes.
type EventStatus string

const (
	EventUpcoming  EventStatus = "UPCOMING"
	EventLive      EventStatus = "LIVE"
	EventFinished  EventStatus = "FINISHED"
	EventCancelled EventStatus = "CANCELLED"
)

// Event é um confronto de duas equipes com odds fixas e horário agendado.
// A transição para FINISHED acontece uma única vez, somente via liquidação.
type Event struct {
	ID        string
	Name      string
	TeamA     string
	TeamB     string
	TeamAOdds decimal.Decimal
	TeamBOdds decimal.Decimal
	StartsAt  time.Time
	Status    EventStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAvailableForBetting reporta se o evento ainda aceita apostas:
// status UPCOMING e mais de leadTime antes do início
func (e *Event) IsAvailableForBetting(now time.Time, leadTime time.Duration) bool {
	return e.Status == EventUpcoming && now.Before(e.StartsAt.Add(-leadTime))
}

// IsValidTeam reporta se o nome corresponde a uma das duas equipes
// (comparação case-insensitive)
func (e *Event) IsValidTeam(team string) bool {
	return team != "" &&
		(strings.EqualFold(team, e.TeamA) || strings.EqualFold(team, e.TeamB))
}

// OddsForTeam retorna as odds fixas da equipe escolhida
func (e *Event) OddsForTeam(team string) (decimal.Decimal, bool) {
	switch {
	case strings.EqualFold(team, e.TeamA):
		return e.TeamAOdds, true
	case strings.EqualFold(team, e.TeamB):
		return e.TeamBOdds, true
	}
	return decimal.Decimal{}, false
}

// eventTransitions enumera as transições permitidas de status.
// FINISHED e CANCELLED são terminais.
var eventTransitions = map[EventStatus][]EventStatus{
	EventUpcoming:  {EventLive, EventFinished, EventCancelled},
	EventLive:      {EventFinished, EventCancelled},
	EventFinished:  {},
	EventCancelled: {},
}

// CanTransitionTo reporta se a mudança de status é permitida
func (e *Event) CanTransitionTo(next EventStatus) bool {
	for _, s := range eventTransitions[e.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// FormatTimeUntil descreve quanto falta para o início do evento,
// no maior grão inteiro (dias, horas ou minutos)
func FormatTimeUntil(now, startsAt time.Time) string {
	d := startsAt.Sub(now)
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%d days", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	default:
		return "Starting soon"
	}
}

// Finish marca o evento como FINISHED; exclusivo da liquidação
func (e *Event) Finish(now time.Time) error {
	if !e.CanTransitionTo(EventFinished) {
		return NewConflict("event " + e.ID + " cannot be finished from status " + string(e.Status))
	}
	e.Status = EventFinished
	e.UpdatedAt = now
	return nil
}
