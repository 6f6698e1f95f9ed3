package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
)

// minStartLead é a antecedência mínima para criar um evento novo.
const minStartLead = time.Hour

var (
	oddsFloor   = decimal.NewFromInt(1)
	oddsCeiling = decimal.NewFromInt(50)
)

// CreateEventInput é o pedido de criação de evento.
type CreateEventInput struct {
	Name      string
	TeamA     string
	TeamB     string
	TeamAOdds decimal.Decimal
	TeamBOdds decimal.Decimal
	StartsAt  time.Time
}

// WagerSummary é o resumo de uma aposta exibido no detalhe do evento.
type WagerSummary struct {
	ID        string             `json:"id"`
	Team      string             `json:"team"`
	Stake     decimal.Decimal    `json:"stake"`
	Status    domain.WagerStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// Summary é um evento disponível com agregados de apostas.
type Summary struct {
	Event          domain.Event    `json:"event"`
	CanPlaceBets   bool            `json:"can_place_bets"`
	TimeUntilStart string          `json:"time_until_start"`
	TotalWagered   decimal.Decimal `json:"total_wagered"`
	WagerCount     int             `json:"wager_count"`
}

// Detail é o snapshot completo de um evento; os campos derivados são
// computados na leitura, nunca armazenados.
type Detail struct {
	Summary
	TeamATotal   decimal.Decimal `json:"team_a_total"`
	TeamBTotal   decimal.Decimal `json:"team_b_total"`
	TeamACount   int             `json:"team_a_count"`
	TeamBCount   int             `json:"team_b_count"`
	RecentWagers []WagerSummary  `json:"recent_wagers"`
}

// Service é o catálogo de eventos: criação, listagem e detalhe.
// Status FINISHED é exclusivo da liquidação; aqui só transições manuais
// (UPCOMING→LIVE, →CANCELLED).
type Service struct {
	log      *zap.Logger
	store    repo.Store
	cache    *Cache // opcional
	leadTime time.Duration
	now      func() time.Time
}

// NewService instancia o catálogo de eventos
func NewService(log *zap.Logger, store repo.Store, cache *Cache, leadTime time.Duration) *Service {
	return &Service{log: log, store: store, cache: cache, leadTime: leadTime, now: time.Now}
}

// Create valida e insere um evento novo, sempre UPCOMING
func (s *Service) Create(ctx context.Context, in CreateEventInput) (*domain.Event, error) {
	var reasons []string
	if len(strings.TrimSpace(in.Name)) < 5 {
		reasons = append(reasons, "event name must be at least 5 characters")
	}
	teamA, teamB := strings.TrimSpace(in.TeamA), strings.TrimSpace(in.TeamB)
	if teamA == "" || teamB == "" {
		reasons = append(reasons, "both teams are required")
	} else if strings.EqualFold(teamA, teamB) {
		reasons = append(reasons, "teams must be distinct")
	}
	for _, odds := range []decimal.Decimal{in.TeamAOdds, in.TeamBOdds} {
		if odds.LessThanOrEqual(oddsFloor) || odds.GreaterThan(oddsCeiling) {
			reasons = append(reasons, "odds must be greater than 1.0 and at most 50.0")
			break
		}
	}
	now := s.now()
	if !in.StartsAt.After(now.Add(minStartLead)) {
		reasons = append(reasons, "event must start at least 1 hour in the future")
	}
	if len(reasons) > 0 {
		return nil, domain.NewValidation(reasons...)
	}

	evt := &domain.Event{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		TeamA:     teamA,
		TeamB:     teamB,
		TeamAOdds: in.TeamAOdds,
		TeamBOdds: in.TeamBOdds,
		StartsAt:  in.StartsAt,
		Status:    domain.EventUpcoming,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateEvent(ctx, evt); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.log.Info("event created",
		zap.String("eventId", evt.ID),
		zap.String("name", evt.Name),
	)
	return evt, nil
}

// ListAvailable lista eventos abertos a apostas, com agregados por evento
func (s *Service) ListAvailable(ctx context.Context, page, pageSize int) ([]Summary, error) {
	now := s.now()
	evts, err := s.store.ListAvailableEvents(ctx, now, s.leadTime, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]Summary, 0, len(evts))
	for _, evt := range evts {
		wagers, err := s.store.ListWagersByEvent(ctx, evt.ID)
		if err != nil {
			return nil, fmt.Errorf("list wagers for event %s: %w", evt.ID, err)
		}
		sum := Summary{
			Event:          evt,
			CanPlaceBets:   evt.IsAvailableForBetting(now, s.leadTime),
			TimeUntilStart: domain.FormatTimeUntil(now, evt.StartsAt),
			WagerCount:     len(wagers),
		}
		for _, w := range wagers {
			sum.TotalWagered = sum.TotalWagered.Add(w.Stake)
		}
		out = append(out, sum)
	}
	return out, nil
}

// GetDetail retorna o snapshot completo do evento, com cache Redis best-effort
func (s *Service) GetDetail(ctx context.Context, eventID string) (*Detail, error) {
	if s.cache != nil {
		var cached Detail
		if ok, _ := s.cache.GetDetail(ctx, eventID, &cached); ok {
			return &cached, nil
		}
	}

	evt, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, domain.NewNotFound("event")
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	wagers, err := s.store.ListWagersByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list wagers: %w", err)
	}

	now := s.now()
	detail := &Detail{
		Summary: Summary{
			Event:          *evt,
			CanPlaceBets:   evt.IsAvailableForBetting(now, s.leadTime),
			TimeUntilStart: domain.FormatTimeUntil(now, evt.StartsAt),
			WagerCount:     len(wagers),
		},
	}
	for _, w := range wagers {
		detail.TotalWagered = detail.TotalWagered.Add(w.Stake)
		if strings.EqualFold(w.Team, evt.TeamA) {
			detail.TeamATotal = detail.TeamATotal.Add(w.Stake)
			detail.TeamACount++
		} else {
			detail.TeamBTotal = detail.TeamBTotal.Add(w.Stake)
			detail.TeamBCount++
		}
	}
	// lista já vem ordenada, mais recentes primeiro
	for i, w := range wagers {
		if i == 10 {
			break
		}
		detail.RecentWagers = append(detail.RecentWagers, WagerSummary{
			ID:        w.ID,
			Team:      w.Team,
			Stake:     w.Stake,
			Status:    w.Status,
			CreatedAt: w.CreatedAt,
		})
	}

	if s.cache != nil {
		_ = s.cache.SetDetail(ctx, eventID, detail)
	}
	return detail, nil
}

// UpdateStatus aplica transição manual de status (ex: UPCOMING→LIVE).
// FINISHED é rejeitado aqui: só a liquidação fecha evento.
func (s *Service) UpdateStatus(ctx context.Context, eventID string, next domain.EventStatus) error {
	if next == domain.EventFinished {
		return domain.NewConflict("events are finished by settlement only")
	}
	switch next {
	case domain.EventUpcoming, domain.EventLive, domain.EventCancelled:
	default:
		return domain.NewValidation(fmt.Sprintf("unknown event status: %s", next))
	}

	err := s.store.Atomic(ctx, func(tx repo.Tx) error {
		evt, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.NewNotFound("event")
			}
			return fmt.Errorf("load event: %w", err)
		}
		if !evt.CanTransitionTo(next) {
			return domain.NewConflict(fmt.Sprintf(
				"event %s cannot transition from %s to %s", eventID, evt.Status, next))
		}
		return tx.SetEventStatus(ctx, eventID, next, s.now())
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, eventID)
	}
	s.log.Info("event status updated",
		zap.String("eventId", eventID),
		zap.String("status", string(next)),
	)
	return nil
}

// InvalidateDetail descarta o snapshot em cache (chamado após liquidação)
func (s *Service) InvalidateDetail(ctx context.Context, eventID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, eventID)
	}
}
