package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/dto"
	evsvc "github.com/radieske/bet-ledger-core/internal/ledger-service/events"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/ledger"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/settlement"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/validation"
)

// accountHeader carrega a identidade autenticada pela camada externa.
const accountHeader = "X-Account-ID"

// Server expõe a API fina do ledger; toda regra vive nos serviços.
type Server struct {
	log     *zap.Logger
	ledger  *ledger.Service
	settler *settlement.Settler
	events  *evsvc.Service
}

// NewServer instancia o servidor HTTP do ledger
func NewServer(log *zap.Logger, l *ledger.Service, s *settlement.Settler, e *evsvc.Service) *Server {
	return &Server{log: log, ledger: l, settler: s, events: e}
}

// Router retorna as rotas da API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/accounts", s.provisionAccount)
	r.Get("/v1/accounts/me", s.getAccount)
	r.Post("/v1/accounts/deposit", s.deposit)

	r.Post("/v1/wagers", s.placeWager)
	r.Post("/v1/wagers/validate", s.validateWager)
	r.Delete("/v1/wagers/{id}", s.cancelWager)
	r.Get("/v1/wagers", s.listWagers)
	r.Get("/v1/wagers/stats", s.wagerStats)

	r.Get("/v1/events", s.listEvents)
	r.Post("/v1/events", s.createEvent)
	r.Get("/v1/events/{id}", s.eventDetail)
	r.Put("/v1/events/{id}/status", s.updateEventStatus)
	r.Post("/v1/events/{id}/settle", s.settleEvent)

	return r
}

func (s *Server) provisionAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.identity(w, r)
	if !ok {
		return
	}
	acc, created, err := s.ledger.GetOrCreateAccount(r.Context(), accountID)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, dto.AccountResponse{
		AccountID: acc.ID,
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt,
	})
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.identity(w, r)
	if !ok {
		return
	}
	acc, err := s.ledger.GetAccount(r.Context(), accountID)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountResponse{
		AccountID: acc.ID,
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt,
	})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.identity(w, r)
	if !ok {
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	acc, err := s.ledger.Deposit(r.Context(), accountID, req.Amount)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountResponse{
		AccountID: acc.ID,
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt,
	})
}

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.identity(w, r)
	if !ok {
		return
	}
	var req dto.PlaceWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.EventID == "" || req.Team == "" || !req.Stake.IsPositive() {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}

	wager, err := s.ledger.PlaceWager(r.Context(), validation.Request{
		AccountID: accountID,
		EventID:   req.EventID,
		Team:      req.Team,
		Stake:     req.Stake,
	})
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.WagerResponse{
		ID:              wager.ID,
		EventID:         wager.EventID,
		Team:            wager.Team,
		Stake:           wager.Stake,
		Odds:            wager.Odds,
		PotentialPayout: wager.PotentialPayout(),
		Status:          string(wager.Status),
		CreatedAt:       wager.CreatedAt,
	})
}

func (s *Server) validateWager(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.identity(w, r)
	if !ok {
		return
	}
	var req dto.ValidateWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	res, err := s.ledger.Validate(r.Context(), validation.Request{
		AccountID: accountID,
		EventID:   req.EventID,
		Team:      req.Team,
		Stake:     req.Stake,
	})
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ValidateResponse{
		OK:      res.OK,
		Errors:  res.Errors,
		Odds:    res.Odds,
		Balance: res.Balance,
	})
}

func (s *Server) cancelWager(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.identity(w, r)
	if !ok {
		return
	}
	wagerID := chi.URLParam(r, "id")
	cancelled, err := s.ledger.CancelWager(r.Context(), accountID, wagerID)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	if !cancelled {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "wager cannot be cancelled"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.WagerRefunded)})
}

func (s *Server) listWagers(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.identity(w, r)
	if !ok {
		return
	}

	var f repo.WagerFilter
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st := domain.WagerStatus(v)
		f.Status = &st
	}
	if q.Get("only_active") == "true" {
		f.OnlyActive = true
	}
	if v := q.Get("from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &ts
		}
	}
	if v := q.Get("to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &ts
		}
	}

	views, err := s.ledger.WagersForAccount(r.Context(), accountID, f)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	out := make([]dto.WagerResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.WagerResponse{
			ID:              v.Wager.ID,
			EventID:         v.Wager.EventID,
			EventName:       v.EventName,
			Team:            v.Wager.Team,
			Stake:           v.Wager.Stake,
			Odds:            v.Wager.Odds,
			PotentialPayout: v.PotentialPayout,
			Status:          string(v.Wager.Status),
			CreatedAt:       v.Wager.CreatedAt,
			EventStatus:     string(v.EventStatus),
			EventStartsAt:   v.EventStartsAt,
			CanCancel:       v.CanCancel,
			TimeUntilStart:  v.TimeUntilStart,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) wagerStats(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.identity(w, r)
	if !ok {
		return
	}
	stats, err := s.ledger.StatsForAccount(r.Context(), accountID)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountStatsResponse{
		TotalWagers:         stats.TotalWagers,
		ActiveWagers:        stats.ActiveWagers,
		WonWagers:           stats.WonWagers,
		LostWagers:          stats.LostWagers,
		RefundedWagers:      stats.RefundedWagers,
		TotalStaked:         stats.TotalStaked,
		TotalWinnings:       stats.TotalWinnings,
		CurrentPotentialWin: stats.CurrentPotentialWin,
		AverageStake:        stats.AverageStake,
		WinRate:             stats.WinRate,
	})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	evts, err := s.events.ListAvailable(r.Context(), page, pageSize)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evts)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	evt, err := s.events.Create(r.Context(), evsvc.CreateEventInput{
		Name:      req.Name,
		TeamA:     req.TeamA,
		TeamB:     req.TeamB,
		TeamAOdds: req.TeamAOdds,
		TeamBOdds: req.TeamBOdds,
		StartsAt:  req.StartsAt,
	})
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, evt)
}

func (s *Server) eventDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.events.GetDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) updateEventStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateEventStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.events.UpdateStatus(r.Context(), id, domain.EventStatus(req.Status)); err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (s *Server) settleEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	id := chi.URLParam(r, "id")
	result, err := s.settler.SettleEvent(r.Context(), id, req.WinningTeam)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	s.events.InvalidateDetail(r.Context(), id)

	writeJSON(w, http.StatusOK, dto.SettlementResponse{
		EventID:     result.EventID,
		WinningTeam: result.WinningTeam,
		Processed:   result.Processed,
		Winners:     result.Winners,
		Losers:      result.Losers,
		TotalPayout: result.TotalPayout,
		SettledAt:   result.SettledAt,
	})
}

// identity extrai a conta autenticada do header; 401 se ausente
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := r.Header.Get(accountHeader)
	if accountID == "" {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: accountHeader + " required"})
		return "", false
	}
	return accountID, true
}

// writeFault mapeia a taxonomia de falhas para status HTTP
func (s *Server) writeFault(w http.ResponseWriter, err error) {
	var f *domain.Fault
	if errors.As(err, &f) {
		status := http.StatusInternalServerError
		switch f.Kind {
		case domain.FaultValidation:
			status = http.StatusBadRequest
		case domain.FaultNotFound:
			status = http.StatusNotFound
		case domain.FaultConflict:
			status = http.StatusConflict
		case domain.FaultTransient:
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, dto.ErrorResponse{Error: string(f.Kind), Reasons: f.Reasons})
		return
	}
	s.log.Error("unhandled error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
