package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
)

// Store é a implementação em memória de repo.Store, usada em testes e
// desenvolvimento local. Um único mutex serializa as unidades atômicas,
// que operam sobre uma cópia e só efetivam no commit (all-or-nothing).
type Store struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	events   map[string]*domain.Event
	wagers   map[string]*domain.Wager
}

// New retorna um store vazio
func New() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		events:   make(map[string]*domain.Event),
		wagers:   make(map[string]*domain.Wager),
	}
}

// SeedAccount insere uma conta diretamente (setup de testes)
func (s *Store) SeedAccount(acc domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := acc
	s.accounts[acc.ID] = &cp
}

// SeedEvent insere um evento diretamente (setup de testes)
func (s *Store) SeedEvent(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := ev
	s.events[ev.ID] = &cp
}

// Atomic serializa e executa fn sobre um snapshot; o estado só é trocado
// se fn retornar nil — qualquer erro descarta a unidade inteira
func (s *Store) Atomic(ctx context.Context, fn func(tx repo.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		accounts: cloneMap(s.accounts),
		events:   cloneMap(s.events),
		wagers:   cloneMap(s.wagers),
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.accounts = tx.accounts
	s.events = tx.events
	s.wagers = tx.wagers
	return nil
}

func cloneMap[T any](src map[string]*T) map[string]*T {
	dst := make(map[string]*T, len(src))
	for k, v := range src {
		cp := *v
		dst[k] = &cp
	}
	return dst
}

// GetAccount retorna uma cópia da conta
func (s *Store) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// GetEvent retorna uma cópia do evento
func (s *Store) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// GetWager retorna uma cópia da aposta
func (s *Store) GetWager(_ context.Context, id string) (*domain.Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wagers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

// ListWagersByAccount lista apostas da conta, mais recentes primeiro
func (s *Store) ListWagersByAccount(_ context.Context, accountID string, f repo.WagerFilter) ([]domain.Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Wager
	for _, w := range s.wagers {
		if w.AccountID != accountID {
			continue
		}
		if f.OnlyActive && w.Status != domain.WagerActive {
			continue
		}
		if !f.OnlyActive && f.Status != nil && w.Status != *f.Status {
			continue
		}
		if f.From != nil && w.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && w.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListWagersByEvent lista todas as apostas do evento
func (s *Store) ListWagersByEvent(_ context.Context, eventID string) ([]domain.Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Wager
	for _, w := range s.wagers {
		if w.EventID == eventID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAvailableEvents lista eventos UPCOMING além da janela de lead time
func (s *Store) ListAvailableEvents(_ context.Context, now time.Time, leadTime time.Duration, page, pageSize int) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var all []domain.Event
	for _, e := range s.events {
		if e.Status == domain.EventUpcoming && e.StartsAt.After(now.Add(leadTime)) {
			all = append(all, *e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartsAt.Before(all[j].StartsAt) })

	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// CreateEvent insere um novo evento
func (s *Store) CreateEvent(_ context.Context, ev *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; ok {
		return repo.ErrDuplicate
	}
	cp := *ev
	s.events[ev.ID] = &cp
	return nil
}

// memTx opera sobre cópias; repo.Store troca o estado no commit.
type memTx struct {
	accounts map[string]*domain.Account
	events   map[string]*domain.Event
	wagers   map[string]*domain.Wager
}

func (t *memTx) EventForUpdate(_ context.Context, id string) (*domain.Event, error) {
	e, ok := t.events[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (t *memTx) AccountForUpdate(_ context.Context, id string) (*domain.Account, error) {
	a, ok := t.accounts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (t *memTx) WagerForUpdate(_ context.Context, id string) (*domain.Wager, error) {
	w, ok := t.wagers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (t *memTx) InsertAccount(_ context.Context, acc *domain.Account) error {
	if _, ok := t.accounts[acc.ID]; ok {
		return repo.ErrDuplicate
	}
	cp := *acc
	t.accounts[acc.ID] = &cp
	return nil
}

func (t *memTx) DebitAccount(_ context.Context, id string, amount decimal.Decimal, now time.Time) error {
	a, ok := t.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	if a.Balance.LessThan(amount) {
		return repo.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = now
	return nil
}

func (t *memTx) CreditAccount(_ context.Context, id string, amount decimal.Decimal, now time.Time) error {
	a, ok := t.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = now
	return nil
}

func (t *memTx) InsertWager(_ context.Context, w *domain.Wager) error {
	if _, ok := t.wagers[w.ID]; ok {
		return repo.ErrDuplicate
	}
	cp := *w
	t.wagers[w.ID] = &cp
	return nil
}

func (t *memTx) UpdateWagerStatus(_ context.Context, id string, status domain.WagerStatus, now time.Time) error {
	w, ok := t.wagers[id]
	if !ok {
		return repo.ErrNotFound
	}
	w.Status = status
	w.UpdatedAt = now
	return nil
}

func (t *memTx) ActiveWagersByEvent(_ context.Context, eventID string) ([]domain.Wager, error) {
	var out []domain.Wager
	for _, w := range t.wagers {
		if w.EventID == eventID && w.Status == domain.WagerActive {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) SetEventStatus(_ context.Context, id string, status domain.EventStatus, now time.Time) error {
	e, ok := t.events[id]
	if !ok {
		return repo.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = now
	return nil
}
