package repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate record")
)

// WagerFilter restringe a listagem de apostas de uma conta.
type WagerFilter struct {
	Status     *domain.WagerStatus
	From       *time.Time
	To         *time.Time
	OnlyActive bool
}

// Store abre unidades atômicas de trabalho e leituras point-in-time
// sobre contas, eventos e apostas.
type Store interface {
	// Atomic executa fn como unidade all-or-nothing. Falhas transitórias
	// (conflito de escrita, queda de conexão) re-executam a unidade inteira,
	// um número limitado de vezes, sempre partindo de estado fresco.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// Snapshots fora de transação; ausência retorna ErrNotFound.
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	GetWager(ctx context.Context, id string) (*domain.Wager, error)

	ListWagersByAccount(ctx context.Context, accountID string, f WagerFilter) ([]domain.Wager, error)
	ListWagersByEvent(ctx context.Context, eventID string) ([]domain.Wager, error)
	ListAvailableEvents(ctx context.Context, now time.Time, leadTime time.Duration, page, pageSize int) ([]domain.Event, error)

	CreateEvent(ctx context.Context, ev *domain.Event) error
}

// Tx é o acesso dentro da unidade atômica. Toda leitura aqui é fresca
// (re-lida dentro da transação) e trava a linha correspondente, de modo que
// operações conflitantes sobre a mesma conta ou o mesmo evento serializem.
//
// Ordem de travamento: evento antes de conta, conta antes de aposta.
type Tx interface {
	EventForUpdate(ctx context.Context, id string) (*domain.Event, error)
	AccountForUpdate(ctx context.Context, id string) (*domain.Account, error)
	WagerForUpdate(ctx context.Context, id string) (*domain.Wager, error)

	InsertAccount(ctx context.Context, acc *domain.Account) error

	// DebitAccount falha com ErrInsufficientFunds se o saldo ficaria negativo;
	// é o único ponto que garante a invariante de saldo não-negativo.
	DebitAccount(ctx context.Context, id string, amount decimal.Decimal, now time.Time) error
	CreditAccount(ctx context.Context, id string, amount decimal.Decimal, now time.Time) error

	InsertWager(ctx context.Context, w *domain.Wager) error
	UpdateWagerStatus(ctx context.Context, id string, status domain.WagerStatus, now time.Time) error
	ActiveWagersByEvent(ctx context.Context, eventID string) ([]domain.Wager, error)

	SetEventStatus(ctx context.Context, id string, status domain.EventStatus, now time.Time) error
}
