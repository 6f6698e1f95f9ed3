package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/repo"
	"github.com/radieske/bet-ledger-core/internal/shared/db"
)

// Postgres implementa repo.Store sobre um banco Postgres.
// Retries: toda unidade atômica é re-executada em falha transitória,
// até maxRetries vezes, com backoff crescente.
type Postgres struct {
	conn       *sql.DB
	maxRetries int
}

// New retorna o store Postgres do ledger
func New(conn *sql.DB, maxRetries int) *Postgres {
	return &Postgres{conn: conn, maxRetries: maxRetries}
}

// Atomic executa fn dentro de uma transação all-or-nothing com retry transitório
func (p *Postgres) Atomic(ctx context.Context, fn func(tx repo.Tx) error) error {
	return db.InTxRetry(ctx, p.conn, p.maxRetries, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

const accountCols = `id, balance, created_at, updated_at`

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const eventCols = `id, name, team_a, team_b, team_a_odds, team_b_odds, starts_at, status, created_at, updated_at`

func scanEvent(row *sql.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Name, &e.TeamA, &e.TeamB, &e.TeamAOdds, &e.TeamBOdds,
		&e.StartsAt, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const wagerCols = `id, account_id, event_id, team, stake, odds, status, created_at, updated_at`

func scanWager(row *sql.Row) (*domain.Wager, error) {
	var w domain.Wager
	err := row.Scan(&w.ID, &w.AccountID, &w.EventID, &w.Team, &w.Stake, &w.Odds,
		&w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetAccount lê um snapshot da conta (sem lock)
func (p *Postgres) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(p.conn.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1`, id))
}

// GetEvent lê um snapshot do evento (sem lock)
func (p *Postgres) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return scanEvent(p.conn.QueryRowContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE id=$1`, id))
}

// GetWager lê um snapshot da aposta (sem lock)
func (p *Postgres) GetWager(ctx context.Context, id string) (*domain.Wager, error) {
	return scanWager(p.conn.QueryRowContext(ctx,
		`SELECT `+wagerCols+` FROM wagers WHERE id=$1`, id))
}

// ListWagersByAccount lista apostas de uma conta, mais recentes primeiro,
// aplicando o filtro opcional
func (p *Postgres) ListWagersByAccount(ctx context.Context, accountID string, f repo.WagerFilter) ([]domain.Wager, error) {
	q := `SELECT ` + wagerCols + ` FROM wagers WHERE account_id=$1`
	args := []any{accountID}

	if f.OnlyActive {
		q += fmt.Sprintf(" AND status=$%d", len(args)+1)
		args = append(args, domain.WagerActive)
	} else if f.Status != nil {
		q += fmt.Sprintf(" AND status=$%d", len(args)+1)
		args = append(args, *f.Status)
	}
	if f.From != nil {
		q += fmt.Sprintf(" AND created_at >= $%d", len(args)+1)
		args = append(args, *f.From)
	}
	if f.To != nil {
		q += fmt.Sprintf(" AND created_at <= $%d", len(args)+1)
		args = append(args, *f.To)
	}
	q += ` ORDER BY created_at DESC`

	return p.queryWagers(ctx, q, args...)
}

// ListWagersByEvent lista todas as apostas de um evento
func (p *Postgres) ListWagersByEvent(ctx context.Context, eventID string) ([]domain.Wager, error) {
	return p.queryWagers(ctx,
		`SELECT `+wagerCols+` FROM wagers WHERE event_id=$1 ORDER BY created_at DESC`, eventID)
}

func (p *Postgres) queryWagers(ctx context.Context, q string, args ...any) ([]domain.Wager, error) {
	rows, err := p.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Wager
	for rows.Next() {
		var w domain.Wager
		if err := rows.Scan(&w.ID, &w.AccountID, &w.EventID, &w.Team, &w.Stake, &w.Odds,
			&w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListAvailableEvents lista eventos ainda abertos a apostas
// (UPCOMING e além da janela de lead time), paginados por data de início
func (p *Postgres) ListAvailableEvents(ctx context.Context, now time.Time, leadTime time.Duration, page, pageSize int) ([]domain.Event, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	rows, err := p.conn.QueryContext(ctx, `
		SELECT `+eventCols+`
		FROM events
		WHERE status=$1 AND starts_at > $2
		ORDER BY starts_at
		LIMIT $3 OFFSET $4`,
		domain.EventUpcoming, now.Add(leadTime), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.TeamA, &e.TeamB, &e.TeamAOdds, &e.TeamBOdds,
			&e.StartsAt, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateEvent insere um novo evento UPCOMING
func (p *Postgres) CreateEvent(ctx context.Context, ev *domain.Event) error {
	_, err := p.conn.ExecContext(ctx, `
		INSERT INTO events (`+eventCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		ev.ID, ev.Name, ev.TeamA, ev.TeamB, ev.TeamAOdds, ev.TeamBOdds,
		ev.StartsAt, ev.Status, ev.CreatedAt, ev.UpdatedAt,
	)
	return err
}

// pgTx implementa repo.Tx sobre uma transação aberta.
type pgTx struct{ tx *sql.Tx }

// EventForUpdate lê o evento travando a linha (serializa place × settle)
func (t *pgTx) EventForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return scanEvent(t.tx.QueryRowContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE id=$1 FOR UPDATE`, id))
}

// AccountForUpdate lê a conta travando a linha (serializa débitos concorrentes)
func (t *pgTx) AccountForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(t.tx.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1 FOR UPDATE`, id))
}

// WagerForUpdate lê a aposta travando a linha
func (t *pgTx) WagerForUpdate(ctx context.Context, id string) (*domain.Wager, error) {
	return scanWager(t.tx.QueryRowContext(ctx,
		`SELECT `+wagerCols+` FROM wagers WHERE id=$1 FOR UPDATE`, id))
}

// InsertAccount cria a conta com o saldo inicial informado
func (t *pgTx) InsertAccount(ctx context.Context, acc *domain.Account) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (`+accountCols+`) VALUES ($1,$2,$3,$4)`,
		acc.ID, acc.Balance, acc.CreatedAt, acc.UpdatedAt)
	return err
}

// DebitAccount debita com guarda: o UPDATE só aplica se o saldo cobrir o valor.
// Zero linhas afetadas significa saldo insuficiente e aborta a unidade.
func (t *pgTx) DebitAccount(ctx context.Context, id string, amount decimal.Decimal, now time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - $1, updated_at = $2
		WHERE id = $3 AND balance >= $1`,
		amount, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrInsufficientFunds
	}
	return nil
}

// CreditAccount incrementa o saldo da conta
func (t *pgTx) CreditAccount(ctx context.Context, id string, amount decimal.Decimal, now time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = $2
		WHERE id = $3`,
		amount, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// InsertWager insere uma nova aposta
func (t *pgTx) InsertWager(ctx context.Context, w *domain.Wager) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO wagers (`+wagerCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		w.ID, w.AccountID, w.EventID, w.Team, w.Stake, w.Odds,
		w.Status, w.CreatedAt, w.UpdatedAt)
	return err
}

// UpdateWagerStatus grava a transição de status da aposta
func (t *pgTx) UpdateWagerStatus(ctx context.Context, id string, status domain.WagerStatus, now time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE wagers SET status=$1, updated_at=$2 WHERE id=$3`, status, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ActiveWagersByEvent carrega as apostas ACTIVE do evento, travando as linhas;
// é o conjunto que a liquidação processa como operação única
func (t *pgTx) ActiveWagersByEvent(ctx context.Context, eventID string) ([]domain.Wager, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+wagerCols+` FROM wagers
		WHERE event_id=$1 AND status=$2
		ORDER BY created_at
		FOR UPDATE`,
		eventID, domain.WagerActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Wager
	for rows.Next() {
		var w domain.Wager
		if err := rows.Scan(&w.ID, &w.AccountID, &w.EventID, &w.Team, &w.Stake, &w.Odds,
			&w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SetEventStatus grava a transição de status do evento
func (t *pgTx) SetEventStatus(ctx context.Context, id string, status domain.EventStatus, now time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE events SET status=$1, updated_at=$2 WHERE id=$3`, status, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}
