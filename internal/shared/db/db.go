package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/lib/pq"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// InTx executa fn dentro de uma transação com rollback garantido em erro.
// Qualquer falha em qualquer passo desfaz a unidade inteira.
func InTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InTxRetry repete a unidade atômica inteira em falhas transitórias
// (conflito de serialização, deadlock, queda de conexão), com backoff crescente.
// Cada tentativa parte de estado fresco; nunca aplica efeito parcial.
func InTxRetry(ctx context.Context, conn *sql.DB, maxRetries int, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = InTx(ctx, conn, fn)
		if err == nil || !IsTransient(err) || attempt >= maxRetries {
			return err
		}
		select {
		case <-time.After(time.Duration(300*(attempt+1)) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// IsTransient identifica erros que valem nova tentativa da transação:
// 40001 (serialization_failure), 40P01 (deadlock_detected) e
// falhas de conexão (classe 08 ou erro de rede).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		if code == "40001" || code == "40P01" {
			return true
		}
		if pqErr.Code.Class() == "08" { // connection exceptions
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, sql.ErrConnDone) || errors.Is(err, io.EOF)
}
