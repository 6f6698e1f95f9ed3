package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-core/internal/shared/config"
	"github.com/radieske/bet-ledger-core/internal/shared/db"
	kshared "github.com/radieske/bet-ledger-core/internal/shared/kafka"
	"github.com/radieske/bet-ledger-core/internal/shared/logger"
	"github.com/radieske/bet-ledger-core/internal/shared/metrics"
	ev "github.com/radieske/bet-ledger-core/pkg/contracts/events"
)

// Métricas de publicação de resultados simulados
var (
	resultsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_results_published_total",
		Help: "Resultados simulados publicados",
	})
	publishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_publish_errors_total",
		Help: "Falhas ao publicar resultado",
	})
)

// candidato a liquidação: evento que já deveria ter terminado
type pendingEvent struct {
	id    string
	teamA string
	teamB string
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	writer := kshared.NewWriter(cfg.KafkaBrokers, cfg.TopicEventResults)
	defer writer.Close()

	prometheus.MustRegister(resultsPublished, publishErrors)
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("result-simulator started", zap.String("publish", cfg.TopicEventResults))

	// A cada ciclo: busca eventos vencidos ainda não liquidados e
	// declara um vencedor aleatório para cada um
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("result-simulator stopped")
			return
		case <-ticker.C:
			pending, err := pendingEvents(ctx, pg)
			if err != nil {
				log.Warn("query pending events", zap.Error(err))
				continue
			}
			for _, pe := range pending {
				winner := pe.teamA
				if rng.Intn(2) == 1 {
					winner = pe.teamB
				}
				if err := publishResult(ctx, writer, cfg.ServiceName, pe.id, winner); err != nil {
					publishErrors.Inc()
					log.Warn("publish result", zap.String("eventId", pe.id), zap.Error(err))
					continue
				}
				resultsPublished.Inc()
				log.Info("result declared",
					zap.String("eventId", pe.id),
					zap.String("winner", winner),
				)
			}
		}
	}
}

// pendingEvents lista eventos cujo horário de início já passou há mais
// de duas horas e que nenhum resultado finalizou ainda
func pendingEvents(ctx context.Context, conn *sql.DB) ([]pendingEvent, error) {
	const q = `
		SELECT id, team_a, team_b
		  FROM events
		 WHERE status IN ('UPCOMING', 'LIVE')
		   AND starts_at < now() - interval '2 hours'
		 ORDER BY starts_at
		 LIMIT 20`

	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pendingEvent
	for rows.Next() {
		var pe pendingEvent
		if err := rows.Scan(&pe.id, &pe.teamA, &pe.teamB); err != nil {
			return nil, err
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}

func publishResult(ctx context.Context, w *kshared.Writer, source, eventID, winner string) error {
	payload, err := json.Marshal(ev.EventResult{
		EventID:     eventID,
		WinningTeam: winner,
		Source:      source,
		DeclaredAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return kshared.WriteJSON(ctx, w, eventID, payload)
}
