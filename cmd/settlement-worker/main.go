package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/domain"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/events"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/producer"
	pgrepo "github.com/radieske/bet-ledger-core/internal/ledger-service/repo/postgres"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/settlement"
	"github.com/radieske/bet-ledger-core/internal/shared/cache"
	"github.com/radieske/bet-ledger-core/internal/shared/config"
	"github.com/radieske/bet-ledger-core/internal/shared/db"
	kshared "github.com/radieske/bet-ledger-core/internal/shared/kafka"
	"github.com/radieske/bet-ledger-core/internal/shared/logger"
	"github.com/radieske/bet-ledger-core/internal/shared/metrics"
	ev "github.com/radieske/bet-ledger-core/pkg/contracts/events"
)

// tentativas por resultado antes de desistir e mandar pra DLQ
const maxAttempts = 3

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres para a liquidação
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis para invalidar o snapshot do evento liquidado
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka consumer: feed externo de resultados
	reader := kshared.NewReader(cfg.KafkaBrokers, cfg.TopicEventResults, "settlement-worker")
	defer reader.Close()

	// Kafka producers: evento liquidado e DLQ de resultados
	settledWriter := kshared.NewWriter(cfg.KafkaBrokers, cfg.TopicEventSettled)
	defer settledWriter.Close()

	var dlqWriter *kshared.Writer
	if cfg.TopicEventResultsDLQ != "" {
		dlqWriter = kshared.NewWriter(cfg.KafkaBrokers, cfg.TopicEventResultsDLQ)
		defer dlqWriter.Close()
	}

	store := pgrepo.New(pg, cfg.TxMaxRetries)
	publ := producer.NewKafkaPublisher(nil, nil, settledWriter)
	settler := settlement.NewSettler(log, store, publ)
	detailCache := events.NewCache(rdb, 30*time.Second)

	// Métricas por estágio do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_results_consumed_total", Help: "resultados consumidos"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_settled_total", Help: "eventos liquidados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, errorsBy)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicEventResults),
		zap.String("publish", cfg.TopicEventSettled),
	)

	// Loop principal: consome resultados e liquida os eventos
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("settlement-worker stopped")
				return
			}
			log.Warn("kafka read", zap.Error(err))
			errorsBy.WithLabelValues("read").Inc()
			time.Sleep(time.Second)
			continue
		}
		consumed.Inc()

		var result ev.EventResult
		if jerr := json.Unmarshal(msg.Value, &result); jerr != nil {
			log.Error("unmarshal event_result", zap.Error(jerr))
			errorsBy.WithLabelValues("decode").Inc()
			continue
		}

		var perr error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			perr = processOne(ctx, log, settler, detailCache, &result)
			if perr == nil {
				break
			}
			kind := domain.KindOf(perr)
			if kind != domain.FaultTransient && kind != domain.FaultFatal {
				// evento inexistente, equipe inválida ou já liquidado:
				// repetir não muda nada
				break
			}
			log.Warn("settlement attempt failed",
				zap.String("eventId", result.EventID),
				zap.Int("attempt", attempt+1),
				zap.Error(perr),
			)
			time.Sleep(time.Duration(300*(attempt+1)) * time.Millisecond)
		}

		if perr != nil {
			errorsBy.WithLabelValues("settle").Inc()
			kind := domain.KindOf(perr)
			if kind == domain.FaultTransient || kind == domain.FaultFatal {
				if dlqWriter != nil {
					_ = kshared.WriteJSON(ctx, dlqWriter, result.EventID, msg.Value)
				}
				log.Error("settlement failed, sent to DLQ", zap.String("eventId", result.EventID), zap.Error(perr))
			} else {
				log.Warn("result discarded", zap.String("eventId", result.EventID), zap.Error(perr))
			}
			continue
		}
		settled.Inc()
	}
}

// processOne liquida um evento a partir do resultado declarado e
// invalida o snapshot em cache
func processOne(
	ctx context.Context,
	log *zap.Logger,
	settler *settlement.Settler,
	detailCache *events.Cache,
	result *ev.EventResult,
) error {
	res, err := settler.SettleEvent(ctx, result.EventID, result.WinningTeam)
	if err != nil {
		return err
	}

	if err := detailCache.Invalidate(ctx, result.EventID); err != nil {
		log.Warn("cache invalidate", zap.String("eventId", result.EventID), zap.Error(err))
	}

	log.Info("event settled from result feed",
		zap.String("eventId", res.EventID),
		zap.String("winner", res.WinningTeam),
		zap.Int("processed", res.Processed),
		zap.String("totalPayout", res.TotalPayout.String()),
	)
	return nil
}
