package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-core/internal/ledger-service/events"
	lhttp "github.com/radieske/bet-ledger-core/internal/ledger-service/http"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/ledger"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/producer"
	pgrepo "github.com/radieske/bet-ledger-core/internal/ledger-service/repo/postgres"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/settlement"
	"github.com/radieske/bet-ledger-core/internal/ledger-service/validation"
	"github.com/radieske/bet-ledger-core/internal/shared/cache"
	"github.com/radieske/bet-ledger-core/internal/shared/config"
	"github.com/radieske/bet-ledger-core/internal/shared/db"
	kshared "github.com/radieske/bet-ledger-core/internal/shared/kafka"
	"github.com/radieske/bet-ledger-core/internal/shared/logger"
	"github.com/radieske/bet-ledger-core/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis (cache de detalhe de evento)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers (um por tópico de ciclo de vida)
	placedWriter := kshared.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerPlaced)
	defer placedWriter.Close()
	refundedWriter := kshared.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerRefunded)
	defer refundedWriter.Close()
	settledWriter := kshared.NewWriter(cfg.KafkaBrokers, cfg.TopicEventSettled)
	defer settledWriter.Close()

	// deps
	store := pgrepo.New(pg, cfg.TxMaxRetries)
	publ := producer.NewKafkaPublisher(placedWriter, refundedWriter, settledWriter)

	ledgerSvc := ledger.NewService(log, store, ledger.Params{
		Limits: validation.Limits{
			MinStake: cfg.MinBet,
			MaxStake: cfg.MaxBet,
			LeadTime: cfg.BettingLeadTime,
		},
		InitialBalance: cfg.InitialBalance,
	}, publ)
	settler := settlement.NewSettler(log, store, publ)
	eventsSvc := events.NewService(log, store, events.NewCache(rdb, 30*time.Second), cfg.BettingLeadTime)

	// Métricas Prometheus para o fluxo de apostas
	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_wagers_placed_total", Help: "apostas criadas"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_wagers_rejected_total", Help: "apostas rejeitadas por kind"}, []string{"kind"})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_wagers_cancelled_total", Help: "apostas canceladas"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_events_settled_total", Help: "eventos liquidados"})
	settledWagers := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_settled_wagers_total", Help: "apostas liquidadas por resultado"}, []string{"outcome"})
	prometheus.MustRegister(placed, rejected, cancelled, settled, settledWagers)

	ledgerSvc.OnPlaced = func() { placed.Inc() }
	ledgerSvc.OnRejected = func(kind string) { rejected.WithLabelValues(kind).Inc() }
	ledgerSvc.OnCancelled = func() { cancelled.Inc() }
	settler.OnSettled = func(winners, losers int) {
		settled.Inc()
		settledWagers.WithLabelValues("won").Add(float64(winners))
		settledWagers.WithLabelValues("lost").Add(float64(losers))
	}

	// metrics/health em porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	// HTTP público
	api := lhttp.NewServer(log, ledgerSvc, settler, eventsSvc)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	log.Info("ledger-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
