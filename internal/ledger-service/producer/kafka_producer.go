package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	ev "github.com/radieske/bet-ledger-core/pkg/contracts/events"
)

// KafkaPublisher emite os eventos de ciclo de vida do ledger.
// Um writer por tópico, como nos demais serviços.
type KafkaPublisher struct {
	PlacedWriter   *kafka.Writer
	RefundedWriter *kafka.Writer
	SettledWriter  *kafka.Writer
}

// NewKafkaPublisher monta o publisher com os writers de cada tópico
func NewKafkaPublisher(placed, refunded, settled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{
		PlacedWriter:   placed,
		RefundedWriter: refunded,
		SettledWriter:  settled,
	}
}

func (p *KafkaPublisher) PublishWagerPlaced(ctx context.Context, e ev.WagerPlaced) error {
	b, _ := json.Marshal(e)
	return p.PlacedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.WagerID), Value: b})
}

func (p *KafkaPublisher) PublishWagerRefunded(ctx context.Context, e ev.WagerRefunded) error {
	b, _ := json.Marshal(e)
	return p.RefundedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.WagerID), Value: b})
}

func (p *KafkaPublisher) PublishEventSettled(ctx context.Context, e ev.EventSettled) error {
	b, _ := json.Marshal(e)
	return p.SettledWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.EventID), Value: b})
}
