package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda snapshots de detalhe de evento no Redis com TTL curto.
// É leitura best-effort: falha de cache nunca derruba a operação.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

// NewCache cria o cache de detalhes com TTL configurável
func NewCache(r *redis.Client, ttl time.Duration) *Cache {
	return &Cache{R: r, TTL: ttl}
}

func keyDetail(eventID string) string { return "event:detail:" + eventID }

// GetDetail tenta ler o snapshot do evento; (false, nil) em cache miss
func (c *Cache) GetDetail(ctx context.Context, eventID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyDetail(eventID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

// SetDetail armazena o snapshot do evento com o TTL do cache
func (c *Cache) SetDetail(ctx context.Context, eventID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyDetail(eventID), b, c.TTL).Err()
}

// Invalidate remove o snapshot após liquidação ou mudança de status
func (c *Cache) Invalidate(ctx context.Context, eventID string) error {
	return c.R.Del(ctx, keyDetail(eventID)).Err()
}
