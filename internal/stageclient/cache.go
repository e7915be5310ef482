package stageclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/shaiso/Polyglot/internal/stages"
	"github.com/shaiso/Polyglot/internal/telemetry"
)

const defaultCacheTTL = time.Hour

// Cache — хранилище ответов этапов.
// Реализация: repo.CacheRepo (PostgreSQL).
type Cache interface {
	// Get возвращает сохранённый ответ. found=false, если записи нет или она устарела.
	Get(ctx context.Context, key string) (payload json.RawMessage, found bool, err error)

	// Put сохраняет ответ на время ttl.
	Put(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error
}

// CacheKey строит ключ кэша из имени этапа и тела запроса.
// json.Marshal сортирует ключи map, поэтому одинаковые запросы дают одинаковый ключ.
func CacheKey(stage string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(stage))
	h.Write([]byte{0})
	h.Write(body)
	return stage + ":" + hex.EncodeToString(h.Sum(nil))
}

// lookup ищет ответ в кэше. Ошибки кэша не прерывают вызов.
func (c *Client) lookup(ctx context.Context, desc stages.Descriptor, key string) (json.RawMessage, bool) {
	payload, found, err := c.cache.Get(ctx, key)
	if err != nil {
		telemetry.RecordCacheLookup(desc.Name, "error")
		telemetry.FromContext(ctx).Warn("stage cache lookup failed",
			"stage", desc.Name,
			"error", err,
		)
		return nil, false
	}
	if !found {
		telemetry.RecordCacheLookup(desc.Name, "miss")
		return nil, false
	}

	// Запись могла устареть по схеме (например, после смены сервиса)
	if err := validatePayload(payload, desc.RequiredFields); err != nil {
		telemetry.RecordCacheLookup(desc.Name, "miss")
		return nil, false
	}

	telemetry.RecordCacheLookup(desc.Name, "hit")
	return payload, true
}

// store сохраняет ответ в кэш. Вызывается после успешного ответа.
func (c *Client) store(ctx context.Context, desc stages.Descriptor, key string, payload json.RawMessage) {
	// Ответ уже получен, сохраняем даже если run отменяют
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := c.cache.Put(storeCtx, key, payload, c.cacheTTL); err != nil {
		telemetry.FromContext(ctx).Warn("stage cache store failed",
			"stage", desc.Name,
			"error", err,
		)
	}
}
