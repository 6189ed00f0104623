// Package rdx wraps the Redis client used for the catalog cache and
// the order event channel. Everything here is best-effort: a Redis
// outage degrades to direct store reads, never to a request failure.
package rdx

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"mithai/models"
)

const (
	catalogKey    = "catalog:items"
	catalogTTL    = 5 * time.Minute
	ordersChannel = "order-events"
)

type Cache struct {
	Conn *redis.Client
}

// Open connects to Redis. Returns nil when no address is configured;
// every method tolerates a nil receiver.
func Open(addr string) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{Conn: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.Conn.Close()
}

// --- catalog cache ---

func (c *Cache) CatalogGet(ctx context.Context) ([]models.Item, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.Conn.Get(ctx, catalogKey).Result()
	if err != nil {
		return nil, false
	}
	var items []models.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Println("catalog cache decode:", err)
		return nil, false
	}
	return items, true
}

func (c *Cache) CatalogSet(ctx context.Context, items []models.Item) {
	if c == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.Conn.Set(ctx, catalogKey, data, catalogTTL).Err(); err != nil {
		log.Println("catalog cache set:", err)
	}
}

func (c *Cache) CatalogInvalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.Conn.Del(ctx, catalogKey).Err(); err != nil {
		log.Println("catalog cache del:", err)
	}
}

// --- session tokens ---

const sessionsKey = "sessions"

// TokenSet records the active token for an account so logout can
// revoke it server-side.
func (c *Cache) TokenSet(ctx context.Context, accountID, token string) {
	if c == nil {
		return
	}
	if err := c.Conn.HSet(ctx, sessionsKey, accountID, token).Err(); err != nil {
		log.Println("token cache set:", err)
	}
}

func (c *Cache) TokenDel(ctx context.Context, accountID string) {
	if c == nil {
		return
	}
	if err := c.Conn.HDel(ctx, sessionsKey, accountID).Err(); err != nil {
		log.Println("token cache del:", err)
	}
}

// --- order events ---

// OrderEvent is what checkout publishes for the live admin feed.
type OrderEvent struct {
	Owner     models.OwnerKey `json:"owner"`
	AgentID   string          `json:"agentId,omitempty"`
	LineCount int             `json:"lineCount"`
	Total     float64         `json:"total"`
	PlacedAt  time.Time       `json:"placedAt"`
}

func (c *Cache) PublishOrder(ctx context.Context, lines []models.OrderLine) {
	if c == nil || len(lines) == 0 {
		return
	}
	ev := OrderEvent{
		Owner:     lines[0].Owner,
		AgentID:   lines[0].AgentID,
		LineCount: len(lines),
		PlacedAt:  lines[0].CreatedAt,
	}
	for _, ln := range lines {
		ev.Total += ln.UnitPrice * float64(ln.Quantity)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := c.Conn.Publish(ctx, ordersChannel, data).Err(); err != nil {
		log.Println("order event publish:", err)
	}
}

// SubscribeOrders streams published order events until ctx ends.
func (c *Cache) SubscribeOrders(ctx context.Context) <-chan []byte {
	out := make(chan []byte)
	if c == nil {
		close(out)
		return out
	}
	sub := c.Conn.Subscribe(ctx, ordersChannel)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				out <- []byte(msg.Payload)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
