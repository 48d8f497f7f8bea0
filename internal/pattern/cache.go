package pattern

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ykvlv/coach-bot/internal/domain"
)

// Cache stores the latest pattern per user. Writes replace the whole value;
// a reader sees either the old or the new pattern, never a mix.
type Cache interface {
	GetPattern(ctx context.Context, userID int64) (domain.UserPattern, bool)
	PutPattern(ctx context.Context, p domain.UserPattern) error
	DeletePattern(ctx context.Context, userID int64) error
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	m sync.Map // int64 -> *domain.UserPattern, never mutated after Store
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{} }

func (c *MemoryCache) GetPattern(_ context.Context, userID int64) (domain.UserPattern, bool) {
	v, ok := c.m.Load(userID)
	if !ok {
		return domain.UserPattern{}, false
	}
	return *v.(*domain.UserPattern), true
}

func (c *MemoryCache) PutPattern(_ context.Context, p domain.UserPattern) error {
	p = clonePattern(p)
	c.m.Store(p.UserID, &p)
	return nil
}

func (c *MemoryCache) DeletePattern(_ context.Context, userID int64) error {
	c.m.Delete(userID)
	return nil
}

// clonePattern detaches the optional clock fields from the caller's copy.
func clonePattern(p domain.UserPattern) domain.UserPattern {
	if p.MorningM != nil {
		v := *p.MorningM
		p.MorningM = &v
	}
	if p.EveningM != nil {
		v := *p.EveningM
		p.EveningM = &v
	}
	return p
}

// RedisCache shares patterns between processes. Entries expire after ttl so
// a stopped refresher cannot leave patterns around forever.
type RedisCache struct {
	rdb    *goredis.Client
	log    *zap.Logger
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr, prefix string, log *zap.Logger) (*RedisCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if prefix == "" {
		prefix = "coach:pattern:"
	}
	return &RedisCache{rdb: rdb, log: log, prefix: prefix, ttl: 48 * time.Hour}, nil
}

func (c *RedisCache) key(userID int64) string {
	return c.prefix + strconv.FormatInt(userID, 10)
}

func (c *RedisCache) GetPattern(ctx context.Context, userID int64) (domain.UserPattern, bool) {
	raw, err := c.rdb.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("redis pattern get failed", zap.Int64("userID", userID), zap.Error(err))
		}
		return domain.UserPattern{}, false
	}
	p, err := decodePattern(raw)
	if err != nil {
		c.log.Warn("bad cached pattern", zap.Int64("userID", userID), zap.Error(err))
		return domain.UserPattern{}, false
	}
	return p, true
}

func (c *RedisCache) PutPattern(ctx context.Context, p domain.UserPattern) error {
	raw, err := encodePattern(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(p.UserID), raw, c.ttl).Err()
}

func (c *RedisCache) DeletePattern(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, c.key(userID)).Err()
}

// Close releases the redis connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

type patternRecord struct {
	UserID         int64     `json:"user_id"`
	InferredOffset int       `json:"inferred_offset"`
	MorningM       *int      `json:"morning_m,omitempty"`
	EveningM       *int      `json:"evening_m,omitempty"`
	Consistency    float64   `json:"consistency"`
	SleepAverage   float64   `json:"sleep_average"`
	SkipDays       []int     `json:"skip_days"`
	Style          string    `json:"style"`
	Samples        int       `json:"samples"`
	ComputedAt     time.Time `json:"computed_at"`
}

func encodePattern(p domain.UserPattern) ([]byte, error) {
	rec := patternRecord{
		UserID:         p.UserID,
		InferredOffset: p.InferredOffset,
		MorningM:       p.MorningM,
		EveningM:       p.EveningM,
		Consistency:    p.Consistency,
		SleepAverage:   p.SleepAverage,
		SkipDays:       []int{},
		Style:          string(p.PreferredReminderStyle),
		Samples:        p.Samples,
		ComputedAt:     p.ComputedAt.UTC(),
	}
	for d, skip := range p.SkipDays {
		if skip {
			rec.SkipDays = append(rec.SkipDays, d)
		}
	}
	return json.Marshal(rec)
}

func decodePattern(raw []byte) (domain.UserPattern, error) {
	var rec patternRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.UserPattern{}, err
	}
	p := domain.UserPattern{
		UserID:                 rec.UserID,
		InferredOffset:         rec.InferredOffset,
		MorningM:               rec.MorningM,
		EveningM:               rec.EveningM,
		Consistency:            rec.Consistency,
		SleepAverage:           rec.SleepAverage,
		PreferredReminderStyle: domain.ReminderStyle(rec.Style),
		Samples:                rec.Samples,
		ComputedAt:             rec.ComputedAt,
	}
	for _, d := range rec.SkipDays {
		if d < 0 || d > 6 {
			return domain.UserPattern{}, fmt.Errorf("skip day %d out of range", d)
		}
		p.SkipDays[d] = true
	}
	return p, nil
}
