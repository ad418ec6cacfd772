// Package redisstore is an engine.Backend kept in Redis. Each collection is
// a hash of encoded documents plus a sorted set holding insertion order.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/docstore/engine"
)

const duplicateReply = "DUPLICATE"

// insertScript writes a batch only when none of its ids exist.
var insertScript = redis.NewScript(`
	local docs = KEYS[1]
	local order = KEYS[2]
	local seq = KEYS[3]

	local seen = {}
	for i = 1, #ARGV, 2 do
		if seen[ARGV[i]] or redis.call('HEXISTS', docs, ARGV[i]) == 1 then
			return redis.error_reply('DUPLICATE ' .. ARGV[i])
		end
		seen[ARGV[i]] = true
	end

	for i = 1, #ARGV, 2 do
		local n = redis.call('INCR', seq)
		redis.call('HSET', docs, ARGV[i], ARGV[i + 1])
		redis.call('ZADD', order, n, ARGV[i])
	end
	return #ARGV / 2
`)

// putScript replaces an existing document without touching its order.
var putScript = redis.NewScript(`
	if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
		return 0
	end
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return 1
`)

// Backend stores collections in Redis.
type Backend struct {
	client *redis.Client
	prefix string
}

var _ engine.Backend = (*Backend)(nil)

// Config holds configuration for the Redis backend
type Config struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is the key prefix for every collection key
	Prefix string
}

// DefaultConfig returns a default Redis backend configuration
func DefaultConfig() Config {
	return Config{
		Addr:   "localhost:6379",
		Prefix: "jsonapi:",
	}
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, config Config) (*Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return NewWithClient(client, config.Prefix), nil
}

// NewWithClient creates a backend over an existing client.
func NewWithClient(client *redis.Client, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) docsKey(collection string) string {
	return b.prefix + collection + ":docs"
}

func (b *Backend) orderKey(collection string) string {
	return b.prefix + collection + ":order"
}

func (b *Backend) seqKey(collection string) string {
	return b.prefix + collection + ":seq"
}

// List returns the collection in insertion order.
func (b *Backend) List(ctx context.Context, collection string) ([]engine.Record, error) {
	ids, err := b.client.ZRange(ctx, b.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := b.client.HMGet(ctx, b.docsKey(collection), ids...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]engine.Record, 0, len(ids))
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			// Deleted between the two reads.
			continue
		}
		records = append(records, engine.Record{ID: ids[i], Data: []byte(data)})
	}
	return records, nil
}

// Get returns one record.
func (b *Backend) Get(ctx context.Context, collection, id string) (engine.Record, error) {
	data, err := b.client.HGet(ctx, b.docsKey(collection), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return engine.Record{}, fmt.Errorf("%w: %s %s", docstore.ErrNotFound, collection, id)
		}
		return engine.Record{}, err
	}
	return engine.Record{ID: id, Data: data}, nil
}

// Insert writes records atomically.
func (b *Backend) Insert(ctx context.Context, collection string, records []engine.Record) error {
	if len(records) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(records)*2)
	for _, rec := range records {
		args = append(args, rec.ID, rec.Data)
	}
	keys := []string{b.docsKey(collection), b.orderKey(collection), b.seqKey(collection)}

	err := insertScript.Run(ctx, b.client, keys, args...).Err()
	if err != nil && strings.HasPrefix(err.Error(), duplicateReply) {
		id := strings.TrimSpace(strings.TrimPrefix(err.Error(), duplicateReply))
		return fmt.Errorf("%w: %s %s", docstore.ErrDuplicateKey, collection, id)
	}
	return err
}

// Put replaces an existing record.
func (b *Backend) Put(ctx context.Context, collection string, rec engine.Record) error {
	n, err := putScript.Run(ctx, b.client, []string{b.docsKey(collection)}, rec.ID, rec.Data).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", docstore.ErrNotFound, collection, rec.ID)
	}
	return nil
}

// Delete removes a record and its order entry.
func (b *Backend) Delete(ctx context.Context, collection, id string) error {
	var removed *redis.IntCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, b.docsKey(collection), id)
		pipe.ZRem(ctx, b.orderKey(collection), id)
		return nil
	})
	if err != nil {
		return err
	}
	if removed.Val() == 0 {
		return fmt.Errorf("%w: %s %s", docstore.ErrNotFound, collection, id)
	}
	return nil
}

// Close closes the Redis connection
func (b *Backend) Close() error {
	return b.client.Close()
}
