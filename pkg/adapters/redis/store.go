package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
	"github.com/klauspost/compress/zstd"
	backend "github.com/redis/go-redis/v9"
)

// zstdMagic starts every zstd frame; values without it are plain JSON.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Store implements ports.FlowStore using Redis.
type Store struct {
	client   *backend.Client
	prefix   string
	ttl      time.Duration
	compress bool
}

type Option func(*Store)

// WithTTL sets the expiration for flows.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for flows.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithCompression stores documents as zstd frames. Plain documents written
// before the option was enabled remain readable.
func WithCompression(enabled bool) Option {
	return func(s *Store) {
		s.compress = enabled
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "flowdesk:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + "flow:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the flow to Redis and records it in the index.
func (s *Store) Save(ctx context.Context, flow *domain.Flow) error {
	if flow == nil || flow.ID == "" {
		return fmt.Errorf("flow id cannot be empty")
	}
	data, err := serialization.Encode(flow)
	if err != nil {
		return err
	}
	if s.compress {
		if data, err = compressZstd(data); err != nil {
			return fmt.Errorf("failed to compress flow: %w", err)
		}
	}

	pipe := s.client.Pipeline()

	// Use 0 for no expiration if ttl is not set.
	pipe.Set(ctx, s.key(flow.ID), data, s.ttl)

	// Score = Now + TTL. If TTL = 0, Score = +Inf (approx).
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: flow.ID,
	})

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the flow from Redis.
func (s *Store) Load(ctx context.Context, id string) (*domain.Flow, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	if bytes.HasPrefix(val, zstdMagic) {
		if val, err = decompressZstd(val); err != nil {
			return nil, fmt.Errorf("failed to decompress flow %s: %w", id, err)
		}
	}
	flow, _, err := serialization.Decode(val)
	if err != nil {
		return nil, err
	}
	return flow, nil
}

// Delete removes the flow.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored flow ids, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// ZREMRANGEBYSCORE key -inf (now)
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("(%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired flows: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, nil)
}
