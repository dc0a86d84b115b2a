package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultStoreKeyPrefix = "orderdesk:dialogue:"
	defaultStoreTTL       = 7 * 24 * time.Hour
)

// StoreOption customizes RedisStore.
type StoreOption func(*RedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

// WithTTL bounds how long an idle session survives in Redis. This is
// memory reclamation only; idle-timeout correctness is handled at
// transition time by DialogueState.Expired.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// RedisStore persists DialogueState as JSON in Redis. The version check
// runs inside WATCH/MULTI/EXEC, so a racing write for the same customer
// fails the EXEC and surfaces as ErrVersionConflict.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

type RedisConfig struct {
	Addr     string        `envconfig:"ADDR" split_words:"true" required:"true"`
	Password string        `envconfig:"PASSWORD" split_words:"true"`
	DB       int           `envconfig:"DB" split_words:"true" default:"0"`
	TTL      time.Duration `envconfig:"TTL" split_words:"true" default:"168h"`
}

func NewRedisStore(client redis.UniversalClient, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}

	store := &RedisStore{
		client:    client,
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return store, nil
}

func NewRedisStoreFromConfig(cfg RedisConfig, opts ...StoreOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Addr),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	merged := append([]StoreOption{WithTTL(cfg.TTL)}, opts...)
	return NewRedisStore(client, merged...)
}

func (s *RedisStore) Get(ctx context.Context, customerID string) (*DialogueState, error) {
	key, err := s.redisKey(customerID)
	if err != nil {
		return nil, err
	}

	payload, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return NewDialogueState(customerID, time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decodeState(payload)
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, st *DialogueState) error {
	if st == nil {
		return ErrNilState
	}
	key, err := s.redisKey(st.CustomerID)
	if err != nil {
		return err
	}

	expected := st.Version
	next := st.Clone()
	next.Version = expected + 1

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal dialogue state: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Result()
		var storedVersion int64
		switch {
		case errors.Is(err, redis.Nil):
			storedVersion = 0
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			cur, err := decodeState(stored)
			if err != nil {
				return err
			}
			storedVersion = cur.Version
		}

		if storedVersion != expected {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	st.Version = next.Version
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, customerID string) error {
	key, err := s.redisKey(customerID)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) redisKey(customerID string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", ErrInvalidCustomer
	}
	return s.keyPrefix + customerID, nil
}

func decodeState(payload string) (*DialogueState, error) {
	var st DialogueState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return nil, fmt.Errorf("unmarshal dialogue state: %w", err)
	}
	st.EnsureDraft()
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dialogue state loaded from store: %w", err)
	}
	return &st, nil
}
