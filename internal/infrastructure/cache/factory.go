package cache

import (
	"fmt"

	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AlertStateBackend values accepted in configuration
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ClosableAlertStateStore is an AlertStateStore that holds resources
type ClosableAlertStateStore interface {
	replenishment.AlertStateStore
	Close() error
}

// AlertStateStoreFactory creates alert state stores based on configuration
type AlertStateStoreFactory struct {
	stateConfig           config.AlertStateConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// AlertStateStoreFactoryOption is a functional option for configuring the factory
type AlertStateStoreFactoryOption func(*AlertStateStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) AlertStateStoreFactoryOption {
	return func(f *AlertStateStoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory store when Redis is unavailable
func WithInMemoryFallback(allow bool) AlertStateStoreFactoryOption {
	return func(f *AlertStateStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewAlertStateStoreFactory creates a new factory. Fallback defaults to the
// alert_state.allow_memory_fallback setting.
func NewAlertStateStoreFactory(
	stateCfg config.AlertStateConfig,
	redisCfg config.RedisConfig,
	opts ...AlertStateStoreFactoryOption,
) *AlertStateStoreFactory {
	f := &AlertStateStoreFactory{
		stateConfig:           stateCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: stateCfg.AllowMemoryFallback,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based alert state store
func (f *AlertStateStoreFactory) CreateRedisStore() (ClosableAlertStateStore, error) {
	store, err := NewRedisAlertStateStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
		Key:      f.redisConfig.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis alert state store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory alert state store.
// WARNING: In-memory state is lost when the process exits and is not shared
// across instances.
func (f *AlertStateStoreFactory) CreateInMemoryStore() ClosableAlertStateStore {
	return NewInMemoryAlertStateStore()
}

// CreateStore creates the store named by the configured backend. A redis
// backend falls back to memory when Redis is unreachable and fallback is allowed.
func (f *AlertStateStoreFactory) CreateStore() (ClosableAlertStateStore, error) {
	switch f.stateConfig.Backend {
	case "", BackendMemory:
		f.logger.Info("using in-memory alert state store")
		return f.CreateInMemoryStore(), nil
	case BackendRedis:
	default:
		return nil, fmt.Errorf("unknown alert state backend '%s'", f.stateConfig.Backend)
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis alert state store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for alert state but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory alert state store. "+
		"Acknowledgements will not survive a restart.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
