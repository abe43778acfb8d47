package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compliance-backend/internal/shared/storage/kv"
)

const configPrefix = "ai-config:"

// ConfigRepo persists provider configuration records in the kv store.
type ConfigRepo struct {
	store kv.Store
}

// NewConfigRepo constructs a ConfigRepo.
func NewConfigRepo(store kv.Store) *ConfigRepo {
	return &ConfigRepo{store: store}
}

// List returns every record ordered by id.
func (r *ConfigRepo) List(ctx context.Context) ([]Config, error) {
	return kv.ListJSON[Config](ctx, r.store, configPrefix)
}

// Get returns the record with id or ErrConfigNotFound.
func (r *ConfigRepo) Get(ctx context.Context, id string) (Config, error) {
	cfg, err := kv.GetJSON[Config](ctx, r.store, configPrefix+id)
	if errors.Is(err, kv.ErrNotFound) {
		return Config{}, ErrConfigNotFound
	}
	return cfg, err
}

// Save validates and upserts cfg.
func (r *ConfigRepo) Save(ctx context.Context, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	return kv.PutJSON(ctx, r.store, configPrefix+cfg.ID, cfg)
}

// EnabledConfig returns the first enabled record by id.
func (r *ConfigRepo) EnabledConfig(ctx context.Context) (Config, bool, error) {
	all, err := r.List(ctx)
	if err != nil {
		return Config{}, false, err
	}
	for _, cfg := range all {
		if cfg.Enabled {
			return cfg, true, nil
		}
	}
	return Config{}, false, nil
}

// Validate checks the fields a record must carry before it is stored.
func Validate(cfg Config) error {
	switch {
	case strings.TrimSpace(cfg.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidConfig)
	case strings.ContainsAny(cfg.ID, ":/"):
		return fmt.Errorf("%w: id must not contain ':' or '/'", ErrInvalidConfig)
	case !cfg.Provider.IsValid():
		return fmt.Errorf("%w: provider %q is not supported", ErrInvalidConfig, cfg.Provider)
	case strings.TrimSpace(cfg.Model) == "":
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	case cfg.Temperature < 0 || cfg.Temperature > 2:
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidConfig)
	case cfg.MaxTokens <= 0:
		return fmt.Errorf("%w: max_tokens must be positive", ErrInvalidConfig)
	}
	return nil
}

var _ ConfigSource = (*ConfigRepo)(nil)
