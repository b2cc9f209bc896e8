package cli

import (
	"context"
	"fmt"

	"github.com/platinummonkey/signon/pkg/config"
	"github.com/platinummonkey/signon/pkg/identity"
)

// newRedirectStore opens the configured redirect store. The returned func
// releases it.
func newRedirectStore(ctx context.Context, cfg config.RedirectStoreConfig) (identity.RedirectStore, func(), error) {
	switch cfg.Type {
	case config.RedirectStoreRedis:
		client, err := identity.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return identity.NewRedisRedirectStore(client, cfg.KeyPrefix, cfg.TTL), func() { client.Close() }, nil
	case config.RedirectStoreMemory, "":
		return identity.NewMemoryRedirectStore(cfg.TTL), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown redirect store type: %s", cfg.Type)
	}
}
