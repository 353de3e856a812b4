package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/hackboard/badge-engine/internal/cache"
	"github.com/hackboard/badge-engine/pkg/logger"
)

// debounceKeyPrefix namespaces the per-user last-pass markers in the cache.
const debounceKeyPrefix = "badges:unlock_pass:"

// Debouncer suppresses redundant unlock passes for the same user inside
// a fixed window. State lives in the injected cache, not process
// memory, so the window holds across replicas. Correctness does not
// depend on the cache: a lost marker only costs an extra pass, and the
// award write is an idempotent union.
type Debouncer struct {
	cache  cache.Cache
	window time.Duration
	log    *logger.Logger
}

// NewDebouncer creates a debouncer with the given suppression window.
func NewDebouncer(c cache.Cache, window time.Duration, log *logger.Logger) *Debouncer {
	return &Debouncer{
		cache:  c,
		window: window,
		log:    log,
	}
}

// ShouldRun reports whether an unlock pass may run for the user now,
// and on true marks the window as consumed. Fails open: if the cache is
// unreachable the pass runs.
func (d *Debouncer) ShouldRun(ctx context.Context, userID uint) bool {
	key := fmt.Sprintf("%s%d", debounceKeyPrefix, userID)

	ok, err := d.cache.SetNX(ctx, key, time.Now().Unix(), d.window)
	if err != nil {
		d.log.Warn().
			Err(err).
			Uint("user_id", userID).
			Msg("Debounce cache unavailable, allowing pass")
		return true
	}
	return ok
}

// Reset clears the debounce marker for a user.
func (d *Debouncer) Reset(ctx context.Context, userID uint) {
	key := fmt.Sprintf("%s%d", debounceKeyPrefix, userID)
	if err := d.cache.Del(ctx, key); err != nil {
		d.log.Debug().Err(err).Uint("user_id", userID).Msg("Failed to reset debounce marker")
	}
}

// Window returns the configured suppression window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}
