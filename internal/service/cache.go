package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"fleetflow/internal/redis"
)

// reportCache wraps the optional analytics cache. Cache failures are logged
// and otherwise ignored; reports are then computed from the store.
type reportCache struct {
	store  redis.CacheStoreInterface
	logger log.FieldLogger
}

// cacheSlot is where a report computed after a cache miss may be stored.
// A zero slot is not storable.
type cacheSlot struct {
	gen int64
	ok  bool
}

func (c reportCache) get(ctx context.Context, report, params string, dest any) (cacheSlot, bool) {
	if c.store == nil {
		return cacheSlot{}, false
	}
	gen, hit, err := c.store.GetReport(ctx, report, params, dest)
	if err != nil {
		c.logger.WithError(err).WithField("report", report).Warn("analytics cache read failed")
		return cacheSlot{}, false
	}
	return cacheSlot{gen: gen, ok: true}, hit
}

// set stores value in slot. The generation comes from the read that
// preceded the computation, so a write committed in between orphans it.
func (c reportCache) set(ctx context.Context, slot cacheSlot, report, params string, value any) {
	if c.store == nil || !slot.ok {
		return
	}
	if err := c.store.SetReport(ctx, slot.gen, report, params, value); err != nil {
		c.logger.WithError(err).WithField("report", report).Warn("analytics cache write failed")
	}
}

// invalidate is called after every committed write that changes a report input.
func (c reportCache) invalidate(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Invalidate(ctx); err != nil {
		c.logger.WithError(err).Warn("analytics cache invalidation failed")
	}
}
