package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/reservation"
)

// StatsRecorder gets every decision. Best effort, errors are only logged.
type StatsRecorder interface {
	Record(ctx context.Context, asset string, d Decision, at time.Time) error
}

// MultiStats fans a decision out to every recorder. Nil entries are skipped.
type MultiStats []StatsRecorder

func (m MultiStats) Record(ctx context.Context, asset string, d Decision, at time.Time) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, asset, d, at); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Controller decides whether a mint request may proceed.
//
// Both keys of a request, (asset, client) and (asset, receiver), must be free.
// The client key is checked first, so a request violating both limits is
// reported as RejectedRateLimitClient. Either both keys get reserved or none.
type Controller struct {
	store reservation.Store
	stats StatsRecorder
}

func NewController(store reservation.Store, stats StatsRecorder) *Controller {
	return &Controller{store: store, stats: stats}
}

func keys(asset, client, dest string) (reservation.Key, reservation.Key) {
	return reservation.Key{Namespace: asset, Identity: client},
		reservation.Key{Namespace: asset, Identity: dest}
}

// Admit reserves both keys or rejects. A ticket is returned only on Admitted.
func (c *Controller) Admit(ctx context.Context, asset, client, dest string, now time.Time) (Decision, *Ticket, error) {
	clientKey, destKey := keys(asset, client, dest)

	blocked, err := c.store.ReserveAll(ctx, now, clientKey, destKey)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to reserve keys for %s: %w", asset, err)
	}

	var d Decision
	switch blocked {
	case -1:
		d = Admitted
	case 0:
		d = RejectedRateLimitClient
	case 1:
		d = RejectedRateLimitDestination
	default:
		return 0, nil, fmt.Errorf("reservation store returned index %d for 2 keys", blocked)
	}

	c.record(ctx, asset, d, now)

	if d != Admitted {
		return d, nil, nil
	}
	return d, &Ticket{ClientKey: clientKey, DestKey: destKey}, nil
}

// RetryAfter tells how long the key behind a rejection stays live.
func (c *Controller) RetryAfter(ctx context.Context, d Decision, asset, client, dest string, now time.Time) time.Duration {
	clientKey, destKey := keys(asset, client, dest)

	key := clientKey
	if d == RejectedRateLimitDestination {
		key = destKey
	}
	remaining, err := c.store.Remaining(ctx, key, now)
	if err != nil {
		logger.WithField("key", key.String()).Warnf("failed to read remaining window: err=%v", err)
		return 0
	}
	return remaining
}

// Release frees both keys of t. Safe to call more than once.
func (c *Controller) Release(ctx context.Context, t *Ticket) error {
	if t == nil {
		return nil
	}
	return errors.Join(
		c.store.Release(ctx, t.ClientKey),
		c.store.Release(ctx, t.DestKey),
	)
}

func (c *Controller) record(ctx context.Context, asset string, d Decision, at time.Time) {
	if c.stats == nil {
		return
	}
	if err := c.stats.Record(ctx, asset, d, at); err != nil {
		logger.WithField("asset", asset).Debugf("failed to record admission stats: err=%v", err)
	}
}
