package chaintxmgr

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/admission"
	"github.com/TEENet-io/faucet-go/agreement"
)

// Default polling policy: 6 attempts, 5 seconds apart, 30 seconds in total.
const (
	DefaultMaxAttempts = 6
	DefaultInterval    = 5 * time.Second
)

var ErrConfirmationTimeout = errors.New("transaction was not included in a block")

type PollerConfig struct {
	// Queries of the ledger before giving up.
	// "not found" and query errors both count.
	MaxAttempts int

	// Wait after every unsuccessful query.
	Interval time.Duration
}

type PollState int

const (
	Polling PollState = iota
	Confirmed
	TimedOut
)

func (s PollState) String() string {
	switch s {
	case Polling:
		return "polling"
	case Confirmed:
		return "confirmed"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type PollResult struct {
	State    PollState
	Attempts int
	Record   *agreement.TxRecord // set when Confirmed
}

// Poller is the confirmation side of the mint lifecycle.
// A confirmed tx keeps its reservation, a timed out one releases it.
type Poller struct {
	cfg      *PollerConfig
	ledger   agreement.LedgerClient
	releaser admission.Releaser
	reporter agreement.MintReporter

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPoller(
	cfg *PollerConfig,
	ledger agreement.LedgerClient,
	releaser admission.Releaser,
	reporter agreement.MintReporter,
) *Poller {
	// the caller keeps its config untouched
	c := PollerConfig{}
	if cfg != nil {
		c = *cfg
	}
	cfg = &c
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Interval < 0 {
		cfg.Interval = DefaultInterval
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Poller{
		cfg:      cfg,
		ledger:   ledger,
		releaser: releaser,
		reporter: reporter,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Confirm polls the ledger until txHash shows up or the attempts run out.
// Cancelling ctx ends polling early and counts as a timeout, so the
// reservation is never stranded.
func (p *Poller) Confirm(ctx context.Context, req *agreement.MintRequest, txHash string, ticket *admission.Ticket) PollResult {
	newLogger := logger.WithFields(logger.Fields{
		"asset":    req.Asset,
		"receiver": req.Receiver,
		"txHash":   txHash,
	})

	result := PollResult{State: Polling}
	for result.Attempts < p.cfg.MaxAttempts {
		result.Attempts++

		rec, err := p.ledger.GetTx(ctx, txHash)
		switch {
		case err != nil:
			newLogger.Errorf("error fetching transaction: attempt=%d err=%v", result.Attempts, err)
		case rec != nil:
			result.State = Confirmed
			result.Record = rec
			newLogger.WithField("height", rec.Height).Info("transaction included in block")
			if rec.Code != 0 {
				newLogger.WithField("code", rec.Code).Warnf("transaction included but not executed: %s", rec.Log)
			}
			report(p.reporter, &agreement.MintEvent{
				Request:  req,
				Status:   agreement.Confirmed,
				TxHash:   txHash,
				At:       p.now(),
				Attempts: result.Attempts,
			})
			return result
		default:
			newLogger.WithField("attempt", result.Attempts).Debug("transaction not found yet")
		}

		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			newLogger.Warnf("stopped polling: err=%v", err)
			break
		}
	}

	result.State = TimedOut
	newLogger.WithField("attempts", result.Attempts).Error("transaction was not included in a block")

	// ctx may be cancelled already, the release must still go through
	if err := p.releaser.Release(context.WithoutCancel(ctx), ticket); err != nil {
		newLogger.Errorf("failed to release reservation: err=%v", err)
	}
	report(p.reporter, &agreement.MintEvent{
		Request:  req,
		Status:   agreement.TimedOut,
		TxHash:   txHash,
		Err:      fmt.Errorf("%w after %d attempts", ErrConfirmationTimeout, result.Attempts),
		At:       p.now(),
		Attempts: result.Attempts,
	})
	return result
}
