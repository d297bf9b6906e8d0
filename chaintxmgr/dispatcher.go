package chaintxmgr

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/admission"
	"github.com/TEENet-io/faucet-go/agreement"
	"github.com/TEENet-io/faucet-go/registry"
)

var (
	ErrNoCapability = errors.New("no handler for asset")
	ErrSubmitPanic  = errors.New("submission panicked")
	ErrTaskPanic    = errors.New("mint task panicked")
)

// Dispatcher runs the capability of an admitted request in the background
// and hands the resulting tx to the Confirmer.
//
// Every dispatched request ends in exactly one of:
//   - submission failed: both reservation keys released
//   - submitted then confirmed: reservation kept until it expires
//   - submitted then timed out: released by the Confirmer
type Dispatcher struct {
	ctx       context.Context
	lookup    CapabilityLookup
	confirmer Confirmer
	releaser  admission.Releaser
	reporter  agreement.MintReporter

	now func() time.Time
	wg  sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Cancelling ctx stops confirmation
// polling of in flight requests but never interrupts a submission.
func NewDispatcher(
	ctx context.Context,
	lookup CapabilityLookup,
	confirmer Confirmer,
	releaser admission.Releaser,
	reporter agreement.MintReporter,
) *Dispatcher {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Dispatcher{
		ctx:       ctx,
		lookup:    lookup,
		confirmer: confirmer,
		releaser:  releaser,
		reporter:  reporter,
		now:       time.Now,
	}
}

// Dispatch records req as admitted and returns at once.
// The ticket belongs to the dispatcher from here on.
func (d *Dispatcher) Dispatch(req *agreement.MintRequest, ticket *admission.Ticket) {
	report(d.reporter, &agreement.MintEvent{Request: req, Status: agreement.Admitted, At: d.now()})

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(req, ticket)
	}()
}

// Wait blocks until every dispatched request reached a terminal state.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(req *agreement.MintRequest, ticket *admission.Ticket) {
	newLogger := logger.WithFields(logger.Fields{
		"id":       req.Id,
		"asset":    req.Asset,
		"receiver": req.Receiver,
	})

	var txHash string
	var result PollResult
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		newLogger.Errorf("mint task panicked: %v\n%s", r, debug.Stack())
		if result.State == Confirmed {
			// the tx landed, the reservation stays
			return
		}
		// release is idempotent, a second call after the confirmer's is harmless
		d.release(req, ticket)
		status := agreement.SubmitFailed
		if txHash != "" {
			status = agreement.TimedOut
		}
		report(d.reporter, &agreement.MintEvent{
			Request: req,
			Status:  status,
			TxHash:  txHash,
			Err:     fmt.Errorf("%w: %v", ErrTaskPanic, r),
			At:      d.now(),
		})
	}()

	txHash, err := d.submit(req)
	if err != nil {
		newLogger.Errorf("error in mint task: err=%v", err)
		d.release(req, ticket)
		report(d.reporter, &agreement.MintEvent{Request: req, Status: agreement.SubmitFailed, Err: err, At: d.now()})
		return
	}

	newLogger.WithField("txHash", txHash).Info("transaction submitted")
	report(d.reporter, &agreement.MintEvent{Request: req, Status: agreement.Submitted, TxHash: txHash, At: d.now()})

	result = d.confirmer.Confirm(d.ctx, req, txHash, ticket)
}

func (d *Dispatcher) submit(req *agreement.MintRequest) (txHash string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubmitPanic, r)
		}
	}()

	c, ok := d.lookup.Lookup(req.Asset)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoCapability, req.Asset)
	}

	txHash, err = c.Submit(context.WithoutCancel(d.ctx), req.Asset, req.Receiver)
	if err != nil {
		return "", err
	}
	if txHash == "" {
		return "", registry.ErrNoTxHash
	}
	return txHash, nil
}

func (d *Dispatcher) release(req *agreement.MintRequest, ticket *admission.Ticket) {
	if err := d.releaser.Release(context.WithoutCancel(d.ctx), ticket); err != nil {
		logger.WithField("id", req.Id).Errorf("failed to release reservation: err=%v", err)
	}
}
