package chaintxmgr

import (
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/faucet-go/agreement"
)

// report hands ev to r. A panicking reporter is logged and never aborts
// the lifecycle, the reservation bookkeeping around it must still happen.
func report(r agreement.MintReporter, ev *agreement.MintEvent) {
	defer func() {
		if p := recover(); p != nil {
			logger.WithField("status", ev.Status).Errorf("mint reporter panicked: %v", p)
		}
	}()
	r.Report(ev)
}

type NopReporter struct{}

func (NopReporter) Report(*agreement.MintEvent) {}

// MultiReporter fans an event out to all reporters in order.
type MultiReporter []agreement.MintReporter

func (m MultiReporter) Report(ev *agreement.MintEvent) {
	for _, r := range m {
		if r != nil {
			r.Report(ev)
		}
	}
}

// LogReporter writes lifecycle transitions to the log.
type LogReporter struct{}

func (LogReporter) Report(ev *agreement.MintEvent) {
	fields := logger.Fields{"status": ev.Status}
	if ev.Request != nil {
		fields["id"] = ev.Request.Id
		fields["asset"] = ev.Request.Asset
		fields["receiver"] = ev.Request.Receiver
	}
	if ev.TxHash != "" {
		fields["txHash"] = ev.TxHash
	}
	newLogger := logger.WithFields(fields)

	switch ev.Status {
	case agreement.SubmitFailed, agreement.TimedOut:
		newLogger.WithError(ev.Err).Warn("mint lifecycle ended without confirmation")
	default:
		newLogger.Debug("mint lifecycle transition")
	}
}
