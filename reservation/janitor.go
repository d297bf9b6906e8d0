package reservation

import (
	"time"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"
)

// DefaultSweepSchedule is a cron spec understood by robfig/cron.
const DefaultSweepSchedule = "@every 10m"

// ScheduleSweep registers a periodic sweep of s on c.
// Expiry stays correct without it, the sweep only keeps memory bounded.
func ScheduleSweep(c *cron.Cron, spec string, s Sweeper) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultSweepSchedule
	}
	return c.AddFunc(spec, func() {
		removed := s.Sweep(time.Now())
		if removed > 0 {
			logger.WithField("removed", removed).Debug("swept expired reservations")
		}
	})
}
