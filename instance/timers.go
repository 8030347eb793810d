package instance

import (
	"time"

	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
)

func (c *Case) armTimer(ti *TaskInst) {
	entry := c.timers.Arm(ti.id, ti.task.ID(), ti.task.Timer(), c.clock.Now())
	c.changes.TimerArmed(ti.id, ti.task.ID(), entry.Deadline)

	if c.logger.DebugEnabled() {
		c.logger.Debugf("Armed timer of '%s' for %s", ti.id, entry.Deadline.Format(time.RFC3339Nano))
	}
}

func (c *Case) disarmTimer(ti *TaskInst) {
	if c.timers.Disarm(ti.id) {
		c.changes.TimerDisarmed(ti.id)
	}
}

func (c *Case) clearTimers() {
	for _, e := range c.timers.Entries() {
		c.changes.TimerDisarmed(e.InstanceID)
	}
	c.timers.Clear()
}

// fireTimers applies the timeout action of every timer expired at now, in
// deadline order. Timers of instances that finished in the meantime are skipped.
func (c *Case) fireTimers(now time.Time) error {
	for _, e := range c.timers.Expired(now) {
		c.changes.TimerDisarmed(e.InstanceID)

		if c.status != model.CaseStatusRunning || c.outputMarked() {
			continue
		}

		ti := c.byID[e.InstanceID]
		if ti == nil || !ti.status.IsLive() {
			continue
		}

		c.emit(model.EventTimerExpired, ti, e.Trigger.String())

		tc := ti.task.Timer()
		var err error
		if tc.Action == definition.TimeoutCancel {
			err = c.cancelTask(ti, ReasonTimeout)
		} else {
			err = c.completeInstance(ti, nil, tc)
		}
		if err != nil {
			return err
		}

		// enable what the timeout made ready before the next deadline is handled
		if err = c.sweep(); err != nil {
			return err
		}
	}
	return nil
}
