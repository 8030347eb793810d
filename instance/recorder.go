package instance

import (
	"time"

	"github.com/project-flogo/workflow/state"
)

func (c *Case) recordStart() {
	if c.mode == state.RecordingModeOff {
		return
	}
	if err := c.recorder.RecordStart(c.State()); err != nil {
		c.logger.Warnf("unable to record start: %v", err)
	}
}

// recordState hands the changes of the last command to the recorder. The
// tracked changes are reset whether or not they are recorded.
func (c *Case) recordState(start time.Time) {
	step := c.changes.ExtractStep(true)

	if c.mode == state.RecordingModeOff {
		return
	}

	if state.RecordSteps(c.mode) && !step.Empty() {
		step.StartTime = start
		step.EndTime = c.updated
		if err := c.recorder.RecordStep(step); err != nil {
			c.logger.Warnf("unable to record step: %v", err)
		}
	}

	if state.RecordSnapshot(c.mode) {
		if err := c.recorder.RecordSnapshot(c.Snapshot()); err != nil {
			c.logger.Warnf("unable to record snapshot: %v", err)
		}
	}
}

func (c *Case) recordDone() {
	if c.mode == state.RecordingModeOff {
		return
	}
	if err := c.recorder.RecordDone(c.State()); err != nil {
		c.logger.Warnf("unable to record done: %v", err)
	}
}
