package workflow

import (
	"context"
	"time"

	"github.com/project-flogo/core/support"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/clock"
	"github.com/project-flogo/workflow/instance"
	"github.com/project-flogo/workflow/model"
)

type command struct {
	fn    func(c *instance.Case) (*Outcome, error)
	reply chan result
}

type result struct {
	out *Outcome
	err error
}

// caseActor is the single writer of a case: commands and timer expiries are
// applied by its goroutine one at a time
type caseActor struct {
	c       *instance.Case
	clock   clock.Clock
	mailbox chan *command
	done    chan struct{}
	onEvent func(*model.Event)
	logger  log.Logger
}

func newCaseActor(c *instance.Case, clk clock.Clock, mailboxSize int, onEvent func(*model.Event), logger log.Logger) *caseActor {
	return &caseActor{
		c:       c,
		clock:   clk,
		mailbox: make(chan *command, mailboxSize),
		done:    make(chan struct{}),
		onEvent: onEvent,
		logger:  logger,
	}
}

func (a *caseActor) run(ctx context.Context) error {
	var wake <-chan time.Time
	var armed time.Time

	for {
		if deadline, ok := a.c.NextDeadline(); !ok {
			wake = nil
		} else if wake == nil || !deadline.Equal(armed) {
			armed = deadline
			wake = a.clock.After(deadline.Sub(a.clock.Now()))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-a.done:
			return nil
		case cmd := <-a.mailbox:
			out, err := a.execute(cmd.fn)
			cmd.reply <- result{out: out, err: err}
		case <-wake:
			wake = nil
			_, err := a.execute(func(c *instance.Case) (*Outcome, error) {
				return c.ProcessTimers(a.clock.Now())
			})
			if err != nil {
				a.logger.Errorf("Timers of case '%s' failed: %v", a.c.ID(), err)
			}
		}
	}
}

func (a *caseActor) execute(fn func(c *instance.Case) (*Outcome, error)) (out *Outcome, err error) {
	defer support.HandlePanic("case "+a.c.ID(), &err)

	out, err = fn(a.c)
	if out != nil && a.onEvent != nil {
		for _, ev := range out.Events {
			a.onEvent(ev)
		}
	}
	return out, err
}

func (a *caseActor) stop() {
	close(a.done)
}
