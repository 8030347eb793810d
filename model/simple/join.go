package simple

import (
	"github.com/project-flogo/workflow/model"
)

// AndJoin implements model.JoinBehavior, every input condition must hold a token
type AndJoin struct {
}

// Ready implements model.JoinBehavior.Ready
func (j *AndJoin) Ready(ctx model.JoinContext) bool {
	task := ctx.Task()

	if len(task.Inputs()) == 0 {
		return false
	}

	for _, flow := range task.Inputs() {
		if ctx.Tokens(flow.Source().ID()) == 0 {
			return false
		}
	}
	return true
}

// Consume implements model.JoinBehavior.Consume
func (j *AndJoin) Consume(ctx model.JoinContext) []string {
	inputs := ctx.Task().Inputs()
	consumed := make([]string, 0, len(inputs))
	for _, flow := range inputs {
		consumed = append(consumed, flow.Source().ID())
	}
	return consumed
}

// XorJoin implements model.JoinBehavior, the first arriving token fires the task
type XorJoin struct {
}

// Ready implements model.JoinBehavior.Ready
func (j *XorJoin) Ready(ctx model.JoinContext) bool {
	return firstMarked(ctx) != ""
}

// Consume implements model.JoinBehavior.Consume
func (j *XorJoin) Consume(ctx model.JoinContext) []string {
	if id := firstMarked(ctx); id != "" {
		return []string{id}
	}
	return nil
}

func firstMarked(ctx model.JoinContext) string {
	for _, flow := range ctx.Task().Inputs() {
		if id := flow.Source().ID(); ctx.Tokens(id) > 0 {
			return id
		}
	}
	return ""
}

// OrJoin implements model.JoinBehavior. The join waits until no unmarked input
// can still receive a token and at least one input is marked.
type OrJoin struct {
}

// Ready implements model.JoinBehavior.Ready
func (j *OrJoin) Ready(ctx model.JoinContext) bool {
	logger := ctx.Logger()
	task := ctx.Task()

	marked := false
	for _, flow := range task.Inputs() {
		id := flow.Source().ID()
		if ctx.Tokens(id) > 0 {
			marked = true
			continue
		}
		if ctx.Pending(id) {
			if logger.DebugEnabled() {
				logger.Debugf("Or-join '%s' waiting on input '%s'", task.ID(), id)
			}
			return false
		}
	}

	return marked
}

// Consume implements model.JoinBehavior.Consume
func (j *OrJoin) Consume(ctx model.JoinContext) []string {
	var consumed []string
	for _, flow := range ctx.Task().Inputs() {
		if id := flow.Source().ID(); ctx.Tokens(id) > 0 {
			consumed = append(consumed, id)
		}
	}
	return consumed
}

// Starved returns true if an Or-join has no marked input and none can be marked anymore
func Starved(ctx model.JoinContext) bool {
	for _, flow := range ctx.Task().Inputs() {
		id := flow.Source().ID()
		if ctx.Tokens(id) > 0 || ctx.Pending(id) {
			return false
		}
	}
	return true
}
