package validation

import (
	"sort"

	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/definition"
)

var logger = log.ChildLogger(log.RootLogger(), "workflow-validation")

// Validate runs the structural and cycle checks over a specification.
// It never mutates the definition, the same definition always yields the same report.
func Validate(def *definition.Definition) *Report {
	report := &Report{SpecID: def.ID()}

	checkBoundaryConditions(def, report)
	checkSplits(def, report)
	checkReachability(def, report)
	checkTaskConfigs(def, report)
	checkCycles(def, report)

	report.sort()

	if logger.DebugEnabled() {
		logger.Debugf("Validated specification '%s': %d critical, %d warning", def.ID(), len(report.Critical()), len(report.Warnings()))
	}

	return report
}

func checkBoundaryConditions(def *definition.Definition, report *Report) {
	var inputs, outputs []string

	for _, c := range def.Conditions() {
		switch c.Kind() {
		case definition.ConditionInput:
			inputs = append(inputs, c.ID())
			if len(c.Inputs()) > 0 {
				report.add(SeverityCritical, KindInputHasIncoming, "input condition has incoming flows", c.ID())
			}
		case definition.ConditionOutput:
			outputs = append(outputs, c.ID())
			if len(c.Outputs()) > 0 {
				report.add(SeverityCritical, KindOutputHasOutgoing, "output condition has outgoing flows", c.ID())
			}
		}
	}

	if len(inputs) != 1 {
		report.add(SeverityCritical, KindInputCondition, "net must have exactly one input condition", inputs...)
	}
	if len(outputs) != 1 {
		report.add(SeverityCritical, KindOutputCondition, "net must have exactly one output condition", outputs...)
	}
}

func checkSplits(def *definition.Definition, report *Report) {
	for _, task := range def.Tasks() {
		defaults := 0
		var unguarded []*definition.Flow

		for _, flow := range task.Outputs() {
			if flow.IsDefault() {
				defaults++
			}
			if flow.Predicate() == "" {
				unguarded = append(unguarded, flow)
			}
		}

		if defaults > 1 {
			report.add(SeverityCritical, KindDuplicateDefault, "split has more than one default flow", task.ID())
		}

		if task.SplitType() != definition.SplitXor {
			continue
		}

		if len(unguarded) > 1 || (len(unguarded) == 1 && !unguarded[0].IsDefault()) {
			report.add(SeverityCritical, KindXorSplitPredicate, "every flow of an xor-split except the default must have a predicate", task.ID())
		}
	}
}

func checkReachability(def *definition.Definition, report *Report) {
	in := def.InputCondition()
	out := def.OutputCondition()

	if in != nil && len(report.filterKind(KindInputCondition)) == 0 {
		reached := walk([]definition.Element{in}, func(e definition.Element) []*definition.Flow { return e.Outputs() },
			func(f *definition.Flow) definition.Element { return f.Target() })

		for _, e := range explicitElements(def) {
			if !reached[e.ID()] {
				report.add(SeverityCritical, KindUnreachable, "element is not reachable from the input condition", e.ID())
			}
		}
	}

	if out != nil && len(report.filterKind(KindOutputCondition)) == 0 {
		// explicit termination points are accepted as sinks
		sinks := []definition.Element{out}
		for _, e := range def.Elements() {
			if e.Terminal() {
				sinks = append(sinks, e)
			}
		}

		reached := walk(sinks, func(e definition.Element) []*definition.Flow { return e.Inputs() },
			func(f *definition.Flow) definition.Element { return f.Source() })

		for _, e := range explicitElements(def) {
			if !reached[e.ID()] {
				report.add(SeverityCritical, KindDeadEnd, "element cannot reach the output condition", e.ID())
			}
		}
	}
}

func checkTaskConfigs(def *definition.Definition, report *Report) {
	for _, task := range def.Tasks() {

		for _, id := range task.CancellationSet() {
			if def.GetElement(id) == nil {
				report.add(SeverityCritical, KindUnknownReference, "cancellation set references unknown element '"+id+"'", task.ID())
			}
		}

		if mi := task.MultiInstance(); mi != nil {
			if mi.Minimum <= 0 || mi.Minimum > mi.Maximum {
				report.add(SeverityCritical, KindMultiInstanceBound, "multi-instance bounds must satisfy 0 < minimum <= maximum", task.ID())
			}
			if mi.Threshold < 1 || mi.Threshold > mi.Maximum {
				report.add(SeverityCritical, KindMultiInstanceBound, "multi-instance threshold must satisfy 1 <= threshold <= maximum", task.ID())
			}
		}

		if tc := task.Timer(); tc != nil {
			relative := tc.Ticks > 0 && tc.Interval > 0
			absolute := !tc.Expiry.IsZero()
			if relative == absolute {
				report.add(SeverityCritical, KindTimerConfig, "timer must have exactly one of ticks/interval or expiry", task.ID())
			}
			switch {
			case tc.Flow == "":
			case task.IsMultiInstance():
				report.add(SeverityCritical, KindTimeoutFlow, "timeout flow '"+tc.Flow+"' is not supported on a multi-instance task", task.ID())
			case task.OutputTo(tc.Flow) == nil:
				report.add(SeverityCritical, KindTimeoutFlow, "timeout flow '"+tc.Flow+"' is not an outgoing flow target", task.ID())
			}
		}
	}
}

func checkCycles(def *definition.Definition, report *Report) {
	for _, scc := range tarjanSCC(def) {
		if len(scc) < 2 {
			continue
		}

		var xorJoin, orJoin bool
		for _, id := range scc {
			task := def.GetTask(id)
			if task == nil {
				continue
			}
			switch task.JoinType() {
			case definition.JoinXor:
				xorJoin = true
			case definition.JoinOr:
				orJoin = true
			}
		}

		if xorJoin {
			report.add(SeverityWarning, KindPotentialLivelock, "cycle contains an xor-join task", scc...)
		}
		if orJoin {
			report.add(SeverityWarning, KindOrJoinInCycle, "cycle contains an or-join task", scc...)
		}
	}
}

func (r *Report) filterKind(kind Kind) []*Finding {
	var findings []*Finding
	for _, f := range r.Findings {
		if f.Kind == kind {
			findings = append(findings, f)
		}
	}
	return findings
}

// explicitElements returns every element except the implicit conditions, these
// share the fate of the task feeding them
func explicitElements(def *definition.Definition) []definition.Element {
	var elements []definition.Element
	for _, e := range def.Elements() {
		if c, ok := e.(*definition.Condition); ok && c.Implicit() {
			continue
		}
		elements = append(elements, e)
	}
	return elements
}

func walk(start []definition.Element, edges func(definition.Element) []*definition.Flow, next func(*definition.Flow) definition.Element) map[string]bool {
	visited := make(map[string]bool)
	queue := append([]definition.Element(nil), start...)
	for _, e := range start {
		visited[e.ID()] = true
	}

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		for _, f := range edges(e) {
			n := next(f)
			if !visited[n.ID()] {
				visited[n.ID()] = true
				queue = append(queue, n)
			}
		}
	}
	return visited
}

// tarjanSCC finds the strongly connected components of the flow graph.
// Components and their members are sorted by id.
func tarjanSCC(def *definition.Definition) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(e definition.Element)
	strongConnect = func(e definition.Element) {
		v := e.ID()
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, f := range e.Outputs() {
			w := f.Target().ID()
			if _, visited := indices[w]; !visited {
				strongConnect(f.Target())
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, e := range def.Elements() {
		if _, visited := indices[e.ID()]; !visited {
			strongConnect(e)
		}
	}

	sort.Slice(sccs, func(i, j int) bool {
		return sccs[i][0] < sccs[j][0]
	})

	return sccs
}
