package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/project-flogo/workflow/model"
)

// Severity of a Finding
type Severity int

const (
	// SeverityWarning findings are reported but do not block loading
	SeverityWarning Severity = iota
	// SeverityCritical findings block loading of the specification
	SeverityCritical
)

func (s Severity) String() string {
	if s == SeverityCritical {
		return "critical"
	}
	return "warning"
}

// Kind identifies the check that produced a Finding
type Kind string

const (
	KindInputCondition     Kind = "InputCondition"
	KindOutputCondition    Kind = "OutputCondition"
	KindInputHasIncoming   Kind = "InputHasIncoming"
	KindOutputHasOutgoing  Kind = "OutputHasOutgoing"
	KindXorSplitPredicate  Kind = "XorSplitPredicate"
	KindDuplicateDefault   Kind = "DuplicateDefault"
	KindUnreachable        Kind = "Unreachable"
	KindDeadEnd            Kind = "DeadEnd"
	KindUnknownReference   Kind = "UnknownReference"
	KindMultiInstanceBound Kind = "MultiInstanceBounds"
	KindTimerConfig        Kind = "TimerConfig"
	KindTimeoutFlow        Kind = "TimeoutFlow"
	KindPotentialLivelock  Kind = "PotentialLivelock"
	KindOrJoinInCycle      Kind = "OrJoinInCycle"
)

// Finding is a single result of a soundness check
type Finding struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	Elements []string `json:"elements"`
	Message  string   `json:"message"`
}

func (f *Finding) String() string {
	return fmt.Sprintf("%s %s [%s]: %s", f.Severity, f.Kind, strings.Join(f.Elements, ", "), f.Message)
}

// Report is the result of validating a specification. Findings are sorted,
// critical findings first.
type Report struct {
	SpecID   string     `json:"specId"`
	Findings []*Finding `json:"findings"`
}

func (r *Report) add(severity Severity, kind Kind, msg string, elements ...string) {
	r.Findings = append(r.Findings, &Finding{Severity: severity, Kind: kind, Elements: elements, Message: msg})
}

func (r *Report) sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return strings.Join(a.Elements, ",") < strings.Join(b.Elements, ",")
	})
}

// Critical returns the findings that block loading
func (r *Report) Critical() []*Finding {
	return r.filter(SeverityCritical)
}

// Warnings returns the findings that do not block loading
func (r *Report) Warnings() []*Finding {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(severity Severity) []*Finding {
	var findings []*Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			findings = append(findings, f)
		}
	}
	return findings
}

// HasCritical returns true if the specification must not be loaded
func (r *Report) HasCritical() bool {
	return len(r.Critical()) > 0
}

// Err returns a SpecViolation error describing the critical findings, nil if there are none
func (r *Report) Err() error {
	critical := r.Critical()
	if len(critical) == 0 {
		return nil
	}

	msgs := make([]string, len(critical))
	for i, f := range critical {
		msgs[i] = f.String()
	}
	return model.NewError(model.CodeSpecViolation, "specification '%s' is not sound: %s", r.SpecID, strings.Join(msgs, "; "))
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "specification %s: %d critical, %d warning\n", r.SpecID, len(r.Critical()), len(r.Warnings()))
	for _, f := range r.Findings {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}
