package timer

import (
	"sort"
	"time"

	"github.com/project-flogo/workflow/definition"
)

// Entry is an armed deadline of a task instance
type Entry struct {
	InstanceID string                  `json:"instanceId"`
	TaskID     string                  `json:"taskId"`
	Trigger    definition.TimerTrigger `json:"trigger"`
	ArmedAt    time.Time               `json:"armedAt"`
	Deadline   time.Time               `json:"deadline"`
}

// Scheduler keeps the armed timers of one case, at most one per task instance.
// It is owned by the case and not safe for concurrent use.
type Scheduler struct {
	entries map[string]*Entry
}

func NewScheduler() *Scheduler {
	return &Scheduler{entries: make(map[string]*Entry)}
}

// Arm arms the timer of a task instance, replacing any timer already armed for it
func (s *Scheduler) Arm(instanceID, taskID string, cfg *definition.TimerConfig, now time.Time) *Entry {
	entry := &Entry{
		InstanceID: instanceID,
		TaskID:     taskID,
		Trigger:    cfg.Trigger,
		ArmedAt:    now,
		Deadline:   cfg.Deadline(now),
	}
	s.entries[instanceID] = entry
	return entry
}

// Disarm removes the timer of a task instance, it returns false if none was armed
func (s *Scheduler) Disarm(instanceID string) bool {
	if _, ok := s.entries[instanceID]; !ok {
		return false
	}
	delete(s.entries, instanceID)
	return true
}

// Armed returns the timer armed for a task instance
func (s *Scheduler) Armed(instanceID string) (*Entry, bool) {
	e, ok := s.entries[instanceID]
	return e, ok
}

// Expired removes and returns every timer whose deadline is not after now,
// ordered by deadline. A returned timer never fires again.
func (s *Scheduler) Expired(now time.Time) []*Entry {
	var expired []*Entry
	for id, e := range s.entries {
		if !e.Deadline.After(now) {
			expired = append(expired, e)
			delete(s.entries, id)
		}
	}
	sortEntries(expired)
	return expired
}

// Next returns the earliest armed deadline
func (s *Scheduler) Next() (time.Time, bool) {
	var next time.Time
	found := false
	for _, e := range s.entries {
		if !found || e.Deadline.Before(next) {
			next = e.Deadline
			found = true
		}
	}
	return next, found
}

// Entries returns the armed timers ordered by deadline
func (s *Scheduler) Entries() []*Entry {
	entries := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries
}

func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Clear disarms every timer
func (s *Scheduler) Clear() {
	s.entries = make(map[string]*Entry)
}

func sortEntries(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Deadline.Equal(entries[j].Deadline) {
			return entries[i].Deadline.Before(entries[j].Deadline)
		}
		return entries[i].InstanceID < entries[j].InstanceID
	})
}
