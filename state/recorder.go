package state

// Recorder is the interface that describes a service that can record
// snapshots and steps of a Case
type Recorder interface {
	RecordStart(state *CaseState) error
	// RecordSnapshot records a Snapshot of the Case
	RecordSnapshot(snapshot *CaseSnapshot) error
	// RecordStep records the changes for the current Step of the Case
	RecordStep(step *Step) error
	RecordDone(state *CaseState) error
}
