package sqlrecorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/state"
)

var logger = log.ChildLogger(log.RootLogger(), "workflow-recorder")

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	case_id    TEXT PRIMARY KEY,
	spec_id    TEXT NOT NULL,
	spec_name  TEXT,
	status     INTEGER NOT NULL,
	error      TEXT,
	start_time TIMESTAMP,
	end_time   TIMESTAMP
);
CREATE TABLE IF NOT EXISTS steps (
	case_id    TEXT NOT NULL,
	step_id    INTEGER NOT NULL,
	data       TEXT NOT NULL,
	start_time TIMESTAMP,
	end_time   TIMESTAMP,
	PRIMARY KEY (case_id, step_id)
);
CREATE TABLE IF NOT EXISTS snapshots (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	case_id TEXT NOT NULL,
	status  INTEGER NOT NULL,
	data    TEXT NOT NULL,
	updated TIMESTAMP
);
CREATE INDEX IF NOT EXISTS snapshots_case ON snapshots (case_id);
`

// Recorder is a state.Recorder persisting case summaries, steps and
// snapshots to a sqlite database
type Recorder struct {
	db    *sql.DB
	owned bool
}

// Open opens (and creates if needed) the sqlite database at the specified dsn,
// e.g. "file:/var/lib/workflow/cases.db" or ":memory:"
func Open(dsn string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open recorder database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// every connection of an in-memory database is a different database
		db.SetMaxOpenConns(1)
	}

	r, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	r.owned = true
	return r, nil
}

// New creates a Recorder on an existing database, creating the tables if needed
func New(db *sql.DB) (*Recorder, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("unable to create recorder tables: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Close closes the database if it was opened by the Recorder
func (r *Recorder) Close() error {
	if !r.owned {
		return nil
	}
	return r.db.Close()
}

func (r *Recorder) RecordStart(cs *state.CaseState) error {
	_, err := r.db.Exec(`INSERT OR REPLACE INTO cases (case_id, spec_id, spec_name, status, error, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		cs.CaseId, cs.SpecId, cs.SpecName, cs.Status, cs.Error, cs.StartTime)
	if err != nil {
		return fmt.Errorf("unable to record start of case '%s': %w", cs.CaseId, err)
	}

	if logger.DebugEnabled() {
		logger.Debugf("Recorded start of case '%s'", cs.CaseId)
	}
	return nil
}

func (r *Recorder) RecordDone(cs *state.CaseState) error {
	_, err := r.db.Exec(`UPDATE cases SET status = ?, error = ?, end_time = ? WHERE case_id = ?`,
		cs.Status, cs.Error, cs.EndTime, cs.CaseId)
	if err != nil {
		return fmt.Errorf("unable to record end of case '%s': %w", cs.CaseId, err)
	}
	return nil
}

func (r *Recorder) RecordStep(step *state.Step) error {
	data, err := json.Marshal(step)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`INSERT INTO steps (case_id, step_id, data, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
		step.CaseId, step.Id, string(data), step.StartTime, step.EndTime)
	if err != nil {
		return fmt.Errorf("unable to record step %d of case '%s': %w", step.Id, step.CaseId, err)
	}
	return nil
}

func (r *Recorder) RecordSnapshot(snapshot *state.CaseSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`INSERT INTO snapshots (case_id, status, data, updated) VALUES (?, ?, ?, ?)`,
		snapshot.Id, int(snapshot.Status), string(data), snapshot.Updated)
	if err != nil {
		return fmt.Errorf("unable to record snapshot of case '%s': %w", snapshot.Id, err)
	}
	return nil
}

// CaseState returns the recorded summary of a case, nil if the case was never recorded
func (r *Recorder) CaseState(caseID string) (*state.CaseState, error) {
	cs := &state.CaseState{CaseId: caseID}

	var specName, errMsg sql.NullString
	var endTime sql.NullTime
	err := r.db.QueryRow(`SELECT spec_id, spec_name, status, error, start_time, end_time FROM cases WHERE case_id = ?`, caseID).
		Scan(&cs.SpecId, &specName, &cs.Status, &errMsg, &cs.StartTime, &endTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cs.SpecName = specName.String
	cs.Error = errMsg.String
	cs.EndTime = endTime.Time
	return cs, nil
}

// Steps returns the recorded steps of a case in order
func (r *Recorder) Steps(caseID string) ([]*state.Step, error) {
	rows, err := r.db.Query(`SELECT data FROM steps WHERE case_id = ? ORDER BY step_id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []*state.Step
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		step := &state.Step{}
		if err := json.Unmarshal([]byte(data), step); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// LatestSnapshot returns the last recorded snapshot of a case, nil if there is none
func (r *Recorder) LatestSnapshot(caseID string) (*state.CaseSnapshot, error) {
	var data string
	err := r.db.QueryRow(`SELECT data FROM snapshots WHERE case_id = ? ORDER BY id DESC LIMIT 1`, caseID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snapshot := &state.CaseSnapshot{}
	if err := json.Unmarshal([]byte(data), snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
