package state

import (
	"fmt"
	"strings"

	"github.com/project-flogo/core/data/coerce"
)

type RecordingMode string

const (
	// RecordingModeOff disables recording
	RecordingModeOff RecordingMode = "off"
	// RecordingModeStep records the changes of every transition
	RecordingModeStep RecordingMode = "step"
	// RecordingModeSnapshot records a full snapshot after every transition
	RecordingModeSnapshot RecordingMode = "snapshot"
	// RecordingModeFull records both steps and snapshots
	RecordingModeFull RecordingMode = "full"
)

// ToRecordingMode converts a value to a RecordingMode, "" is off
func ToRecordingMode(mode interface{}) (RecordingMode, error) {
	m, _ := coerce.ToString(mode)
	rMode := RecordingMode(strings.ToLower(strings.TrimSpace(m)))
	switch rMode {
	case "":
		return RecordingModeOff, nil
	case RecordingModeOff, RecordingModeFull, RecordingModeSnapshot, RecordingModeStep:
		return rMode, nil
	default:
		return RecordingModeOff, fmt.Errorf("unsupported recording mode [%s]", m)
	}
}

// RecordSteps returns true if steps are recorded in the specified mode
func RecordSteps(mode RecordingMode) bool {
	return mode == RecordingModeStep || mode == RecordingModeFull
}

// RecordSnapshot returns true if snapshots are recorded in the specified mode
func RecordSnapshot(mode RecordingMode) bool {
	return mode == RecordingModeSnapshot || mode == RecordingModeFull
}
