package workflow

import _ "embed"

//go:embed VERSION
var version string

// Version returns the workflow engine release version
func Version() string {
	return version
}
