package workflow

import (
	"fmt"
	"os"

	"github.com/project-flogo/core/data/coerce"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/support"
	"gopkg.in/yaml.v3"
)

const (
	EnvMaxCases    = "WORKFLOW_MAX_CASES"
	EnvMailboxSize = "WORKFLOW_MAILBOX_SIZE"
	EnvRecord      = "WORKFLOW_RECORD"
	EnvRecordDSN   = "WORKFLOW_RECORD_DSN"
	EnvExprLang    = "WORKFLOW_EXPR_LANG"
	EnvSettings    = "WORKFLOW_SETTINGS"

	DefaultMailboxSize = 64
)

// Settings configures an Executor
type Settings struct {
	// MaxCases limits the number of cases held by the executor, 0 is unlimited
	MaxCases int `yaml:"maxCases"`
	// MailboxSize is the number of commands a case buffers before senders block
	MailboxSize int `yaml:"mailboxSize"`

	RecordingMode state.RecordingMode `yaml:"recordingMode"`
	// RecordDSN is the sqlite database steps and snapshots are recorded to
	// when no recorder is configured
	RecordDSN string `yaml:"recordDsn"`

	// ExprLang selects the predicate language when no evaluator is configured
	ExprLang string `yaml:"exprLang"`
	// Breaker places a circuit breaker around the predicate evaluator
	Breaker *support.BreakerSettings `yaml:"breaker"`
}

// DefaultSettings returns the settings used when none are specified
func DefaultSettings() Settings {
	return Settings{
		MailboxSize:   DefaultMailboxSize,
		RecordingMode: state.RecordingModeOff,
		ExprLang:      support.LangExpr,
	}
}

// LoadSettings loads the settings from a yaml file, "" loads the defaults.
// Environment variables override the file.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return settings, fmt.Errorf("unable to read settings '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("unable to parse settings '%s': %w", path, err)
		}
	}

	if err := settings.applyEnv(); err != nil {
		return settings, err
	}
	return settings, settings.validate()
}

// SettingsFromEnv loads the settings file named by WORKFLOW_SETTINGS, if any,
// and applies the environment overrides
func SettingsFromEnv() (Settings, error) {
	return LoadSettings(os.Getenv(EnvSettings))
}

func (s *Settings) applyEnv() error {
	var err error

	if v, ok := os.LookupEnv(EnvMaxCases); ok {
		if s.MaxCases, err = coerce.ToInt(v); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxCases, err)
		}
	}
	if v, ok := os.LookupEnv(EnvMailboxSize); ok {
		if s.MailboxSize, err = coerce.ToInt(v); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMailboxSize, err)
		}
	}
	if v, ok := os.LookupEnv(EnvRecord); ok {
		// "true" records everything, as with the flow engine's record flag
		if b, bErr := coerce.ToBool(v); bErr == nil {
			if b {
				s.RecordingMode = state.RecordingModeFull
			} else {
				s.RecordingMode = state.RecordingModeOff
			}
		} else {
			s.RecordingMode = state.RecordingMode(v)
		}
	}
	if v, ok := os.LookupEnv(EnvRecordDSN); ok {
		s.RecordDSN = v
	}
	if v, ok := os.LookupEnv(EnvExprLang); ok {
		s.ExprLang = v
	}
	return nil
}

func (s *Settings) validate() error {
	mode, err := state.ToRecordingMode(string(s.RecordingMode))
	if err != nil {
		return err
	}
	s.RecordingMode = mode

	if s.MailboxSize <= 0 {
		s.MailboxSize = DefaultMailboxSize
	}
	if s.MaxCases < 0 {
		return fmt.Errorf("invalid max cases %d", s.MaxCases)
	}
	return nil
}
