package entity

import "github.com/google/uuid"

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// RunContext carries everything one orchestration pass needs.
type RunContext struct {
	ID          string
	Credentials Credentials
	Settings    RatingSettings
	Selection   RunSelection
	Headless    bool
}

func NewRunContext(creds Credentials, settings RatingSettings, selection RunSelection, headless bool) RunContext {
	return RunContext{
		ID:          uuid.NewString(),
		Credentials: creds,
		Settings:    settings,
		Selection:   selection,
		Headless:    headless,
	}
}

type RunOutcome struct {
	Success bool
	Message string
}

type DiscoveryOutcome struct {
	Success bool
	Message string
	Items   []WorkItem
}

type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelSuccess LogLevel = "success"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// Checkpoint is one of the coarse per-item progress steps.
type Checkpoint int

const (
	CheckpointOpened Checkpoint = iota
	CheckpointControlsFilled
	CheckpointCheckboxesHandled
	CheckpointSaved
	CheckpointReturned
)

const CheckpointsPerItem = 5

func (c Checkpoint) String() string {
	switch c {
	case CheckpointOpened:
		return "opened"
	case CheckpointControlsFilled:
		return "controls-filled"
	case CheckpointCheckboxesHandled:
		return "checkboxes-handled"
	case CheckpointSaved:
		return "saved"
	case CheckpointReturned:
		return "returned"
	default:
		return "unknown"
	}
}
