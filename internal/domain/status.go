package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type StatusState string

const (
	StateNotApplicable StatusState = "not_applicable"
	StateRunning       StatusState = "running"
	StateFinished      StatusState = "finished"
	StateFailed        StatusState = "failed"
)

func ValidStatusState(s string) bool {
	switch StatusState(s) {
	case StateNotApplicable, StateRunning, StateFinished, StateFailed:
		return true
	}
	return false
}

// Terminal reports whether an event in this state may set the displayed label.
func (s StatusState) Terminal() bool {
	return s == StateFinished || s == StateNotApplicable
}

// TerminalStates lists the states eligible to set the displayed label.
var TerminalStates = []StatusState{StateFinished, StateNotApplicable}

const (
	StatusCreated         = "created"
	StatusPaused          = "paused"
	StatusRunning         = "running"
	StatusArchived        = "archived"
	StatusSearchOnline    = "search_online"
	StatusFindProfiles    = "find_profiles"
	StatusMapSearchOnline = "map_search_online"
)

// AgentStatusEvent is one append-only entry of an agent's status log.
type AgentStatusEvent struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	AccountID          uuid.UUID       `json:"account_id" db:"account_id"`
	AgentID            uuid.UUID       `json:"agent_id" db:"agent_id"`
	Name               string          `json:"name" db:"name"`
	State              StatusState     `json:"state" db:"state"`
	ResultData         json.RawMessage `json:"result_data,omitempty" db:"result_data"`
	Message            string          `json:"message,omitempty" db:"message"`
	ProgressPercentage *int            `json:"progress_percentage,omitempty" db:"progress_percentage"`
	CreatedOn          time.Time       `json:"created_on" db:"created_on"`
}

// LatestTerminal returns the newest terminal event of an ordered (oldest first) history.
// Running and failed events never override the last known good label.
func LatestTerminal(events []AgentStatusEvent) *AgentStatusEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].State.Terminal() {
			return &events[i]
		}
	}
	return nil
}

// Label renders the display string of a single event.
func (e *AgentStatusEvent) Label() string {
	if e == nil {
		return ""
	}
	label := e.Name
	if e.Message != "" {
		label += ": " + e.Message
	}
	if e.ProgressPercentage != nil && *e.ProgressPercentage != 0 {
		label += " (" + strconv.Itoa(*e.ProgressPercentage) + "%)"
	}
	return label
}

// DisplayStatus derives the agent status label from its ordered history.
func DisplayStatus(events []AgentStatusEvent) string {
	return LatestTerminal(events).Label()
}
