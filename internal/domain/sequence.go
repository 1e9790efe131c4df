package domain

import (
	"time"

	"github.com/google/uuid"
)

type SequenceStatus string

const (
	SequenceStatusDraft  SequenceStatus = "draft"
	SequenceStatusActive SequenceStatus = "active"
	SequenceStatusPaused SequenceStatus = "paused"
)

type StepChannel string

const (
	ChannelEmail    StepChannel = "email"
	ChannelLinkedIn StepChannel = "linkedin"
)

type SequenceActivity struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	TxID string    `json:"txid,omitempty"`
}

const ActivityProspectsAdded = "prospects_added"

// Sequence is a multi-step outreach campaign.
type Sequence struct {
	ID               uuid.UUID          `json:"id" db:"id"`
	AccountID        uuid.UUID          `json:"account_id" db:"account_id"`
	CreatedBy        uuid.UUID          `json:"created_by" db:"created_by"`
	ConversationID   *uuid.UUID         `json:"conversation_id,omitempty" db:"conversation_id"`
	Name             string             `json:"name" db:"name"`
	Status           SequenceStatus     `json:"status" db:"status"`
	UploadedFileName string             `json:"uploaded_file_name,omitempty" db:"uploaded_file_name"`
	DefaultTimezone  string             `json:"default_timezone,omitempty" db:"default_timezone"`
	Activities       []SequenceActivity `json:"activities" db:"activities"`
	Steps            []SequenceStep     `json:"steps,omitempty" db:"-"`
	CreatedOn        time.Time          `json:"created_on" db:"created_on"`
	UpdatedOn        time.Time          `json:"updated_on" db:"updated_on"`
}

type SequenceStep struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	SequenceID uuid.UUID   `json:"sequence_id" db:"sequence_id"`
	AccountID  uuid.UUID   `json:"account_id" db:"account_id"`
	StepOrder  int         `json:"step_order" db:"step_order"`
	Channel    StepChannel `json:"channel" db:"channel"`
	Subject    string      `json:"subject" db:"subject"`
	Body       string      `json:"body" db:"body"`
	WaitDays   int         `json:"wait_days" db:"wait_days"`
}

type EmailEventType string

const (
	EmailEventSent  EmailEventType = "sent"
	EmailEventOpen  EmailEventType = "open"
	EmailEventReply EmailEventType = "reply"
)

type SequenceEmailEvent struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	AccountID     uuid.UUID      `json:"account_id" db:"account_id"`
	SequenceID    uuid.UUID      `json:"sequence_id" db:"sequence_id"`
	StepID        *uuid.UUID     `json:"step_id,omitempty" db:"step_id"`
	ProspectEmail string         `json:"prospect_email" db:"prospect_email"`
	Event         EmailEventType `json:"event" db:"event"`
	CreatedOn     time.Time      `json:"created_on" db:"created_on"`
}

// EngagementAnalytics summarises one engagement kind over a sequence or one of its steps.
type EngagementAnalytics struct {
	SequenceID uuid.UUID      `json:"sequence_id"`
	StepID     *uuid.UUID     `json:"step_id,omitempty"`
	Event      EmailEventType `json:"event"`
	Sent       int            `json:"sent"`
	Count      int            `json:"count"`
	Rate       float64        `json:"rate"`
}

// EngagementRate returns count/sent, or 0 when nothing was sent.
func EngagementRate(count, sent int) float64 {
	if sent <= 0 {
		return 0
	}
	return float64(count) / float64(sent)
}
