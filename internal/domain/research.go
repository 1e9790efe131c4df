package domain

import "encoding/json"

// ResearchRequest is the body of an agent execution submitted to the AI backend.
type ResearchRequest struct {
	SecretKey          string `json:"secret_key"`
	AgentID            string `json:"agent_id"`
	Query              string `json:"query"`
	UserTimezone       string `json:"user_timezone"`
	AsyncURL           string `json:"async_url"`
	UserID             string `json:"user_id"`
	AccountID          string `json:"account_id"`
	UploadedFileS3Link string `json:"uploaded_file_s3_link,omitempty"`
	LimitOutput        *bool  `json:"limit_output,omitempty"`
}

type ResearchAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ConverseRequest struct {
	SecretKey      string              `json:"secret_key"`
	ConversationID string              `json:"conversation_id"`
	Query          string              `json:"query"`
	Messages       []Message           `json:"messages"`
	UploadedData   []map[string]string `json:"uploaded_data,omitempty"`
	AccountID      string              `json:"account_id"`
	UserID         string              `json:"user_id"`
	IsDemo         bool                `json:"is_demo"`
}

const ActionCampaignCreated = "campaign_created"

type ConverseAction struct {
	Type     string           `json:"type"`
	Sequence *SequenceDetails `json:"sequence,omitempty"`
}

type SequenceStepDetails struct {
	Channel  StepChannel `json:"channel"`
	Subject  string      `json:"subject"`
	Body     string      `json:"body"`
	WaitDays int         `json:"wait_days"`
}

type SequenceDetails struct {
	Name            string                `json:"name"`
	DefaultTimezone string                `json:"default_timezone"`
	Steps           []SequenceStepDetails `json:"steps"`
}

type ConverseResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Action  *ConverseAction `json:"action,omitempty"`
}

// CreatedSequence returns the sequence payload when the reply announces a new campaign.
func (r *ConverseResponse) CreatedSequence() *SequenceDetails {
	if r == nil || r.Action == nil || r.Action.Type != ActionCampaignCreated {
		return nil
	}
	return r.Action.Sequence
}
