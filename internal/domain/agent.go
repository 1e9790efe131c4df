package domain

import (
	"time"

	"github.com/google/uuid"
)

type AgentType string

const (
	AgentTypeProspectResearch  AgentType = "prospect_research"
	AgentTypeCompanyResearch   AgentType = "company_research"
	AgentTypeContactEnrichment AgentType = "contact_enrichment"
	AgentTypeCSVEnrichment     AgentType = "csv_enrichment"
)

// SupportedAgentTypes is the closed set of agent types accepted on create and update.
var SupportedAgentTypes = []AgentType{
	AgentTypeProspectResearch,
	AgentTypeCompanyResearch,
	AgentTypeContactEnrichment,
	AgentTypeCSVEnrichment,
}

func ValidAgentType(t string) bool {
	for _, at := range SupportedAgentTypes {
		if string(at) == t {
			return true
		}
	}
	return false
}

type ReviewMarker string

const (
	ReviewMarkerNotSeen ReviewMarker = "not_seen"
	ReviewMarkerSeen    ReviewMarker = "seen"
)

type Agent struct {
	ID                          uuid.UUID     `json:"id" db:"id"`
	AccountID                   uuid.UUID     `json:"account_id" db:"account_id"`
	CreatedBy                   uuid.UUID     `json:"created_by" db:"created_by"`
	Name                        string        `json:"name" db:"name"`
	Description                 string        `json:"description" db:"description"`
	Type                        AgentType     `json:"type" db:"type"`
	Status                      string        `json:"status,omitempty" db:"-"`
	IsArchived                  bool          `json:"is_archived" db:"is_archived"`
	IsSharingEnabled            bool          `json:"is_sharing_enabled" db:"is_sharing_enabled"`
	UploadedFileS3Link          *string       `json:"uploaded_file_s3_link,omitempty" db:"uploaded_file_s3_link"`
	ExecutionResultReviewStatus *ReviewMarker `json:"execution_result_review_status,omitempty" db:"execution_result_review_status"`
	CreatedOn                   time.Time     `json:"created_on" db:"created_on"`
	UpdatedOn                   time.Time     `json:"updated_on" db:"updated_on"`
}

// AgentUpdate carries the optional column changes applied by a lifecycle transition.
// Nil fields are left untouched; updated_on is always bumped.
type AgentUpdate struct {
	Name                        *string
	Description                 *string
	Type                        *AgentType
	IsArchived                  *bool
	IsSharingEnabled            *bool
	UploadedFileS3Link          *string
	ExecutionResultReviewStatus *ReviewMarker
}

// AgentReport is an opaque report document produced by the AI backend.
type AgentReport struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	AccountID uuid.UUID      `json:"account_id" db:"account_id"`
	AgentID   uuid.UUID      `json:"agent_id" db:"agent_id"`
	Report    map[string]any `json:"report" db:"report"`
	CreatedOn time.Time      `json:"created_on" db:"created_on"`
}

// PublicAgent is the view of an agent served to unauthenticated viewers.
type PublicAgent struct {
	IsFound  bool   `json:"is_found"`
	IsPublic bool   `json:"is_public"`
	AgentDoc *Agent `json:"agent_doc"`
}
