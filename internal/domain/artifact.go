package domain

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type ArtifactType string

const (
	ArtifactTypeCompany ArtifactType = "company"
	ArtifactTypeContact ArtifactType = "contact"
)

type ReviewState string

const (
	ReviewPending  ReviewState = "pending"
	ReviewAccepted ReviewState = "accepted"
	ReviewRejected ReviewState = "rejected"
)

func ValidReviewDecision(s string) bool {
	return ReviewState(s) == ReviewAccepted || ReviewState(s) == ReviewRejected
}

type AnalysisResult struct {
	ConfidenceScore float64  `json:"confidence_score"`
	AnalysisReasons []string `json:"analysis_reasons"`
}

type ArtifactReview struct {
	Status    ReviewState `json:"status"`
	UpdatedOn time.Time   `json:"updated_on"`
}

// Artifact is a company or contact discovered by an agent run.
type Artifact struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	AccountID        uuid.UUID      `json:"account_id" db:"account_id"`
	AgentID          uuid.UUID      `json:"agent_id" db:"agent_id"`
	ParentArtifactID *uuid.UUID     `json:"parent_artifact_id,omitempty" db:"parent_artifact_id"`
	Type             ArtifactType   `json:"type" db:"type"`
	Properties       map[string]any `json:"properties" db:"properties"`
	AnalysisResult   AnalysisResult `json:"analysis_result" db:"analysis_result"`
	ReviewStatus     ArtifactReview `json:"review_status" db:"review_status"`
	CreatedOn        time.Time      `json:"created_on" db:"created_on"`
	UpdatedOn        time.Time      `json:"updated_on" db:"updated_on"`
}

// ArtifactHeader describes one column of an artifact type.
type ArtifactHeader struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`
}

//go:embed artifact_types.yaml
var artifactTypesYAML []byte

var artifactHeaders map[ArtifactType][]ArtifactHeader

func init() {
	registry, err := parseArtifactHeaders(artifactTypesYAML)
	if err != nil {
		panic(fmt.Sprintf("domain: invalid artifact header registry: %v", err))
	}
	artifactHeaders = registry
}

func parseArtifactHeaders(raw []byte) (map[ArtifactType][]ArtifactHeader, error) {
	var registry map[ArtifactType][]ArtifactHeader
	if err := yaml.Unmarshal(raw, &registry); err != nil {
		return nil, err
	}
	for typ, headers := range registry {
		for i, h := range headers {
			if h.Key == "" {
				return nil, fmt.Errorf("%s header %d has no key", typ, i)
			}
		}
	}
	return registry, nil
}

// ArtifactHeaders returns the header schema of a type. Unknown types get an empty schema.
func ArtifactHeaders(t ArtifactType) []ArtifactHeader {
	headers, ok := artifactHeaders[t]
	if !ok {
		return []ArtifactHeader{}
	}
	out := make([]ArtifactHeader, len(headers))
	copy(out, headers)
	return out
}

type ArtifactGroup struct {
	Type      ArtifactType     `json:"type"`
	Headers   []ArtifactHeader `json:"headers"`
	Artifacts []Artifact       `json:"artifacts"`
}

type ArtifactGroups []ArtifactGroup

// ByType indexes the groups by their type tag.
func (g ArtifactGroups) ByType() map[ArtifactType]ArtifactGroup {
	m := make(map[ArtifactType]ArtifactGroup, len(g))
	for _, group := range g {
		m[group.Type] = group
	}
	return m
}

// First returns the group of the first type seen, or nil when there are none.
func (g ArtifactGroups) First() *ArtifactGroup {
	if len(g) == 0 {
		return nil
	}
	return &g[0]
}

// GroupArtifactsByType buckets artifacts by type in first-seen order.
// Input order is preserved inside each group; nothing is deduplicated or sorted.
func GroupArtifactsByType(artifacts []Artifact) ArtifactGroups {
	groups := ArtifactGroups{}
	index := make(map[ArtifactType]int)
	for _, a := range artifacts {
		i, ok := index[a.Type]
		if !ok {
			i = len(groups)
			index[a.Type] = i
			groups = append(groups, ArtifactGroup{
				Type:      a.Type,
				Headers:   ArtifactHeaders(a.Type),
				Artifacts: []Artifact{},
			})
		}
		groups[i].Artifacts = append(groups[i].Artifacts, a)
	}
	return groups
}
