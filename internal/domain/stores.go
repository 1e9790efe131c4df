package domain

import (
	"context"
	"io"

	"github.com/google/uuid"
)

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*User, error)
}

type AgentStore interface {
	Create(ctx context.Context, a *Agent) error
	GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*Agent, error)
	// GetUnscoped ignores the account; only the public sharing view may use it.
	GetUnscoped(ctx context.Context, id uuid.UUID) (*Agent, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]Agent, error)
	ListIDsByAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, accountID uuid.UUID, u AgentUpdate) (*Agent, error)
	Delete(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*Agent, error)
}

// AgentStatusStore is the append-only status log.
type AgentStatusStore interface {
	// Append inserts the event. It reports false when an event with the same id already exists.
	Append(ctx context.Context, e *AgentStatusEvent) (bool, error)
	// ListByAgent returns the full history ordered by created_on ascending.
	ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]AgentStatusEvent, error)
	// ListTerminalByAgents returns terminal events of the given agents, newest first.
	ListTerminalByAgents(ctx context.Context, agentIDs []uuid.UUID, accountID uuid.UUID) ([]AgentStatusEvent, error)
	ListFinishedByNames(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID, names []string) ([]AgentStatusEvent, error)
	DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error)
}

type ArtifactStore interface {
	ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]Artifact, error)
	ListPendingByAgents(ctx context.Context, agentIDs []uuid.UUID, accountID uuid.UUID) ([]Artifact, error)
	CountPendingByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
	UpdateReviewStatus(ctx context.Context, id uuid.UUID, accountID uuid.UUID, status ReviewState) (*Artifact, error)
	DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error)
}

type AgentReportStore interface {
	ListByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) ([]AgentReport, error)
	DeleteByAgent(ctx context.Context, agentID uuid.UUID, accountID uuid.UUID) (int64, error)
}

type ProspectStore interface {
	// ListAnalyzedInBand returns analyzed prospects with minScore <= score <= maxScore, best first.
	ListAnalyzedInBand(ctx context.Context, accountID uuid.UUID, minScore, maxScore float64, limit int) ([]AnalyzedProspect, error)
	ListByUpIDs(ctx context.Context, accountID uuid.UUID, upIDs []string) ([]Prospect, error)
}

type ConversationStore interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID, userID uuid.UUID) (*Conversation, error)
	ListByUser(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) ([]Conversation, error)
	AppendMessage(ctx context.Context, id uuid.UUID, accountID uuid.UUID, m ConversationMessage) error
	UpdateTitle(ctx context.Context, id uuid.UUID, accountID uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID, accountID uuid.UUID, userID uuid.UUID) error
}

type SequenceStore interface {
	// Create persists the sequence together with its steps.
	Create(ctx context.Context, s *Sequence) error
	GetByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*Sequence, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]Sequence, error)
}

type EmailEventStore interface {
	Record(ctx context.Context, e *SequenceEmailEvent) error
	// CountDistinct counts distinct prospect emails for an event, optionally narrowed to one step.
	CountDistinct(ctx context.Context, accountID uuid.UUID, sequenceID uuid.UUID, stepID *uuid.UUID, event EmailEventType) (int, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID, event EmailEventType) (int, error)
}

// ResearchClient submits agent executions to the AI backend.
type ResearchClient interface {
	SubmitResearch(ctx context.Context, req ResearchRequest) (*ResearchAck, error)
}

// ConverseClient relays QAi chat turns to the AI backend.
type ConverseClient interface {
	Converse(ctx context.Context, req ConverseRequest) (*ConverseResponse, error)
}

type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, link string) error
}

// StatusBroadcaster pushes an agent's status history to live clients. Delivery is best effort.
type StatusBroadcaster interface {
	BroadcastAgentStatus(ctx context.Context, agentID uuid.UUID, events []AgentStatusEvent) error
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type LLMClient interface {
	Title(ctx context.Context, conversation []Message) (string, error)
}
