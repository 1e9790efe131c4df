// Package broadcast pushes agent status histories to live subscribers.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const subjectPrefix = "agent.status."

// Subject returns the NATS subject carrying one agent's status updates.
func Subject(agentID uuid.UUID) string {
	return subjectPrefix + agentID.String()
}

// AgentStatusMessage is the payload published for every status change.
type AgentStatusMessage struct {
	AgentID       uuid.UUID                 `json:"agent_id"`
	StatusUpdates []domain.AgentStatusEvent `json:"status_updates"`
}

// publisher is satisfied by *nats.Conn.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATSBroadcaster publishes on core NATS without acknowledgement. Subscribers
// that are offline miss the update.
type NATSBroadcaster struct {
	conn   publisher
	nc     *nats.Conn
	logger *zap.Logger
}

func Connect(url string, logger *zap.Logger, opts ...nats.Option) (*NATSBroadcaster, error) {
	opts = append([]nats.Option{
		nats.Name("outreach-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}, opts...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSBroadcaster{conn: nc, nc: nc, logger: logger}, nil
}

func (b *NATSBroadcaster) BroadcastAgentStatus(ctx context.Context, agentID uuid.UUID, events []domain.AgentStatusEvent) error {
	if b == nil || b.conn == nil {
		return errors.New("nil broadcaster")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if events == nil {
		events = []domain.AgentStatusEvent{}
	}

	data, err := json.Marshal(AgentStatusMessage{AgentID: agentID, StatusUpdates: events})
	if err != nil {
		return fmt.Errorf("marshal status message: %w", err)
	}
	if err := b.conn.Publish(Subject(agentID), data); err != nil {
		return fmt.Errorf("publish %s: %w", Subject(agentID), err)
	}
	return nil
}

// Close drains the connection.
func (b *NATSBroadcaster) Close() {
	if b == nil || b.nc == nil {
		return
	}
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
	}
}

// LogBroadcaster stands in when no NATS server is configured.
type LogBroadcaster struct {
	logger *zap.Logger
}

func NewLogBroadcaster(logger *zap.Logger) *LogBroadcaster {
	return &LogBroadcaster{logger: logger}
}

func (b *LogBroadcaster) BroadcastAgentStatus(ctx context.Context, agentID uuid.UUID, events []domain.AgentStatusEvent) error {
	b.logger.Debug("agent status broadcast",
		zap.String("agent_id", agentID.String()),
		zap.Int("events", len(events)))
	return nil
}
