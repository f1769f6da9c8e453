package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type PubSubConfig struct {
	ProjectID string
	TopicName string
	// PubID prefixes the "name" attribute of every message so subscribers
	// can filter by environment (e.g. "beta", "stage").
	PubID string
}

// AuditEvent records one admin action taken through the console.
type AuditEvent struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Operator  string    `json:"operator,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PubSubService struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	config  *PubSubConfig
	pending sync.WaitGroup
}

// NewPubSubService connects to the project and makes sure the topic exists.
func NewPubSubService(ctx context.Context, cfg *PubSubConfig, opts ...option.ClientOption) (*PubSubService, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("PubSub project ID is required")
	}
	if cfg.TopicName == "" {
		return nil, fmt.Errorf("PubSub topic name is required")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create PubSub client: %w", err)
	}

	topic := client.Topic(cfg.TopicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check if topic exists: %w", err)
	}

	if !exists {
		logger.Base().Info("Topic does not exist, creating", zap.String("topicname", cfg.TopicName))
		topic, err = client.CreateTopic(ctx, cfg.TopicName)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to create topic %s: %w", cfg.TopicName, err)
		}
		logger.Base().Info("Topic created successfully", zap.String("topicname", cfg.TopicName))
	}

	return &PubSubService{
		client: client,
		topic:  topic,
		config: cfg,
	}, nil
}

func (p *PubSubService) messageName(id string) string {
	prefix := strings.TrimSuffix(p.config.PubID, ":")
	if prefix == "" {
		return "audit:" + id
	}
	return prefix + ":audit:" + id
}

// PublishAudit sends ev without waiting for the server acknowledgement;
// failures are logged. Close waits for outstanding publishes.
func (p *PubSubService) PublishAudit(ctx context.Context, ev AuditEvent) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error(ctx, "failed to marshal audit event", zap.Error(err))
		return
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Attributes: map[string]string{
			"name":   p.messageName(ev.ID),
			"action": ev.Action,
		},
		Data: data,
	})

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		if _, err := result.Get(context.Background()); err != nil {
			logger.Base().Error("Failed to publish audit event",
				zap.String("id", ev.ID),
				zap.String("action", ev.Action),
				zap.Error(err),
			)
			return
		}
		logger.Base().Debug("Published audit event", zap.String("id", ev.ID), zap.String("action", ev.Action))
	}()
}

// Flush blocks until every publish issued so far has settled.
func (p *PubSubService) Flush() {
	p.pending.Wait()
}

func (p *PubSubService) Close() error {
	p.Flush()
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
