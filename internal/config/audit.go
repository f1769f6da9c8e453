package config

import "github.com/ClareAI/astra-voice-admin/pkg/pubsub"

// DefaultAuditTopic receives console audit events unless AUDIT_PUBSUB_TOPIC is set.
const DefaultAuditTopic = "astra-admin-audit"

// LoadAuditConfig returns the audit topic configuration, or nil when no
// project is configured and auditing is off.
func LoadAuditConfig() *pubsub.PubSubConfig {
	project := getEnv("AUDIT_PUBSUB_PROJECT", "")
	if project == "" {
		return nil
	}
	return &pubsub.PubSubConfig{
		ProjectID: project,
		TopicName: getEnv("AUDIT_PUBSUB_TOPIC", DefaultAuditTopic),
		PubID:     getEnv("AUDIT_PUBSUB_PUB_ID", ""),
	}
}
