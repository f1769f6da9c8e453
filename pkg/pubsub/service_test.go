package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestService(t *testing.T, pubID string) (*PubSubService, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	svc, err := NewPubSubService(context.Background(),
		&PubSubConfig{ProjectID: "astra", TopicName: "admin-audit", PubID: pubID},
		option.WithGRPCConn(conn),
	)
	require.NoError(t, err)
	return svc, srv
}

func TestPublishAudit_CreatesTopicAndPublishes(t *testing.T) {
	svc, srv := newTestService(t, "beta:")

	svc.PublishAudit(context.Background(), AuditEvent{
		ID:       "ev-1",
		Action:   "assistant.create",
		Method:   "POST",
		Path:     "/api/wizard/drafts/d1/submit",
		Status:   201,
		Operator: "ops@astra.io",
	})
	svc.Flush()

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "beta:audit:ev-1", msgs[0].Attributes["name"])
	assert.Equal(t, "assistant.create", msgs[0].Attributes["action"])

	var ev AuditEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &ev))
	assert.Equal(t, "ops@astra.io", ev.Operator)
	assert.Equal(t, 201, ev.Status)
	assert.False(t, ev.CreatedAt.IsZero())

	require.NoError(t, svc.Close())
}

func TestPublishAudit_AssignsIDWithoutPrefix(t *testing.T) {
	svc, srv := newTestService(t, "")
	defer svc.Close()

	svc.PublishAudit(context.Background(), AuditEvent{Action: "user.approval"})
	svc.Flush()

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Regexp(t, `^audit:[0-9a-f-]{36}$`, msgs[0].Attributes["name"])
}

func TestNewPubSubService_RequiresProjectAndTopic(t *testing.T) {
	_, err := NewPubSubService(context.Background(), &PubSubConfig{TopicName: "t"})
	assert.ErrorContains(t, err, "project ID is required")
	_, err = NewPubSubService(context.Background(), &PubSubConfig{ProjectID: "p"})
	assert.ErrorContains(t, err, "topic name is required")
}
