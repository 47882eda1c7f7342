package lark

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

type sentMessage struct {
	receiveIDType string
	receiveID     string
	msgType       string
	text          string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) CreateMessage(_ context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		return "", err
	}
	f.sent = append(f.sent, sentMessage{receiveIDType, receiveID, msgType, body["text"]})
	return "om_1", nil
}

func testClaim() *entity.ExpenseClaim {
	return &entity.ExpenseClaim{ID: 7, Period: entity.Period{Year: 2025, Month: 7}, OwnerID: "ou_owner"}
}

func TestNotifier_ClaimSubmitted(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, NotifierConfig{ApproverID: "ou_mgr"}, zap.NewNop())

	require.NoError(t, n.ClaimSubmitted(context.Background(), testClaim(), 123450))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "open_id", msg.receiveIDType)
	assert.Equal(t, "ou_mgr", msg.receiveID)
	assert.Equal(t, "text", msg.msgType)
	assert.Contains(t, msg.text, "#7")
	assert.Contains(t, msg.text, "2025-07")
	assert.Contains(t, msg.text, "123,450")
}

func TestNotifier_OwnerMessages(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, NotifierConfig{ApproverID: "mgr@example.com", ReceiveIDType: "email"}, zap.NewNop())

	require.NoError(t, n.ClaimApproved(context.Background(), testClaim()))
	require.NoError(t, n.ClaimRejected(context.Background(), testClaim(), "receipt \"missing\""))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ou_owner", sender.sent[0].receiveID)
	assert.Equal(t, "email", sender.sent[0].receiveIDType)
	assert.Contains(t, sender.sent[0].text, "approved")
	assert.Contains(t, sender.sent[1].text, "Reason: receipt \"missing\"")
}

func TestNotifier_Errors(t *testing.T) {
	n := NewNotifier(&fakeSender{}, NotifierConfig{}, zap.NewNop())
	assert.Error(t, n.ClaimSubmitted(context.Background(), testClaim(), 0))

	failing := NewNotifier(&fakeSender{err: errors.New("boom")}, NotifierConfig{ApproverID: "ou_mgr"}, zap.NewNop())
	assert.EqualError(t, failing.ClaimApproved(context.Background(), testClaim()), "boom")
}
