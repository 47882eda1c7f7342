// Package lark delivers claim notifications through Lark IM.
package lark

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/money"
)

// MessageSender is the part of the Lark IM API the notifier needs
type MessageSender interface {
	CreateMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// NotifierConfig configures who receives what
type NotifierConfig struct {
	// ApproverID receives submission notices
	ApproverID string
	// ReceiveIDType is how ApproverID and claim owner ids are interpreted (open_id, email...)
	ReceiveIDType string
}

// Notifier implements port.Notifier over Lark text messages.
// Claim owner ids are used as receive ids for approval and rejection notices.
type Notifier struct {
	sender MessageSender
	cfg    NotifierConfig
	logger *zap.Logger
}

// NewNotifier creates a Lark notifier
func NewNotifier(sender MessageSender, cfg NotifierConfig, logger *zap.Logger) *Notifier {
	if cfg.ReceiveIDType == "" {
		cfg.ReceiveIDType = "open_id"
	}
	return &Notifier{sender: sender, cfg: cfg, logger: logger}
}

// ClaimSubmitted notifies the approver that a claim awaits review
func (n *Notifier) ClaimSubmitted(ctx context.Context, claim *entity.ExpenseClaim, total int64) error {
	text := fmt.Sprintf("Expense claim #%d for %s was submitted by %s. Total: %s",
		claim.ID, claim.Period, claim.OwnerID, money.Format(total))
	return n.send(ctx, n.cfg.ApproverID, text)
}

// ClaimApproved notifies the owner
func (n *Notifier) ClaimApproved(ctx context.Context, claim *entity.ExpenseClaim) error {
	text := fmt.Sprintf("Your expense claim #%d for %s was approved.", claim.ID, claim.Period)
	return n.send(ctx, claim.OwnerID, text)
}

// ClaimRejected notifies the owner with the rejection reason
func (n *Notifier) ClaimRejected(ctx context.Context, claim *entity.ExpenseClaim, reason string) error {
	text := fmt.Sprintf("Your expense claim #%d for %s was rejected.\nReason: %s", claim.ID, claim.Period, reason)
	return n.send(ctx, claim.OwnerID, text)
}

func (n *Notifier) send(ctx context.Context, receiveID, text string) error {
	if receiveID == "" {
		return fmt.Errorf("receive id cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	messageID, err := n.sender.CreateMessage(ctx, n.cfg.ReceiveIDType, receiveID, "text", string(content))
	if err != nil {
		return err
	}

	n.logger.Info("Notification sent",
		zap.String("receive_id", receiveID),
		zap.String("message_id", messageID))
	return nil
}
