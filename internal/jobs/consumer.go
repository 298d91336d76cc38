// Package jobs adapts the document and signature services to an external job
// queue. The consumer is transport-agnostic; whatever dequeues messages (cron,
// a broker worker, a manual admin call) hands them to Handle.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"docsign/internal/service"
)

// Job kinds accepted by the consumer.
const (
	KindExtractText      = "extract_text"
	KindVerifySignatures = "verify_signatures"
)

var ErrUnknownKind = errors.New("unknown job kind")

// Message is one unit of queued work.
type Message struct {
	Kind       string `json:"kind"`
	DocumentID string `json:"document_id,omitempty"`
	ContractID string `json:"contract_id,omitempty"`
}

// Notifier is told about finished jobs. Notification failures are logged and
// swallowed; a flaky notifier must never fail the job itself.
type Notifier interface {
	JobCompleted(ctx context.Context, msg Message, detail string) error
}

// Consumer executes queued jobs against the core services.
type Consumer struct {
	documents  service.DocumentService
	signatures service.SignatureService
	notifier   Notifier
	logger     *log.Logger
}

// NewConsumer builds a consumer. notifier may be nil.
func NewConsumer(documents service.DocumentService, signatures service.SignatureService, notifier Notifier) *Consumer {
	return &Consumer{
		documents:  documents,
		signatures: signatures,
		notifier:   notifier,
		logger:     log.New(os.Stdout, "", 0),
	}
}

// Handle runs one job to completion. The returned error signals the queue to
// retry or dead-letter the message, per its own policy.
func (c *Consumer) Handle(ctx context.Context, msg Message) error {
	switch msg.Kind {
	case KindExtractText:
		return c.extractText(ctx, msg)
	case KindVerifySignatures:
		return c.verifySignatures(ctx, msg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
}

func (c *Consumer) extractText(ctx context.Context, msg Message) error {
	if msg.DocumentID == "" {
		return errors.New("extract_text job requires document_id")
	}
	res, err := c.documents.Extract(ctx, msg.DocumentID)
	if err != nil {
		return fmt.Errorf("extract document %s: %w", msg.DocumentID, err)
	}
	c.notify(ctx, msg, fmt.Sprintf("extracted %d chars via %s", len(res.Text), res.EngineUsed))
	return nil
}

func (c *Consumer) verifySignatures(ctx context.Context, msg Message) error {
	if msg.ContractID == "" {
		return errors.New("verify_signatures job requires contract_id")
	}
	batch, err := c.signatures.VerifyAllContractSignatures(ctx, msg.ContractID)
	if err != nil {
		return fmt.Errorf("verify contract %s: %w", msg.ContractID, err)
	}
	c.notify(ctx, msg, fmt.Sprintf("verified=%d failed=%d", batch.Verified, batch.Failed))
	return nil
}

func (c *Consumer) notify(ctx context.Context, msg Message, detail string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.JobCompleted(ctx, msg, detail); err != nil {
		c.logJSON(map[string]any{
			"level": "warn",
			"msg":   "job notification failed",
			"kind":  msg.Kind,
			"error": err.Error(),
		})
	}
}

func (c *Consumer) logJSON(fields map[string]any) {
	b, err := json.Marshal(fields)
	if err != nil {
		c.logger.Printf("jobs: %v", fields)
		return
	}
	c.logger.Println(string(b))
}
