// Package services orchestrates receipt operations across SQLite, the
// editing session layer and AMQP.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"scontrini/internal/amqp"
	"scontrini/internal/core"
	"scontrini/internal/session"
	"scontrini/internal/storage"
)

// ErrSettled is returned when a save would change the frozen splitting
// configuration of a receipt that already has repayments. The settlement
// guard enforces this in the editor; the service re-checks it so a stale
// client cannot corrupt money already exchanged.
var ErrSettled = errors.New("receipt has settled debts; splitting configuration is frozen")

type ReceiptService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewReceiptService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *ReceiptService {
	return &ReceiptService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// LoadSession seeds an editing session for an existing receipt: the
// persisted state becomes both working copy and baseline, and the
// settlement query decides the guard's initial state.
func (s *ReceiptService) LoadSession(ctx context.Context, id string) (*session.WorkingSet, error) {
	receipt, err := s.storage.LoadReceipt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load receipt: %w", err)
	}
	debtors, err := s.storage.ListDebtors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debtors: %w", err)
	}
	settled, err := s.storage.HasRepayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("settlement query: %w", err)
	}
	return session.Open(receipt, debtors, settled), nil
}

// NewSession opens an editing session for a brand new receipt.
func (s *ReceiptService) NewSession(ctx context.Context) (*session.WorkingSet, error) {
	debtors, err := s.storage.ListDebtors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debtors: %w", err)
	}
	return session.NewDraft(debtors), nil
}

// SaveReceipt validates and persists a receipt, then publishes a sync
// message. A receipt with settled debts may only change fields outside the
// frozen configuration (store name, date).
func (s *ReceiptService) SaveReceipt(ctx context.Context, receipt core.Receipt) (string, error) {
	if err := receipt.Validate(); err != nil {
		return "", err
	}

	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	} else {
		if err := s.checkSettlementFreeze(ctx, receipt); err != nil {
			return "", err
		}
	}
	for i := range receipt.Items {
		if receipt.Items[i].Key == "" {
			receipt.Items[i].Key = uuid.NewString()
		}
	}

	// Save to SQLite first (fast, reliable)
	if err := s.storage.SaveReceipt(ctx, receipt); err != nil {
		return "", fmt.Errorf("save receipt: %w", err)
	}

	// Publish async sync message (non-blocking)
	if err := s.publishSyncMessage(ctx, receipt.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", receipt.ID, "error", err)
		// Don't fail the request - receipt is saved locally
	}

	return receipt.ID, nil
}

// checkSettlementFreeze rejects saves that would alter the frozen
// configuration of a settled receipt.
func (s *ReceiptService) checkSettlementFreeze(ctx context.Context, receipt core.Receipt) error {
	settled, err := s.storage.HasRepayments(ctx, receipt.ID)
	if err != nil {
		return fmt.Errorf("settlement query: %w", err)
	}
	if !settled {
		return nil
	}
	stored, err := s.storage.LoadReceipt(ctx, receipt.ID)
	if err != nil {
		return fmt.Errorf("load stored receipt: %w", err)
	}
	// Only mutable fields may differ once settled.
	frozen := stored
	frozen.Store = receipt.Store
	frozen.PaidOn = receipt.PaidOn
	if !frozen.Equal(receipt) {
		return ErrSettled
	}
	return nil
}

// RecordRepayment inserts a repayment and re-publishes the receipt so the
// export reflects the new settlement state.
func (s *ReceiptService) RecordRepayment(ctx context.Context, rep core.Repayment) (string, error) {
	id, err := s.storage.RecordRepayment(ctx, rep)
	if err != nil {
		return "", fmt.Errorf("record repayment: %w", err)
	}

	if err := s.publishSyncMessage(ctx, rep.ReceiptID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"receipt_id", rep.ReceiptID, "error", err)
	}

	return id, nil
}

// DeleteRepayment removes a repayment record. If it was the last one, the
// receipt's configuration unfreezes on the next load.
func (s *ReceiptService) DeleteRepayment(ctx context.Context, id string) error {
	if err := s.storage.DeleteRepayment(ctx, id); err != nil {
		return fmt.Errorf("delete repayment: %w", err)
	}
	return nil
}

// ListRepayments returns the repayments recorded for a receipt.
func (s *ReceiptService) ListRepayments(ctx context.Context, receiptID string) ([]core.Repayment, error) {
	return s.storage.ListRepayments(ctx, receiptID)
}

// ListDebtors returns all known debtors.
func (s *ReceiptService) ListDebtors(ctx context.Context) ([]core.Debtor, error) {
	return s.storage.ListDebtors(ctx)
}

// CreateDebtor registers a new debtor.
func (s *ReceiptService) CreateDebtor(ctx context.Context, name string) (core.Debtor, error) {
	return s.storage.CreateDebtor(ctx, name)
}

func (s *ReceiptService) publishSyncMessage(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishReceiptSync(ctx, id, 0)
}

// Close closes both storage and AMQP connections.
func (s *ReceiptService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close receipt service: %v", errs)
	}

	return nil
}
