package services

import (
	"context"
	"testing"
)

func TestNewReceiptService(t *testing.T) {
	service := NewReceiptService(nil, nil)

	if service == nil {
		t.Fatal("NewReceiptService should return a non-nil service")
	}
	if service.storage != nil || service.amqpClient != nil {
		t.Error("NewReceiptService should keep nil components nil")
	}
}

func TestReceiptService_Close(t *testing.T) {
	service := &ReceiptService{}

	if err := service.Close(); err != nil {
		t.Fatalf("Close should not return error with nil components: %v", err)
	}
}

func TestPublishSyncMessageWithoutAMQP(t *testing.T) {
	service := &ReceiptService{}

	// No AMQP client configured: publishing is a logged no-op, receipts
	// stay pending until the worker sweep picks them up.
	if err := service.publishSyncMessage(context.Background(), "r1"); err != nil {
		t.Fatalf("publishSyncMessage without client = %v, want nil", err)
	}
}
