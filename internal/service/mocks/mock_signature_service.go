package mocks

import (
	"context"

	"docsign/internal/model"
	"docsign/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockSignatureService struct {
	mock.Mock
}

func (m *MockSignatureService) VerifySignature(ctx context.Context, id string) (*model.VerificationVerdict, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationVerdict), args.Error(1)
}

func (m *MockSignatureService) VerifyAllContractSignatures(ctx context.Context, contractID string) (*service.BatchResult, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchResult), args.Error(1)
}

func (m *MockSignatureService) GetContractSignatureStatus(ctx context.Context, contractID string) (*service.StatusSummary, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatusSummary), args.Error(1)
}
