package mocks

import (
	"context"

	"docsign/internal/model"
	"docsign/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockSignatureRepository struct {
	mock.Mock
}

func (m *MockSignatureRepository) Create(ctx context.Context, sig *model.QualifiedSignature) (*model.QualifiedSignature, error) {
	args := m.Called(ctx, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QualifiedSignature), args.Error(1)
}

func (m *MockSignatureRepository) FindByID(ctx context.Context, id string) (*model.QualifiedSignature, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QualifiedSignature), args.Error(1)
}

func (m *MockSignatureRepository) ListUnverifiedByContract(ctx context.Context, contractID string) ([]model.QualifiedSignature, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.QualifiedSignature), args.Error(1)
}

func (m *MockSignatureRepository) UpdateVerification(ctx context.Context, id string, status model.SignatureStatus, verdict *model.VerificationVerdict) error {
	args := m.Called(ctx, id, status, verdict)
	return args.Error(0)
}

func (m *MockSignatureRepository) CountByContract(ctx context.Context, contractID string) (*repository.SignatureCounts, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SignatureCounts), args.Error(1)
}
