package repository

import (
	"context"

	"docsign/internal/model"
)

// SignatureCounts summarizes the verification state of a contract's signatures.
type SignatureCounts struct {
	Total    int
	Verified int
	Pending  int
	Failed   int
}

// SignatureRepository defines data access for qualified signatures using SQL
// queries only. No business logic here, strictly persistence operations.
type SignatureRepository interface {
	// Create inserts a new signature record; used by the signing flow and by
	// test fixtures.
	Create(ctx context.Context, sig *model.QualifiedSignature) (*model.QualifiedSignature, error)

	// FindByID returns a signature by its ID.
	FindByID(ctx context.Context, id string) (*model.QualifiedSignature, error)

	// ListUnverifiedByContract returns all signatures of a contract whose
	// status is not yet "verified", in creation order.
	ListUnverifiedByContract(ctx context.Context, contractID string) ([]model.QualifiedSignature, error)

	// UpdateVerification writes the verdict and the resulting status in one
	// statement. The previous verdict is replaced in full, never merged.
	UpdateVerification(ctx context.Context, id string, status model.SignatureStatus, verdict *model.VerificationVerdict) error

	// CountByContract returns the total/verified/pending/failed counts for a
	// contract.
	CountByContract(ctx context.Context, contractID string) (*SignatureCounts, error)
}
