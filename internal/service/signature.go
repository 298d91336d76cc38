package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docsign/internal/model"
	"docsign/internal/repository"
)

var ErrSignatureNotFound = errors.New("signature not found")

// SignatureVerifier runs the full check suite against a single signature.
type SignatureVerifier interface {
	Verify(ctx context.Context, sig *model.QualifiedSignature) model.VerificationVerdict
}

// BatchResult aggregates the outcome of verifying all signatures of a contract.
type BatchResult struct {
	Verified int                         `json:"verified"`
	Failed   int                         `json:"failed"`
	Results  []model.VerificationVerdict `json:"results"`
}

// StatusSummary reports per-contract verification progress.
type StatusSummary struct {
	Total      int  `json:"total"`
	Verified   int  `json:"verified"`
	Pending    int  `json:"pending"`
	Failed     int  `json:"failed"`
	IsComplete bool `json:"is_complete"`
}

// SignatureService defines the use cases around signature verification.
type SignatureService interface {
	// VerifySignature verifies one signature and persists status and verdict.
	VerifySignature(ctx context.Context, id string) (*model.VerificationVerdict, error)

	// VerifyAllContractSignatures verifies every not-yet-verified signature of
	// the contract. One failing signature never aborts the batch.
	VerifyAllContractSignatures(ctx context.Context, contractID string) (*BatchResult, error)

	// GetContractSignatureStatus reports how far verification has progressed.
	GetContractSignatureStatus(ctx context.Context, contractID string) (*StatusSummary, error)
}

type signatureService struct {
	repo     repository.SignatureRepository
	verifier SignatureVerifier
}

// NewSignatureService constructs a new SignatureService.
func NewSignatureService(repo repository.SignatureRepository, verifier SignatureVerifier) SignatureService {
	return &signatureService{repo: repo, verifier: verifier}
}

func (s *signatureService) VerifySignature(ctx context.Context, id string) (*model.VerificationVerdict, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	sig, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignatureNotFound
		}
		return nil, err
	}

	verdict, err := s.verifyOne(ctx, sig)
	if err != nil {
		return nil, err
	}

	status := model.SignatureStatusVerificationFailed
	if verdict.IsValid {
		status = model.SignatureStatusVerified
	}
	if err := s.repo.UpdateVerification(ctx, id, status, verdict); err != nil {
		return nil, fmt.Errorf("persist verdict: %w", err)
	}
	return verdict, nil
}

func (s *signatureService) VerifyAllContractSignatures(ctx context.Context, contractID string) (*BatchResult, error) {
	if contractID == "" {
		return nil, ErrIDRequired
	}
	sigs, err := s.repo.ListUnverifiedByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{Results: make([]model.VerificationVerdict, 0, len(sigs))}
	for i := range sigs {
		sig := &sigs[i]
		verdict, err := s.verifyOne(ctx, sig)
		if err != nil {
			// Record the failure and keep going; the remaining signatures
			// still get their turn.
			verdict = &model.VerificationVerdict{
				IsValid: false,
				Errors:  []string{err.Error()},
			}
		}

		status := model.SignatureStatusVerificationFailed
		if verdict.IsValid {
			status = model.SignatureStatusVerified
		}
		if err := s.repo.UpdateVerification(ctx, sig.ID, status, verdict); err != nil {
			verdict.Errors = append(verdict.Errors, fmt.Sprintf("persist verdict: %v", err))
			verdict.IsValid = false
			status = model.SignatureStatusVerificationFailed
		}

		if status == model.SignatureStatusVerified {
			batch.Verified++
		} else {
			batch.Failed++
		}
		batch.Results = append(batch.Results, *verdict)
	}
	return batch, nil
}

// verifyOne shields the batch loop from a panicking check implementation.
func (s *signatureService) verifyOne(ctx context.Context, sig *model.QualifiedSignature) (verdict *model.VerificationVerdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			verdict = nil
			err = fmt.Errorf("verification panic for signature %s: %v", sig.ID, r)
		}
	}()
	v := s.verifier.Verify(ctx, sig)
	return &v, nil
}

func (s *signatureService) GetContractSignatureStatus(ctx context.Context, contractID string) (*StatusSummary, error) {
	if contractID == "" {
		return nil, ErrIDRequired
	}
	counts, err := s.repo.CountByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return &StatusSummary{
		Total:      counts.Total,
		Verified:   counts.Verified,
		Pending:    counts.Pending,
		Failed:     counts.Failed,
		IsComplete: counts.Total > 0 && counts.Pending == 0,
	}, nil
}
