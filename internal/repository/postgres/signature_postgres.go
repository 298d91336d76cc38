package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"docsign/internal/model"
	"docsign/internal/repository"
)

// SignaturePostgres is a PostgreSQL implementation of repository.SignatureRepository.
type SignaturePostgres struct {
	db *sql.DB
}

// NewSignaturePostgres creates a new SignaturePostgres repository.
func NewSignaturePostgres(db *sql.DB) *SignaturePostgres {
	return &SignaturePostgres{db: db}
}

var _ repository.SignatureRepository = (*SignaturePostgres)(nil)

const signatureColumns = `id, contract_id, signer_email, signer_name, status,
	cert_issuer, cert_subject, cert_serial_number, cert_valid_from, cert_valid_to,
	cert_algorithm, cert_key_usage, signature_value, signed_at, ocsp_response,
	timestamp_token, verification_result, created_at`

func scanSignature(row interface{ Scan(...any) error }) (*model.QualifiedSignature, error) {
	var (
		s           model.QualifiedSignature
		keyUsage    []byte
		verdictJSON []byte
	)
	if err := row.Scan(
		&s.ID,
		&s.ContractID,
		&s.SignerEmail,
		&s.SignerName,
		&s.Status,
		&s.Certificate.Issuer,
		&s.Certificate.Subject,
		&s.Certificate.SerialNumber,
		&s.Certificate.ValidFrom,
		&s.Certificate.ValidTo,
		&s.Certificate.Algorithm,
		&keyUsage,
		&s.SignatureValue,
		&s.SignedAt,
		&s.OCSPResponse,
		&s.TimestampToken,
		&verdictJSON,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(keyUsage) > 0 {
		if err := json.Unmarshal(keyUsage, &s.Certificate.KeyUsage); err != nil {
			return nil, fmt.Errorf("decode key usage: %w", err)
		}
	}
	if len(verdictJSON) > 0 {
		var v model.VerificationVerdict
		if err := json.Unmarshal(verdictJSON, &v); err != nil {
			return nil, fmt.Errorf("decode verification result: %w", err)
		}
		s.VerificationResult = &v
	}
	return &s, nil
}

// Create inserts a new signature row and returns the stored record.
func (r *SignaturePostgres) Create(ctx context.Context, sig *model.QualifiedSignature) (*model.QualifiedSignature, error) {
	keyUsage, err := json.Marshal(sig.Certificate.KeyUsage)
	if err != nil {
		return nil, fmt.Errorf("encode key usage: %w", err)
	}
	const q = `
		INSERT INTO signatures (id, contract_id, signer_email, signer_name, status,
			cert_issuer, cert_subject, cert_serial_number, cert_valid_from, cert_valid_to,
			cert_algorithm, cert_key_usage, signature_value, signed_at, ocsp_response,
			timestamp_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + signatureColumns
	row := r.db.QueryRowContext(ctx, q,
		sig.ID,
		sig.ContractID,
		sig.SignerEmail,
		sig.SignerName,
		sig.Status,
		sig.Certificate.Issuer,
		sig.Certificate.Subject,
		sig.Certificate.SerialNumber,
		sig.Certificate.ValidFrom,
		sig.Certificate.ValidTo,
		sig.Certificate.Algorithm,
		keyUsage,
		sig.SignatureValue,
		sig.SignedAt,
		sig.OCSPResponse,
		sig.TimestampToken,
		sig.CreatedAt,
	)
	return scanSignature(row)
}

// FindByID fetches a single signature by its ID.
func (r *SignaturePostgres) FindByID(ctx context.Context, id string) (*model.QualifiedSignature, error) {
	const q = `
		SELECT ` + signatureColumns + `
		FROM signatures
		WHERE id = $1
	`
	return scanSignature(r.db.QueryRowContext(ctx, q, id))
}

// ListUnverifiedByContract returns a contract's signatures that still need
// verification, oldest first.
func (r *SignaturePostgres) ListUnverifiedByContract(ctx context.Context, contractID string) ([]model.QualifiedSignature, error) {
	const q = `
		SELECT ` + signatureColumns + `
		FROM signatures
		WHERE contract_id = $1 AND status <> 'verified'
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.QualifiedSignature, 0)
	for rows.Next() {
		s, err := scanSignature(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateVerification writes status and verdict in a single statement so the
// record never carries a verdict that disagrees with its status.
func (r *SignaturePostgres) UpdateVerification(ctx context.Context, id string, status model.SignatureStatus, verdict *model.VerificationVerdict) error {
	verdictJSON, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("encode verification result: %w", err)
	}
	const q = `UPDATE signatures SET status = $2, verification_result = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status, verdictJSON)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByContract aggregates signature states for one contract.
func (r *SignaturePostgres) CountByContract(ctx context.Context, contractID string) (*repository.SignatureCounts, error) {
	const q = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'verified'),
			COUNT(*) FILTER (WHERE status IN ('pending', 'signature_in_progress', 'signed', 'verification_pending')),
			COUNT(*) FILTER (WHERE status = 'verification_failed')
		FROM signatures
		WHERE contract_id = $1
	`
	var c repository.SignatureCounts
	if err := r.db.QueryRowContext(ctx, q, contractID).Scan(&c.Total, &c.Verified, &c.Pending, &c.Failed); err != nil {
		return nil, err
	}
	return &c, nil
}
