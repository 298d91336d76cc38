package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"docsign/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signatureTestColumns = []string{
	"id", "contract_id", "signer_email", "signer_name", "status",
	"cert_issuer", "cert_subject", "cert_serial_number", "cert_valid_from", "cert_valid_to",
	"cert_algorithm", "cert_key_usage", "signature_value", "signed_at", "ocsp_response",
	"timestamp_token", "verification_result", "created_at",
}

func signatureRow(id, status string, verdict []byte) *sqlmock.Rows {
	now := time.Now().UTC()
	keyUsage, _ := json.Marshal([]string{"digitalSignature", "nonRepudiation"})
	return sqlmock.NewRows(signatureTestColumns).
		AddRow(id, "contract-1", "signer@example.com", "Jane Signer", status,
			"CN=Qualified CA", "CN=Jane Signer", "1A2B3C", now.Add(-time.Hour), now.Add(time.Hour),
			"SHA256withRSA", keyUsage, []byte{0x01}, now, nil,
			nil, verdict, now)
}

func TestSignaturePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSignaturePostgres(db)
	ctx := context.Background()

	t.Run("found without verdict", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM signatures WHERE id = ?").
			WithArgs("sig-1").
			WillReturnRows(signatureRow("sig-1", "signed", nil))

		sig, err := repo.FindByID(ctx, "sig-1")

		require.NoError(t, err)
		assert.Equal(t, "sig-1", sig.ID)
		assert.Equal(t, model.SignatureStatusSigned, sig.Status)
		assert.Equal(t, []string{"digitalSignature", "nonRepudiation"}, sig.Certificate.KeyUsage)
		assert.Nil(t, sig.VerificationResult)
	})

	t.Run("found with verdict", func(t *testing.T) {
		verdict, _ := json.Marshal(model.VerificationVerdict{IsValid: true, OCSPStatus: model.OCSPStatusGood})
		mock.ExpectQuery("SELECT (.+) FROM signatures WHERE id = ?").
			WithArgs("sig-2").
			WillReturnRows(signatureRow("sig-2", "verified", verdict))

		sig, err := repo.FindByID(ctx, "sig-2")

		require.NoError(t, err)
		require.NotNil(t, sig.VerificationResult)
		assert.True(t, sig.VerificationResult.IsValid)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM signatures WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		sig, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, sig)
	})
}

func TestSignaturePostgres_ListUnverifiedByContract(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSignaturePostgres(db)

	rows := signatureRow("sig-1", "signed", nil)
	mock.ExpectQuery("SELECT (.+) FROM signatures").
		WithArgs("contract-1").
		WillReturnRows(rows)

	items, err := repo.ListUnverifiedByContract(context.Background(), "contract-1")

	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignaturePostgres_UpdateVerification(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSignaturePostgres(db)
	verdict := &model.VerificationVerdict{IsValid: true, OCSPStatus: model.OCSPStatusGood}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE signatures SET status").
			WithArgs("sig-1", model.SignatureStatusVerified, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateVerification(context.Background(), "sig-1", model.SignatureStatusVerified, verdict))
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE signatures SET status").
			WithArgs("missing", model.SignatureStatusVerified, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t,
			repo.UpdateVerification(context.Background(), "missing", model.SignatureStatusVerified, verdict),
			sql.ErrNoRows)
	})
}

func TestSignaturePostgres_CountByContract(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSignaturePostgres(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("contract-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "verified", "pending", "failed"}).
			AddRow(3, 1, 1, 1))

	counts, err := repo.CountByContract(context.Background(), "contract-1")

	require.NoError(t, err)
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 1, counts.Verified)
	assert.Equal(t, 1, counts.Pending)
	assert.Equal(t, 1, counts.Failed)
}
