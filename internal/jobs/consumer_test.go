package jobs

import (
	"context"
	"errors"
	"testing"

	"docsign/internal/model"
	"docsign/internal/service"
	svcMocks "docsign/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	calls []string
	err   error
}

func (n *recordingNotifier) JobCompleted(_ context.Context, msg Message, detail string) error {
	n.calls = append(n.calls, msg.Kind+": "+detail)
	return n.err
}

func TestConsumer_Handle_ExtractText(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path notifies", func(t *testing.T) {
		mDocs := new(svcMocks.MockDocumentService)
		mDocs.On("Extract", ctx, "doc-1").
			Return(&model.ExtractionResult{Success: true, Text: "hello", EngineUsed: model.EngineNative}, nil)
		notifier := &recordingNotifier{}

		c := NewConsumer(mDocs, nil, notifier)

		require.NoError(t, c.Handle(ctx, Message{Kind: KindExtractText, DocumentID: "doc-1"}))
		require.Len(t, notifier.calls, 1)
		assert.Contains(t, notifier.calls[0], "native")
		mDocs.AssertExpectations(t)
	})

	t.Run("service error propagates for retry", func(t *testing.T) {
		mDocs := new(svcMocks.MockDocumentService)
		mDocs.On("Extract", ctx, "doc-1").Return(nil, errors.New("extraction failed"))

		c := NewConsumer(mDocs, nil, nil)

		err := c.Handle(ctx, Message{Kind: KindExtractText, DocumentID: "doc-1"})
		assert.ErrorContains(t, err, "extract document doc-1")
	})

	t.Run("missing document id", func(t *testing.T) {
		c := NewConsumer(new(svcMocks.MockDocumentService), nil, nil)

		err := c.Handle(ctx, Message{Kind: KindExtractText})
		assert.ErrorContains(t, err, "document_id")
	})

	t.Run("notifier failure does not fail the job", func(t *testing.T) {
		mDocs := new(svcMocks.MockDocumentService)
		mDocs.On("Extract", ctx, "doc-1").
			Return(&model.ExtractionResult{Success: true, EngineUsed: model.EngineTesseract}, nil)
		notifier := &recordingNotifier{err: errors.New("webhook down")}

		c := NewConsumer(mDocs, nil, notifier)

		assert.NoError(t, c.Handle(ctx, Message{Kind: KindExtractText, DocumentID: "doc-1"}))
	})
}

func TestConsumer_Handle_VerifySignatures(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path notifies with counts", func(t *testing.T) {
		mSigs := new(svcMocks.MockSignatureService)
		mSigs.On("VerifyAllContractSignatures", ctx, "contract-1").
			Return(&service.BatchResult{Verified: 2, Failed: 1}, nil)
		notifier := &recordingNotifier{}

		c := NewConsumer(nil, mSigs, notifier)

		require.NoError(t, c.Handle(ctx, Message{Kind: KindVerifySignatures, ContractID: "contract-1"}))
		require.Len(t, notifier.calls, 1)
		assert.Contains(t, notifier.calls[0], "verified=2 failed=1")
		mSigs.AssertExpectations(t)
	})

	t.Run("missing contract id", func(t *testing.T) {
		c := NewConsumer(nil, new(svcMocks.MockSignatureService), nil)

		err := c.Handle(ctx, Message{Kind: KindVerifySignatures})
		assert.ErrorContains(t, err, "contract_id")
	})

	t.Run("service error propagates", func(t *testing.T) {
		mSigs := new(svcMocks.MockSignatureService)
		mSigs.On("VerifyAllContractSignatures", ctx, mock.Anything).
			Return(nil, errors.New("db fail"))

		c := NewConsumer(nil, mSigs, nil)

		err := c.Handle(ctx, Message{Kind: KindVerifySignatures, ContractID: "contract-1"})
		assert.Error(t, err)
	})
}

func TestConsumer_Handle_UnknownKind(t *testing.T) {
	c := NewConsumer(nil, nil, nil)

	err := c.Handle(context.Background(), Message{Kind: "reindex"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}
