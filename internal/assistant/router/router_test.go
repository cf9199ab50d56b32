package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cardassist-core-poc/server/internal/assistant/consent"
	"github.com/Cardassist-core-poc/server/internal/assistant/handlers"
	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

type stubClassifier struct {
	cls model.Classification
	err error
}

func (s stubClassifier) Classify(context.Context, string) (model.Classification, error) {
	return s.cls, s.err
}

// stubHandler counts calls and replays canned results for one category.
type stubHandler struct {
	category model.Category

	infoCalls    int
	proposeCalls int
	executeCalls int

	info    *model.InformationResponse
	execute func(p *model.ActionProposal) (*model.ExecutionResult, error)
}

func (s *stubHandler) Category() model.Category { return s.category }

func (s *stubHandler) AnswerInformation(context.Context, model.Query) (*model.InformationResponse, error) {
	s.infoCalls++
	if s.info == nil {
		return &model.InformationResponse{Answer: "ok"}, nil
	}
	return s.info, nil
}

func (s *stubHandler) ProposeAction(_ context.Context, q model.Query) (*model.ActionProposal, error) {
	s.proposeCalls++
	now := time.Now().UTC()
	return &model.ActionProposal{
		ProposalID:   uuid.NewString(),
		UserID:       q.UserID,
		Category:     s.category,
		ActionName:   "make_payment",
		ActionParams: map[string]any{"amount": 5000.0},
		Summary:      "Do you want to proceed with a payment of ₹5000.00?",
		CreatedAt:    now,
		ExpiresAt:    now.Add(10 * time.Minute),
		Status:       model.ProposalPending,
	}, nil
}

func (s *stubHandler) ExecuteAction(_ context.Context, p *model.ActionProposal) (*model.ExecutionResult, error) {
	s.executeCalls++
	if s.execute != nil {
		return s.execute(p)
	}
	return &model.ExecutionResult{ProposalID: p.ProposalID, Success: true, DownstreamReference: "REF-1"}, nil
}

func newTestRouter(t *testing.T, c stubClassifier) (*Router, consent.Ledger, map[model.Category]*stubHandler) {
	t.Helper()
	stubs := make(map[model.Category]*stubHandler)
	var hs []handlers.Handler
	for _, cat := range model.Categories() {
		s := &stubHandler{category: cat}
		stubs[cat] = s
		hs = append(hs, s)
	}
	ledger := consent.NewMemoryLedger()
	r, err := New(c, ledger, hs)
	require.NoError(t, err)
	return r, ledger, stubs
}

func TestHandleQueryInformation(t *testing.T) {
	r, ledger, stubs := newTestRouter(t, stubClassifier{
		cls: model.Classification{Category: model.CategoryAccount, TaskType: model.TaskInformation},
	})

	resp, err := r.HandleQuery(context.Background(), model.Query{Text: "what is my balance", UserID: "USER001"})
	require.NoError(t, err)

	assert.Equal(t, model.KindInformation, resp.Kind)
	assert.Empty(t, resp.ProposalID)
	assert.Equal(t, 1, stubs[model.CategoryAccount].infoCalls)
	assert.Equal(t, 0, stubs[model.CategoryAccount].proposeCalls)

	// nothing was registered
	_, err = ledger.Get(context.Background(), "any")
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestHandleQueryThenApproveExecutes(t *testing.T) {
	r, ledger, stubs := newTestRouter(t, stubClassifier{
		cls: model.Classification{Category: model.CategoryRepayment, TaskType: model.TaskAction},
	})
	ctx := context.Background()

	resp, err := r.HandleQuery(ctx, model.Query{Text: "Make a payment of 5000", UserID: "USER001"})
	require.NoError(t, err)
	assert.Equal(t, model.KindConsentRequired, resp.Kind)
	require.NotEmpty(t, resp.ProposalID)
	assert.Contains(t, resp.Message, "5000")
	assert.Equal(t, 0, stubs[model.CategoryRepayment].executeCalls, "no execution before consent")

	final, err := r.HandleConsent(ctx, resp.ProposalID, consent.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.KindExecuted, final.Kind)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.Success)
	assert.NotEmpty(t, final.Result.DownstreamReference)
	assert.Equal(t, 1, stubs[model.CategoryRepayment].executeCalls)

	p, err := ledger.Get(ctx, resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalExecuted, p.Status)
}

func TestHandleConsentRejectSkipsExecution(t *testing.T) {
	r, ledger, stubs := newTestRouter(t, stubClassifier{
		cls: model.Classification{Category: model.CategoryAccount, TaskType: model.TaskAction},
	})
	ctx := context.Background()

	resp, err := r.HandleQuery(ctx, model.Query{Text: "block my card", UserID: "USER001"})
	require.NoError(t, err)
	require.Equal(t, model.KindConsentRequired, resp.Kind)

	final, err := r.HandleConsent(ctx, resp.ProposalID, consent.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, model.KindRejected, final.Kind)
	assert.Equal(t, 0, stubs[model.CategoryAccount].executeCalls, "rejection must not touch downstream")

	p, err := ledger.Get(ctx, resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalRejected, p.Status)
}

func TestHandleConsentUnknownOutcomeStillRetiresProposal(t *testing.T) {
	r, ledger, stubs := newTestRouter(t, stubClassifier{
		cls: model.Classification{Category: model.CategoryRepayment, TaskType: model.TaskAction},
	})
	ctx := context.Background()

	stubs[model.CategoryRepayment].execute = func(p *model.ActionProposal) (*model.ExecutionResult, error) {
		return &model.ExecutionResult{
			ProposalID:     p.ProposalID,
			Success:        false,
			OutcomeUnknown: true,
			ErrorDetail:    "downstream action timed out; outcome unknown",
		}, nil
	}

	resp, err := r.HandleQuery(ctx, model.Query{Text: "pay my bill", UserID: "USER001"})
	require.NoError(t, err)

	final, err := r.HandleConsent(ctx, resp.ProposalID, consent.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.KindExecuted, final.Kind)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.OutcomeUnknown)
	assert.False(t, final.Result.Success)
	assert.Contains(t, final.Message, "unknown")

	// the attempt is terminal; a retry needs a fresh proposal
	p, err := ledger.Get(ctx, resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalExecuted, p.Status)

	_, err = r.HandleConsent(ctx, resp.ProposalID, consent.DecisionApprove)
	assert.True(t, errx.IsKind(err, errx.KindAlreadyResolved))
}

func TestHandleQueryDuplicateActionCollapses(t *testing.T) {
	r, _, stubs := newTestRouter(t, stubClassifier{
		cls: model.Classification{Category: model.CategoryRepayment, TaskType: model.TaskAction},
	})
	ctx := context.Background()

	first, err := r.HandleQuery(ctx, model.Query{Text: "pay 5000", UserID: "USER001"})
	require.NoError(t, err)
	second, err := r.HandleQuery(ctx, model.Query{Text: "pay 5000", UserID: "USER001"})
	require.NoError(t, err)

	assert.Equal(t, first.ProposalID, second.ProposalID)
	assert.Equal(t, 2, stubs[model.CategoryRepayment].proposeCalls)
}

func TestHandleQueryClassificationFailure(t *testing.T) {
	r, _, stubs := newTestRouter(t, stubClassifier{
		err: errx.Classification(errors.New("still malformed"), "could not classify query"),
	})

	resp, err := r.HandleQuery(context.Background(), model.Query{Text: "asdf qwerty", UserID: "USER001"})
	require.NoError(t, err, "classification failure is a user-facing response, not a server error")
	assert.Equal(t, model.KindError, resp.Kind)
	assert.NotEmpty(t, resp.Message)

	for _, s := range stubs {
		assert.Zero(t, s.infoCalls)
		assert.Zero(t, s.proposeCalls)
	}
}

func TestHandleQueryInvalidInputPropagates(t *testing.T) {
	r, _, _ := newTestRouter(t, stubClassifier{
		err: errx.InvalidInput("query text must not be empty"),
	})

	_, err := r.HandleQuery(context.Background(), model.Query{Text: "", UserID: "USER001"})
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidInput))
}

func TestHandleConsentUnknownProposal(t *testing.T) {
	r, _, _ := newTestRouter(t, stubClassifier{})

	_, err := r.HandleConsent(context.Background(), "no-such-id", consent.DecisionApprove)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestNewRejectsIncompleteHandlerSet(t *testing.T) {
	ledger := consent.NewMemoryLedger()

	_, err := New(stubClassifier{}, ledger, []handlers.Handler{
		&stubHandler{category: model.CategoryAccount},
	})
	require.Error(t, err)
}
