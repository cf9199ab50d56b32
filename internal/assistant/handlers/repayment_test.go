package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cardassist-core-poc/server/internal/action"
	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

var billCols = []string{
	"id", "user_id", "bill_id", "bill_date", "due_date", "total_amount",
	"minimum_due", "paid_amount", "status", "statement_pdf_url", "created_at",
}

func expectLatestBill(mock pgxmock.PgxPoolIface, userID string, total, minimum float64) {
	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM bills").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(billCols).AddRow(
			int64(1), userID, "BILL001", now.AddDate(0, 0, -20), now.AddDate(0, 0, 10),
			total, minimum, 0.0, "pending", (*string)(nil), now,
		))
}

func TestRepaymentProposeUsesAmountFromText(t *testing.T) {
	invoker := &fakeInvoker{}
	deps, mock, _ := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	expectLatestBill(mock, "USER001", 15000, 1500)

	p, err := h.ProposeAction(context.Background(), model.Query{
		Text:   "Make a payment of 5000",
		UserID: "USER001",
	})
	require.NoError(t, err)

	assert.Equal(t, "make_payment", p.ActionName)
	assert.Equal(t, model.ProposalPending, p.Status)
	assert.Equal(t, 5000.0, p.ActionParams["amount"])
	assert.Equal(t, "BILL001", p.ActionParams["bill_id"])
	assert.Contains(t, p.Summary, "5000.00")
	assert.Equal(t, p.CreatedAt.Add(deps.ProposalTTL), p.ExpiresAt)

	assert.Zero(t, invoker.callCount(), "proposing must not call downstream")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepaymentProposeDefaultsToMinimumDue(t *testing.T) {
	invoker := &fakeInvoker{}
	deps, mock, _ := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	expectLatestBill(mock, "USER001", 15000, 1500)

	p, err := h.ProposeAction(context.Background(), model.Query{
		Text:   "pay my bill",
		UserID: "USER001",
	})
	require.NoError(t, err)
	assert.Equal(t, 1500.0, p.ActionParams["amount"])
}

func TestRepaymentProposeFullAmount(t *testing.T) {
	invoker := &fakeInvoker{}
	deps, mock, _ := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	expectLatestBill(mock, "USER001", 15000, 1500)

	p, err := h.ProposeAction(context.Background(), model.Query{
		Text:   "pay my bill in full",
		UserID: "USER001",
	})
	require.NoError(t, err)
	assert.Equal(t, 15000.0, p.ActionParams["amount"])
}

func TestRepaymentProposeUnrecognisedAction(t *testing.T) {
	invoker := &fakeInvoker{}
	deps, _, _ := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	_, err := h.ProposeAction(context.Background(), model.Query{
		Text:   "transfer money abroad",
		UserID: "USER001",
	})
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindUnsupportedAction))
}

func approvedPayment(amount float64) *model.ActionProposal {
	now := time.Now().UTC()
	billID := "BILL001"
	return &model.ActionProposal{
		ProposalID: "prop-1",
		UserID:     "USER001",
		Category:   model.CategoryRepayment,
		ActionName: "make_payment",
		ActionParams: map[string]any{
			"amount":  amount,
			"bill_id": billID,
		},
		Summary:   "Do you want to proceed with a payment?",
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
		Status:    model.ProposalApproved,
	}
}

func TestRepaymentExecuteSuccess(t *testing.T) {
	invoker := &fakeInvoker{result: &action.Result{Success: true, ReferenceID: "REF-42"}}
	deps, mock, notifier := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	// user_id, repayment_id, amount, payment_method, status, payment_date, bill_id
	mock.ExpectExec("INSERT INTO repayments").
		WithArgs("USER001", pgxmock.AnyArg(), 5000.0, "bank_transfer", "completed", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE bills").
		WithArgs(5000.0, 5000.0, "BILL001", "USER001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE users").
		WithArgs(5000.0, "USER001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	res, err := h.ExecuteAction(context.Background(), approvedPayment(5000))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.OutcomeUnknown)
	assert.Equal(t, "REF-42", res.DownstreamReference)

	require.Equal(t, 1, invoker.callCount())
	assert.Equal(t, "USER001", invoker.calls[0].params["user_id"])
	assert.Equal(t, 5000.0, invoker.calls[0].params["amount"])

	assert.Contains(t, notifier.await(t), "5000.00")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepaymentExecuteDownstreamRefusalSkipsMutation(t *testing.T) {
	invoker := &fakeInvoker{result: &action.Result{Success: false, Error: "insufficient funds"}}
	deps, mock, _ := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	res, err := h.ExecuteAction(context.Background(), approvedPayment(5000))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.False(t, res.OutcomeUnknown)
	assert.Equal(t, "insufficient funds", res.ErrorDetail)
	require.NoError(t, mock.ExpectationsWereMet(), "no store writes on downstream refusal")
}

func TestRepaymentExecuteTimeoutIsUnknownOutcome(t *testing.T) {
	invoker := &fakeInvoker{err: errx.Downstream(errors.New("deadline exceeded"), "downstream action timed out, outcome unknown", true)}
	deps, mock, _ := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	res, err := h.ExecuteAction(context.Background(), approvedPayment(5000))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.OutcomeUnknown)
	require.NoError(t, mock.ExpectationsWereMet(), "no store writes on unknown outcome")
}

func TestRepaymentExecuteRejectsUnapprovedProposal(t *testing.T) {
	invoker := &fakeInvoker{result: &action.Result{Success: true}}
	deps, _, _ := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	p := approvedPayment(5000)
	p.Status = model.ProposalPending

	_, err := h.ExecuteAction(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
	assert.Zero(t, invoker.callCount())
}

func TestRepaymentExecuteMutationFailureKeepsSuccess(t *testing.T) {
	invoker := &fakeInvoker{result: &action.Result{Success: true, ReferenceID: "REF-7"}}
	deps, mock, _ := newTestDeps(t, invoker)
	h := NewRepaymentHandler(deps)

	mock.ExpectExec("INSERT INTO repayments").
		WithArgs("USER001", pgxmock.AnyArg(), 5000.0, "bank_transfer", "completed", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	res, err := h.ExecuteAction(context.Background(), approvedPayment(5000))
	require.NoError(t, err)

	// downstream already committed, so the outcome stays successful
	assert.True(t, res.Success)
	assert.Contains(t, res.ErrorDetail, "reconciliation")
}
