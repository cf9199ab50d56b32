package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

// BillHandler serves bill and statement queries.
type BillHandler struct {
	d Deps
}

func NewBillHandler(d Deps) *BillHandler {
	return &BillHandler{d: d}
}

func (h *BillHandler) Category() model.Category {
	return model.CategoryBill
}

func (h *BillHandler) AnswerInformation(ctx context.Context, q model.Query) (*model.InformationResponse, error) {
	bill, err := h.d.Store.Bills.LatestByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	text := strings.ToLower(q.Text)
	switch {
	case strings.Contains(text, "due"):
		daysRemaining := int(time.Until(bill.DueDate).Hours() / 24)
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Your bill is due on %s (%d days remaining). Total amount: ₹%.2f.",
				bill.DueDate.Format("January 2, 2006"), daysRemaining, bill.TotalAmount),
			Data: map[string]any{
				"due_date":       bill.DueDate,
				"total_amount":   bill.TotalAmount,
				"minimum_due":    bill.MinimumDue,
				"days_remaining": daysRemaining,
			},
		}, nil
	case containsAny(text, "amount", "total", "outstanding"):
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Your current bill amount is ₹%.2f. Minimum due: ₹%.2f.",
				bill.TotalAmount, bill.MinimumDue),
			Data: map[string]any{
				"total_amount": bill.TotalAmount,
				"minimum_due":  bill.MinimumDue,
				"paid_amount":  bill.PaidAmount,
				"outstanding":  bill.TotalAmount - bill.PaidAmount,
			},
		}, nil
	case containsAny(text, "statement", "download"):
		data := map[string]any{
			"bill_id":   bill.BillID,
			"bill_date": bill.BillDate,
		}
		if bill.StatementPDFURL != nil {
			data["statement_pdf_url"] = *bill.StatementPDFURL
		}
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Your statement for bill %s (₹%.2f) is available for download.",
				bill.BillID, bill.TotalAmount),
			Data: data,
		}, nil
	default:
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Current bill: ₹%.2f, due %s, status %s.",
				bill.TotalAmount, bill.DueDate.Format("January 2, 2006"), bill.Status),
			Data: map[string]any{
				"bill_id":      bill.BillID,
				"total_amount": bill.TotalAmount,
				"due_date":     bill.DueDate,
				"status":       bill.Status,
			},
		}, nil
	}
}

func (h *BillHandler) ProposeAction(ctx context.Context, q model.Query) (*model.ActionProposal, error) {
	text := strings.ToLower(q.Text)

	if containsAny(text, "email", "send") && strings.Contains(text, "statement") {
		bill, err := h.d.Store.Bills.LatestByUser(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		return newProposal(h.d, q, h.Category(), "email_statement",
			"Do you want the statement emailed to your registered email address?",
			map[string]any{"bill_id": bill.BillID}), nil
	}

	return nil, errx.UnsupportedAction(
		"I can email your statement to your registered address. What would you like to do?")
}

func (h *BillHandler) ExecuteAction(ctx context.Context, p *model.ActionProposal) (*model.ExecutionResult, error) {
	switch p.ActionName {
	case "email_statement":
		// Statement dispatch happens downstream; there is no local mutation.
		return execute(ctx, h.d, p, nil,
			"Your statement has been emailed to your registered address.")
	default:
		return nil, errx.InvalidState(fmt.Sprintf("unknown bill action %q", p.ActionName))
	}
}

var _ Handler = (*BillHandler)(nil)
