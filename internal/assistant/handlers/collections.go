package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

// CollectionsHandler serves overdue accounts: outstanding amounts, payment
// plans, and settlements.
type CollectionsHandler struct {
	d Deps
}

func NewCollectionsHandler(d Deps) *CollectionsHandler {
	return &CollectionsHandler{d: d}
}

func (h *CollectionsHandler) Category() model.Category {
	return model.CategoryCollections
}

func (h *CollectionsHandler) AnswerInformation(ctx context.Context, q model.Query) (*model.InformationResponse, error) {
	text := strings.ToLower(q.Text)

	switch {
	case containsAny(text, "overdue", "outstanding"):
		bill, err := h.d.Store.Bills.LatestOverdueByUser(ctx, q.UserID)
		if err != nil {
			if errx.IsKind(err, errx.KindNotFound) {
				return &model.InformationResponse{
					Answer: "You don't have any overdue amounts.",
				}, nil
			}
			return nil, err
		}
		overdue := bill.TotalAmount - bill.PaidAmount
		daysOverdue := int(time.Since(bill.DueDate).Hours() / 24)
		return &model.InformationResponse{
			Answer: fmt.Sprintf("You have an overdue amount of ₹%.2f, %d days past due. Please make a payment to avoid further charges.",
				overdue, daysOverdue),
			Data: map[string]any{
				"overdue_amount": overdue,
				"days_overdue":   daysOverdue,
				"bill_id":        bill.BillID,
				"due_date":       bill.DueDate,
			},
		}, nil

	case containsAny(text, "plan", "settlement"):
		collection, err := h.d.Store.Collections.GetByUser(ctx, q.UserID)
		if err != nil {
			if errx.IsKind(err, errx.KindNotFound) {
				return &model.InformationResponse{
					Answer: "Your account is not in collections. No payment plan is needed.",
				}, nil
			}
			return nil, err
		}
		if collection.PaymentPlanOffered {
			return &model.InformationResponse{
				Answer: "A payment plan has been offered for your account. Contact support for the details.",
				Data: map[string]any{
					"payment_plan_offered": true,
					"status":               collection.Status,
				},
			}, nil
		}
		return &model.InformationResponse{
			Answer: "You can request a payment plan to spread your overdue amount over several months.",
			Data: map[string]any{
				"payment_plan_offered": false,
				"status":               collection.Status,
			},
		}, nil

	default:
		collection, err := h.d.Store.Collections.GetByUser(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Your collections status is %s with ₹%.2f overdue for %d days.",
				collection.Status, collection.OverdueAmount, collection.DaysOverdue),
			Data: map[string]any{
				"status":         collection.Status,
				"overdue_amount": collection.OverdueAmount,
				"days_overdue":   collection.DaysOverdue,
			},
		}, nil
	}
}

func (h *CollectionsHandler) ProposeAction(ctx context.Context, q model.Query) (*model.ActionProposal, error) {
	text := strings.ToLower(q.Text)

	switch {
	case strings.Contains(text, "plan"):
		return newProposal(h.d, q, h.Category(), "request_payment_plan",
			"Do you want to request a payment plan for your overdue amount?", nil), nil

	case containsAny(text, "settle", "pay"):
		bill, err := h.d.Store.Bills.LatestOverdueByUser(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		overdue := bill.TotalAmount - bill.PaidAmount
		return newProposal(h.d, q, h.Category(), "settle_overdue",
			fmt.Sprintf("Do you want to settle your overdue amount of ₹%.2f now?", overdue),
			map[string]any{
				"amount":  overdue,
				"bill_id": bill.BillID,
			}), nil
	}

	return nil, errx.UnsupportedAction(
		"I can request a payment plan or settle your overdue amount. What would you like to do?")
}

func (h *CollectionsHandler) ExecuteAction(ctx context.Context, p *model.ActionProposal) (*model.ExecutionResult, error) {
	var mutate func(context.Context) error
	var notifyMsg string

	switch p.ActionName {
	case "request_payment_plan":
		mutate = func(ctx context.Context) error {
			return h.d.Store.Collections.OfferPaymentPlan(ctx, p.UserID)
		}
		notifyMsg = "Your payment plan request was submitted. Our team will contact you."

	case "settle_overdue":
		amount := paramFloat(p.ActionParams, "amount", 0)
		billID, _ := p.ActionParams["bill_id"].(string)
		mutate = func(ctx context.Context) error {
			if billID != "" {
				if err := h.d.Store.Bills.RecordPayment(ctx, p.UserID, billID, amount); err != nil {
					return err
				}
			}
			return h.d.Store.Collections.Settle(ctx, p.UserID)
		}
		notifyMsg = fmt.Sprintf("Your settlement payment of ₹%.2f was received.", amount)

	default:
		return nil, errx.InvalidState(fmt.Sprintf("unknown collections action %q", p.ActionName))
	}

	return execute(ctx, h.d, p, mutate, notifyMsg)
}

var _ Handler = (*CollectionsHandler)(nil)
