package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	"github.com/Cardassist-core-poc/server/internal/store"
)

// RepaymentHandler serves payment history, payment methods and payments.
type RepaymentHandler struct {
	d Deps
}

func NewRepaymentHandler(d Deps) *RepaymentHandler {
	return &RepaymentHandler{d: d}
}

func (h *RepaymentHandler) Category() model.Category {
	return model.CategoryRepayment
}

func (h *RepaymentHandler) AnswerInformation(ctx context.Context, q model.Query) (*model.InformationResponse, error) {
	text := strings.ToLower(q.Text)

	switch {
	case containsAny(text, "history", "past"):
		repayments, err := h.d.Store.Repayments.RecentByUser(ctx, q.UserID, 10)
		if err != nil {
			return nil, err
		}
		if len(repayments) == 0 {
			return nil, errx.NotFound(nil, "no repayment history found")
		}
		items := make([]map[string]any, 0, len(repayments))
		for _, r := range repayments {
			items = append(items, map[string]any{
				"repayment_id":   r.RepaymentID,
				"amount":         r.Amount,
				"payment_method": r.PaymentMethod,
				"status":         r.Status,
				"payment_date":   r.PaymentDate,
			})
		}
		return &model.InformationResponse{
			Answer: fmt.Sprintf("You have %d repayment(s) in your recent history.", len(repayments)),
			Data:   map[string]any{"repayments": items},
		}, nil

	case containsAny(text, "method", "how"):
		return &model.InformationResponse{
			Answer: "You can make repayments using bank transfer, UPI, debit card or net banking.",
			Data: map[string]any{
				"methods": []string{"bank_transfer", "upi", "debit_card", "net_banking"},
			},
		}, nil

	default:
		bill, err := h.d.Store.Bills.LatestByUser(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Your current bill amount is ₹%.2f. Minimum due: ₹%.2f. Due date: %s.",
				bill.TotalAmount, bill.MinimumDue, bill.DueDate.Format("January 2, 2006")),
			Data: map[string]any{
				"total_amount": bill.TotalAmount,
				"minimum_due":  bill.MinimumDue,
				"due_date":     bill.DueDate,
			},
		}, nil
	}
}

func (h *RepaymentHandler) ProposeAction(ctx context.Context, q model.Query) (*model.ActionProposal, error) {
	text := strings.ToLower(q.Text)

	switch {
	case strings.Contains(text, "schedule"):
		params := map[string]any{}
		if amount, ok := parseAmount(q.Text); ok {
			params["amount"] = amount
		}
		return newProposal(h.d, q, h.Category(), "schedule_payment",
			"Do you want to schedule a payment?", params), nil

	case containsAny(text, "pay", "payment", "repay"):
		bill, err := h.d.Store.Bills.LatestByUser(ctx, q.UserID)
		if err != nil {
			return nil, err
		}

		amount, ok := parseAmount(q.Text)
		if !ok {
			amount = bill.MinimumDue
			if containsAny(text, "full", "total") {
				amount = bill.TotalAmount
			}
		}

		return newProposal(h.d, q, h.Category(), "make_payment",
			fmt.Sprintf("Do you want to proceed with a payment of ₹%.2f?", amount),
			map[string]any{
				"amount":  amount,
				"bill_id": bill.BillID,
			}), nil
	}

	return nil, errx.UnsupportedAction(
		"I can make a payment now or schedule one for later. What would you like to do?")
}

func (h *RepaymentHandler) ExecuteAction(ctx context.Context, p *model.ActionProposal) (*model.ExecutionResult, error) {
	amount := paramFloat(p.ActionParams, "amount", 0)
	billID, _ := p.ActionParams["bill_id"].(string)

	var mutate func(context.Context) error
	var notifyMsg string

	switch p.ActionName {
	case "make_payment":
		mutate = func(ctx context.Context) error {
			repayment := &store.Repayment{
				UserID:        p.UserID,
				RepaymentID:   "RPM-" + uuid.NewString()[:8],
				Amount:        amount,
				PaymentMethod: "bank_transfer",
				Status:        "completed",
				PaymentDate:   time.Now().UTC(),
			}
			if billID != "" {
				repayment.BillID = &billID
			}
			if err := h.d.Store.Repayments.Insert(ctx, repayment); err != nil {
				return err
			}
			if billID != "" {
				if err := h.d.Store.Bills.RecordPayment(ctx, p.UserID, billID, amount); err != nil {
					return err
				}
			}
			return h.d.Store.Users.CreditAvailableCredit(ctx, p.UserID, amount)
		}
		notifyMsg = fmt.Sprintf("Your payment of ₹%.2f was received. Thank you.", amount)

	case "schedule_payment":
		mutate = func(ctx context.Context) error {
			repayment := &store.Repayment{
				UserID:        p.UserID,
				RepaymentID:   "RPM-" + uuid.NewString()[:8],
				Amount:        amount,
				PaymentMethod: "bank_transfer",
				Status:        "pending",
				PaymentDate:   time.Now().UTC(),
			}
			return h.d.Store.Repayments.Insert(ctx, repayment)
		}
		notifyMsg = "Your payment has been scheduled."

	default:
		return nil, errx.InvalidState(fmt.Sprintf("unknown repayment action %q", p.ActionName))
	}

	return execute(ctx, h.d, p, mutate, notifyMsg)
}

var _ Handler = (*RepaymentHandler)(nil)
