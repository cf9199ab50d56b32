package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

const defaultEMITenureMonths = 6

// TransactionHandler serves transaction history, EMI lookups, disputes and
// EMI conversions.
type TransactionHandler struct {
	d Deps
}

func NewTransactionHandler(d Deps) *TransactionHandler {
	return &TransactionHandler{d: d}
}

func (h *TransactionHandler) Category() model.Category {
	return model.CategoryTransaction
}

func (h *TransactionHandler) AnswerInformation(ctx context.Context, q model.Query) (*model.InformationResponse, error) {
	text := strings.ToLower(q.Text)

	if strings.Contains(text, "emi") {
		emis, err := h.d.Store.Transactions.EMIByUser(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		if len(emis) == 0 {
			return &model.InformationResponse{
				Answer: "You don't have any active EMI transactions.",
				Data:   map[string]any{"emis": []any{}},
			}, nil
		}
		total := 0.0
		items := make([]map[string]any, 0, len(emis))
		for _, t := range emis {
			item := map[string]any{
				"transaction_id": t.TransactionID,
				"merchant":       t.Merchant,
				"total_amount":   t.Amount,
			}
			if t.EMIAmount != nil {
				total += *t.EMIAmount
				item["emi_amount"] = *t.EMIAmount
			}
			if t.EMITenure != nil {
				item["emi_tenure"] = *t.EMITenure
			}
			items = append(items, item)
		}
		return &model.InformationResponse{
			Answer: fmt.Sprintf("You have %d active EMI(s). Total monthly EMI amount: ₹%.2f.", len(emis), total),
			Data:   map[string]any{"emis": items},
		}, nil
	}

	limit := uint64(5)
	if strings.Contains(text, "10") {
		limit = 10
	}
	txns, err := h.d.Store.Transactions.RecentByUser(ctx, q.UserID, limit)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, errx.NotFound(nil, "no transactions found for your account")
	}

	total := 0.0
	items := make([]map[string]any, 0, len(txns))
	for _, t := range txns {
		total += t.Amount
		items = append(items, map[string]any{
			"transaction_id": t.TransactionID,
			"merchant":       t.Merchant,
			"amount":         t.Amount,
			"category":       t.Category,
			"date":           t.Date,
			"status":         t.Status,
		})
	}
	return &model.InformationResponse{
		Answer: fmt.Sprintf("Here are your %d recent transactions totalling ₹%.2f.", len(txns), total),
		Data:   map[string]any{"transactions": items},
	}, nil
}

func (h *TransactionHandler) ProposeAction(ctx context.Context, q model.Query) (*model.ActionProposal, error) {
	text := strings.ToLower(q.Text)

	switch {
	case containsAny(text, "dispute", "chargeback"):
		txnID, ok := parseTransactionID(q.Text)
		if !ok {
			return nil, errx.UnsupportedAction(
				"I can file a dispute for you. Please include the transaction id (e.g. TXN12345).")
		}
		// Verify the transaction belongs to this user before proposing.
		if _, err := h.d.Store.Transactions.GetByTransactionID(ctx, q.UserID, txnID); err != nil {
			return nil, err
		}
		return newProposal(h.d, q, h.Category(), "dispute_transaction",
			fmt.Sprintf("Do you want to file a dispute for transaction %s?", txnID),
			map[string]any{"transaction_id": txnID}), nil

	case strings.Contains(text, "convert") && strings.Contains(text, "emi"):
		txnID, ok := parseTransactionID(q.Text)
		if !ok {
			return nil, errx.UnsupportedAction(
				"I can convert a transaction to EMI. Please include the transaction id (e.g. TXN12345).")
		}
		txn, err := h.d.Store.Transactions.GetByTransactionID(ctx, q.UserID, txnID)
		if err != nil {
			return nil, err
		}
		tenure := parseTenure(q.Text, defaultEMITenureMonths)
		emiAmount := txn.Amount / float64(tenure)
		return newProposal(h.d, q, h.Category(), "convert_to_emi",
			fmt.Sprintf("Convert transaction %s (₹%.2f) to a %d-month EMI of ₹%.2f per month?",
				txnID, txn.Amount, tenure, emiAmount),
			map[string]any{
				"transaction_id": txnID,
				"tenure_months":  tenure,
				"emi_amount":     emiAmount,
			}), nil
	}

	return nil, errx.UnsupportedAction(
		"I can dispute a transaction or convert one to EMI. What would you like to do?")
}

func (h *TransactionHandler) ExecuteAction(ctx context.Context, p *model.ActionProposal) (*model.ExecutionResult, error) {
	txnID, _ := p.ActionParams["transaction_id"].(string)

	var mutate func(context.Context) error
	var notifyMsg string

	switch p.ActionName {
	case "dispute_transaction":
		mutate = func(ctx context.Context) error {
			return h.d.Store.Transactions.MarkDisputed(ctx, p.UserID, txnID)
		}
		notifyMsg = fmt.Sprintf("Your dispute for transaction %s has been filed.", txnID)
	case "convert_to_emi":
		tenure := paramInt(p.ActionParams, "tenure_months", defaultEMITenureMonths)
		emiAmount := paramFloat(p.ActionParams, "emi_amount", 0)
		mutate = func(ctx context.Context) error {
			return h.d.Store.Transactions.ConvertToEMI(ctx, p.UserID, txnID, tenure, emiAmount)
		}
		notifyMsg = fmt.Sprintf("Transaction %s was converted to a %d-month EMI.", txnID, tenure)
	default:
		return nil, errx.InvalidState(fmt.Sprintf("unknown transaction action %q", p.ActionName))
	}

	return execute(ctx, h.d, p, mutate, notifyMsg)
}

// paramInt reads an int out of action params tolerating JSON float64 decoding.
func paramInt(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func paramFloat(params map[string]any, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

var _ Handler = (*TransactionHandler)(nil)
