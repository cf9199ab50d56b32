package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

// AccountHandler serves account and onboarding queries: profile details,
// credit limits, card status, and card lifecycle actions.
type AccountHandler struct {
	d Deps
}

func NewAccountHandler(d Deps) *AccountHandler {
	return &AccountHandler{d: d}
}

func (h *AccountHandler) Category() model.Category {
	return model.CategoryAccount
}

func (h *AccountHandler) AnswerInformation(ctx context.Context, q model.Query) (*model.InformationResponse, error) {
	user, err := h.d.Store.Users.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	text := strings.ToLower(q.Text)
	switch {
	case containsAny(text, "balance", "available", "limit"):
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Your available credit is ₹%.2f out of a ₹%.2f credit limit.",
				user.AvailableCredit, user.CreditLimit),
			Data: map[string]any{
				"available_credit": user.AvailableCredit,
				"credit_limit":     user.CreditLimit,
			},
		}, nil
	case containsAny(text, "status", "active", "blocked"):
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Your card status is %s. Card number: %s.", user.CardStatus, user.CardNumber),
			Data: map[string]any{
				"card_status": user.CardStatus,
				"card_number": user.CardNumber,
			},
		}, nil
	case containsAny(text, "profile", "details", "email", "phone"):
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Name: %s, Email: %s, Phone: %s, Card: %s.",
				user.Name, user.Email, user.Phone, user.CardNumber),
			Data: map[string]any{
				"name":        user.Name,
				"email":       user.Email,
				"phone":       user.Phone,
				"card_number": user.CardNumber,
			},
		}, nil
	default:
		return &model.InformationResponse{
			Answer: fmt.Sprintf("Your account is active. Available credit: ₹%.2f.", user.AvailableCredit),
			Data: map[string]any{
				"user_id":     user.UserID,
				"card_status": user.CardStatus,
			},
		}, nil
	}
}

func (h *AccountHandler) ProposeAction(ctx context.Context, q model.Query) (*model.ActionProposal, error) {
	text := strings.ToLower(q.Text)

	switch {
	// unblock before block: "unblock" contains "block".
	case strings.Contains(text, "unblock"):
		return newProposal(h.d, q, h.Category(), "unblock_card",
			"Do you want to unblock your credit card now?", nil), nil

	case strings.Contains(text, "block"):
		return newProposal(h.d, q, h.Category(), "block_card",
			"Are you sure you want to block your credit card? This will prevent all transactions immediately.", nil), nil

	case strings.Contains(text, "activate"):
		return newProposal(h.d, q, h.Category(), "activate_card",
			"Do you want to activate your credit card now?", nil), nil

	case containsAny(text, "update", "change") && strings.Contains(text, "email"):
		params := map[string]any{}
		if email, ok := parseEmail(q.Text); ok {
			params["email"] = email
		}
		return newProposal(h.d, q, h.Category(), "update_email",
			"Do you want to proceed with updating your email address?", params), nil

	case containsAny(text, "update", "change") && strings.Contains(text, "phone"):
		params := map[string]any{}
		if phone, ok := parsePhone(q.Text); ok {
			params["phone"] = phone
		}
		return newProposal(h.d, q, h.Category(), "update_phone",
			"Do you want to proceed with updating your phone number?", params), nil
	}

	return nil, errx.UnsupportedAction(
		"I can block, unblock or activate your card, or update your email or phone. What would you like to do?")
}

func (h *AccountHandler) ExecuteAction(ctx context.Context, p *model.ActionProposal) (*model.ExecutionResult, error) {
	var mutate func(context.Context) error
	var notifyMsg string

	switch p.ActionName {
	case "block_card":
		mutate = func(ctx context.Context) error {
			return h.d.Store.Users.UpdateCardStatus(ctx, p.UserID, "blocked")
		}
		notifyMsg = "Your credit card has been blocked. Contact support if this was not you."
	case "unblock_card":
		mutate = func(ctx context.Context) error {
			return h.d.Store.Users.UpdateCardStatus(ctx, p.UserID, "active")
		}
		notifyMsg = "Your credit card has been unblocked and is ready to use."
	case "activate_card":
		mutate = func(ctx context.Context) error {
			return h.d.Store.Users.UpdateCardStatus(ctx, p.UserID, "active")
		}
		notifyMsg = "Your credit card is now active."
	case "update_email":
		if email, ok := p.ActionParams["email"].(string); ok && email != "" {
			mutate = func(ctx context.Context) error {
				return h.d.Store.Users.UpdateContact(ctx, p.UserID, &email, nil)
			}
		}
		notifyMsg = "Your registered email address was updated."
	case "update_phone":
		if phone, ok := p.ActionParams["phone"].(string); ok && phone != "" {
			mutate = func(ctx context.Context) error {
				return h.d.Store.Users.UpdateContact(ctx, p.UserID, nil, &phone)
			}
		}
		notifyMsg = "Your registered phone number was updated."
	default:
		return nil, errx.InvalidState(fmt.Sprintf("unknown account action %q", p.ActionName))
	}

	return execute(ctx, h.d, p, mutate, notifyMsg)
}

var _ Handler = (*AccountHandler)(nil)
