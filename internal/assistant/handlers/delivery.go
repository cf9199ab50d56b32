package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

var deliveryStatusMessages = map[string]string{
	"processing": "Your card is being processed and will be shipped soon.",
	"shipped":    "Your card has been shipped.",
	"in_transit": "Your card is in transit to your address.",
	"delivered":  "Your card has been delivered.",
}

// DeliveryHandler serves card delivery tracking and address changes.
type DeliveryHandler struct {
	d Deps
}

func NewDeliveryHandler(d Deps) *DeliveryHandler {
	return &DeliveryHandler{d: d}
}

func (h *DeliveryHandler) Category() model.Category {
	return model.CategoryDelivery
}

func (h *DeliveryHandler) AnswerInformation(ctx context.Context, q model.Query) (*model.InformationResponse, error) {
	delivery, err := h.d.Store.Deliveries.LatestByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	message, ok := deliveryStatusMessages[delivery.Status]
	if !ok {
		message = fmt.Sprintf("Delivery status: %s.", delivery.Status)
	}

	data := map[string]any{
		"tracking_number": delivery.TrackingNumber,
		"status":          delivery.Status,
		"address":         delivery.Address,
	}
	if delivery.EstimatedDelivery != nil {
		data["estimated_delivery"] = delivery.EstimatedDelivery
	}
	if delivery.ActualDelivery != nil {
		data["actual_delivery"] = delivery.ActualDelivery
	}

	return &model.InformationResponse{
		Answer: fmt.Sprintf("%s Tracking number: %s. Delivery address: %s.",
			message, delivery.TrackingNumber, delivery.Address),
		Data: data,
	}, nil
}

func (h *DeliveryHandler) ProposeAction(ctx context.Context, q model.Query) (*model.ActionProposal, error) {
	text := strings.ToLower(q.Text)

	switch {
	case containsAny(text, "update", "change") && strings.Contains(text, "address"):
		address, ok := parseAddress(q.Text)
		if !ok {
			return nil, errx.InvalidInput(
				"Please include the new address, e.g. \"change my delivery address to 42 Park Street\".")
		}
		return newProposal(h.d, q, h.Category(), "update_delivery_address",
			fmt.Sprintf("Do you want to update your delivery address to %q? This may delay your delivery.", address),
			map[string]any{"address": address}), nil

	case strings.Contains(text, "reschedule"):
		return newProposal(h.d, q, h.Category(), "reschedule_delivery",
			"Do you want to reschedule your card delivery?", nil), nil
	}

	return nil, errx.UnsupportedAction(
		"I can update your delivery address or reschedule your card delivery. What would you like to do?")
}

func (h *DeliveryHandler) ExecuteAction(ctx context.Context, p *model.ActionProposal) (*model.ExecutionResult, error) {
	var mutate func(context.Context) error
	var notifyMsg string

	switch p.ActionName {
	case "update_delivery_address":
		address, ok := p.ActionParams["address"].(string)
		if !ok || address == "" {
			return nil, errx.InvalidState("delivery address missing from proposal")
		}
		mutate = func(ctx context.Context) error {
			return h.d.Store.Deliveries.UpdateAddress(ctx, p.UserID, address)
		}
		notifyMsg = "Your card delivery address was updated."
	case "reschedule_delivery":
		notifyMsg = "Your card delivery has been rescheduled. We'll share the new date shortly."
	default:
		return nil, errx.InvalidState(fmt.Sprintf("unknown delivery action %q", p.ActionName))
	}

	return execute(ctx, h.d, p, mutate, notifyMsg)
}

var _ Handler = (*DeliveryHandler)(nil)
