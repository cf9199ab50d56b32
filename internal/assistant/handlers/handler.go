// Package handlers hosts the six category handlers. Every handler conforms to
// the same three-method contract so the router can treat them polymorphically;
// they differ only in which store tables they read, which actions they
// recognise, and which downstream endpoint executes those actions.
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Cardassist-core-poc/server/internal/action"
	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	"github.com/Cardassist-core-poc/server/internal/notify"
	"github.com/Cardassist-core-poc/server/internal/store"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Handler is the uniform per-category contract.
type Handler interface {
	// Category names the single category this handler serves.
	Category() model.Category

	// AnswerInformation answers a read-only query scoped to the query's user.
	// It never mutates state.
	AnswerInformation(ctx context.Context, q model.Query) (*model.InformationResponse, error)

	// ProposeAction parses the query into a recognised action and returns a
	// pending proposal. The downstream API is not called yet.
	ProposeAction(ctx context.Context, q model.Query) (*model.ActionProposal, error)

	// ExecuteAction runs an approved proposal: downstream call first, store
	// mutation only on downstream success, then a fire-and-forget notification.
	ExecuteAction(ctx context.Context, p *model.ActionProposal) (*model.ExecutionResult, error)
}

// Deps bundles the collaborators shared by all handlers.
type Deps struct {
	Store       *store.Store
	Invoker     action.Invoker
	Notifier    notify.Notifier
	ProposalTTL time.Duration
}

// All constructs the full handler set.
func All(d Deps) []Handler {
	return []Handler{
		NewAccountHandler(d),
		NewDeliveryHandler(d),
		NewTransactionHandler(d),
		NewBillHandler(d),
		NewRepaymentHandler(d),
		NewCollectionsHandler(d),
	}
}

// newProposal builds a pending proposal with a fresh id and expiry deadline.
func newProposal(d Deps, q model.Query, category model.Category, actionName, summary string, params map[string]any) *model.ActionProposal {
	if params == nil {
		params = map[string]any{}
	}
	now := time.Now().UTC()
	return &model.ActionProposal{
		ProposalID:   uuid.NewString(),
		UserID:       q.UserID,
		Category:     category,
		ActionName:   actionName,
		ActionParams: params,
		Summary:      summary,
		CreatedAt:    now,
		ExpiresAt:    now.Add(d.ProposalTTL),
		Status:       model.ProposalPending,
	}
}

// execute is the shared execution sequence: status guard, downstream call,
// store mutation on success, async notification. mutate may be nil when the
// action has no local record to update; notifyMsg is sent fire-and-forget.
func execute(ctx context.Context, d Deps, p *model.ActionProposal, mutate func(ctx context.Context) error, notifyMsg string) (*model.ExecutionResult, error) {
	if p == nil {
		return nil, errx.InvalidState("nil proposal passed to execute")
	}
	if p.Status != model.ProposalApproved {
		return nil, errx.InvalidState(
			fmt.Sprintf("proposal %s is %s, not approved", p.ProposalID, p.Status))
	}

	params := make(map[string]any, len(p.ActionParams)+1)
	for k, v := range p.ActionParams {
		params[k] = v
	}
	params["user_id"] = p.UserID

	res, err := d.Invoker.Invoke(ctx, p.ActionName, params)
	if err != nil {
		if errx.OutcomeUnknown(err) {
			// The action may or may not have happened downstream. Never report
			// it as success or failure; it needs manual reconciliation.
			return &model.ExecutionResult{
				ProposalID:     p.ProposalID,
				Success:        false,
				OutcomeUnknown: true,
				ErrorDetail:    "downstream action timed out; outcome unknown",
			}, nil
		}
		return &model.ExecutionResult{
			ProposalID:  p.ProposalID,
			Success:     false,
			ErrorDetail: err.Error(),
		}, nil
	}
	if !res.Success {
		return &model.ExecutionResult{
			ProposalID:  p.ProposalID,
			Success:     false,
			ErrorDetail: res.Error,
		}, nil
	}

	result := &model.ExecutionResult{
		ProposalID:          p.ProposalID,
		Success:             true,
		DownstreamReference: res.ReferenceID,
	}

	if mutate != nil {
		if merr := mutate(ctx); merr != nil {
			// Downstream already committed; the local record is stale, not the
			// action. Surface the detail without flipping the outcome.
			logx.Error().Err(merr).
				Str("proposal_id", p.ProposalID).
				Str("action", p.ActionName).
				Msg("Store mutation failed after downstream success")
			result.ErrorDetail = "action completed but local records need reconciliation"
		}
	}

	if notifyMsg != "" {
		go func(userID, msg string) {
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			if nerr := d.Notifier.Notify(nctx, userID, msg); nerr != nil {
				logx.Warn().Err(nerr).Str("user_id", userID).Msg("Notification failed")
			}
		}(p.UserID, notifyMsg)
	}

	return result, nil
}
