// Package router ties the classifier, the category handlers and the consent
// ledger into the end-to-end request lifecycle. It is the entry point the API
// layer calls.
package router

import (
	"context"
	"fmt"

	"github.com/Cardassist-core-poc/server/internal/assistant/classifier"
	"github.com/Cardassist-core-poc/server/internal/assistant/consent"
	"github.com/Cardassist-core-poc/server/internal/assistant/handlers"
	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Router dispatches classified queries to handlers and runs the two-phase
// propose/consent/execute protocol for state-changing actions.
type Router struct {
	classifier classifier.Classifier
	ledger     consent.Ledger
	handlers   map[model.Category]handlers.Handler
}

// New builds a Router. Every category must map to exactly one handler; a
// duplicate or missing registration is a wiring bug surfaced at startup.
func New(c classifier.Classifier, ledger consent.Ledger, hs []handlers.Handler) (*Router, error) {
	if c == nil {
		return nil, fmt.Errorf("classifier is nil")
	}
	if ledger == nil {
		return nil, fmt.Errorf("consent ledger is nil")
	}

	byCategory := make(map[model.Category]handlers.Handler, len(hs))
	for _, h := range hs {
		if _, dup := byCategory[h.Category()]; dup {
			return nil, fmt.Errorf("duplicate handler for category %s", h.Category())
		}
		byCategory[h.Category()] = h
	}
	for _, cat := range model.Categories() {
		if _, ok := byCategory[cat]; !ok {
			return nil, fmt.Errorf("no handler registered for category %s", cat)
		}
	}

	return &Router{classifier: c, ledger: ledger, handlers: byCategory}, nil
}

// HandleQuery classifies the query and either answers it directly or registers
// a consent-gated proposal. It never blocks waiting for consent.
func (r *Router) HandleQuery(ctx context.Context, q model.Query) (*model.Response, error) {
	cls, err := r.classifier.Classify(ctx, q.Text)
	if err != nil {
		if errx.IsKind(err, errx.KindClassification) {
			logx.Warn().Err(err).Str("user_id", q.UserID).Msg("Query could not be classified")
			return &model.Response{
				Kind:    model.KindError,
				Message: "Sorry, I could not understand your request. Could you rephrase it?",
			}, nil
		}
		return nil, err
	}

	handler, ok := r.handlers[cls.Category]
	if !ok {
		// New() guarantees full coverage; reaching this is a wiring bug.
		return nil, errx.InvalidState(fmt.Sprintf("no handler for category %s", cls.Category))
	}

	logx.Debug().
		Str("user_id", q.UserID).
		Str("category", string(cls.Category)).
		Str("task_type", string(cls.TaskType)).
		Msg("Query classified")

	if cls.TaskType == model.TaskInformation {
		info, err := handler.AnswerInformation(ctx, q)
		if err != nil {
			return nil, err
		}
		return &model.Response{
			Kind:           model.KindInformation,
			Message:        info.Answer,
			Classification: &cls,
			Data:           info.Data,
		}, nil
	}

	proposal, err := handler.ProposeAction(ctx, q)
	if err != nil {
		return nil, err
	}

	proposalID, err := r.ledger.Register(ctx, proposal)
	if err != nil {
		return nil, err
	}
	if proposalID != proposal.ProposalID {
		// An identical action is already awaiting consent; reuse its prompt.
		existing, err := r.ledger.Get(ctx, proposalID)
		if err == nil {
			proposal = existing
		}
	}

	return &model.Response{
		Kind:           model.KindConsentRequired,
		Message:        proposal.Summary,
		Classification: &cls,
		ProposalID:     proposalID,
		Data: map[string]any{
			"action_name":   proposal.ActionName,
			"action_params": proposal.ActionParams,
			"expires_at":    proposal.ExpiresAt,
		},
	}, nil
}

// HandleConsent applies the user's decision to a pending proposal and, on
// approval, executes it. The ledger entry is retired after the execution
// attempt regardless of the downstream outcome.
func (r *Router) HandleConsent(ctx context.Context, proposalID string, decision consent.Decision) (*model.Response, error) {
	proposal, err := r.ledger.Resolve(ctx, proposalID, decision)
	if err != nil {
		return nil, err
	}

	if proposal.Status != model.ProposalApproved {
		return &model.Response{
			Kind:       model.KindRejected,
			Message:    "Action cancelled. Nothing was changed.",
			ProposalID: proposalID,
		}, nil
	}

	handler, ok := r.handlers[proposal.Category]
	if !ok {
		return nil, errx.InvalidState(fmt.Sprintf("no handler for category %s", proposal.Category))
	}

	result, execErr := handler.ExecuteAction(ctx, proposal)

	// The execution attempt is terminal for this proposal even when the
	// downstream call failed; a retry needs a fresh proposal.
	if err := r.ledger.MarkExecuted(ctx, proposalID); err != nil {
		logx.Error().Err(err).Str("proposal_id", proposalID).Msg("Failed to retire executed proposal")
	}

	if execErr != nil {
		return nil, execErr
	}

	message := fmt.Sprintf("Action %q executed successfully.", proposal.ActionName)
	if result.OutcomeUnknown {
		message = fmt.Sprintf("Action %q was dispatched but its outcome is unknown. Our team will verify and follow up.", proposal.ActionName)
	} else if !result.Success {
		message = fmt.Sprintf("Action %q could not be completed: %s", proposal.ActionName, result.ErrorDetail)
	}

	return &model.Response{
		Kind:       model.KindExecuted,
		Message:    message,
		ProposalID: proposalID,
		Result:     result,
	}, nil
}
