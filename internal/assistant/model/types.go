package model

import (
	"time"
)

// Category is one of the six fixed domains a query is routed to.
type Category string

const (
	CategoryAccount     Category = "account"
	CategoryDelivery    Category = "delivery"
	CategoryTransaction Category = "transaction"
	CategoryBill        Category = "bill"
	CategoryRepayment   Category = "repayment"
	CategoryCollections Category = "collections"
)

// Categories returns all routable categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryAccount,
		CategoryDelivery,
		CategoryTransaction,
		CategoryBill,
		CategoryRepayment,
		CategoryCollections,
	}
}

// Valid reports whether the category belongs to the fixed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryAccount, CategoryDelivery, CategoryTransaction,
		CategoryBill, CategoryRepayment, CategoryCollections:
		return true
	}
	return false
}

// TaskType distinguishes read-only lookups from consent-gated actions.
type TaskType string

const (
	TaskInformation TaskType = "information"
	TaskAction      TaskType = "action"
)

// Valid reports whether the task type is one of the two known values.
func (t TaskType) Valid() bool {
	return t == TaskInformation || t == TaskAction
}

// Modality records how the query reached the system.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityVoice Modality = "voice"
)

// Query is an inbound customer query. Immutable once created.
type Query struct {
	Text       string    `json:"text"`
	UserID     string    `json:"user_id"`
	Modality   Modality  `json:"modality"`
	ReceivedAt time.Time `json:"received_at"`
}

// Classification is the classifier's verdict for a query.
type Classification struct {
	Category Category `json:"category"`
	TaskType TaskType `json:"task_type"`
}

// ProposalStatus is the consent lifecycle state of an action proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExpired  ProposalStatus = "expired"
	ProposalExecuted ProposalStatus = "executed"
)

// ActionProposal is a described-but-not-yet-executed action awaiting consent.
// Owned by the consent ledger from registration until a terminal state.
type ActionProposal struct {
	ProposalID   string         `json:"proposal_id"`
	UserID       string         `json:"user_id"`
	Category     Category       `json:"category"`
	ActionName   string         `json:"action_name"`
	ActionParams map[string]any `json:"action_params"`
	Summary      string         `json:"summary"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Status       ProposalStatus `json:"status"`
}

// Clone returns a deep-enough copy so ledger internals never alias caller state.
func (p *ActionProposal) Clone() *ActionProposal {
	cp := *p
	if p.ActionParams != nil {
		cp.ActionParams = make(map[string]any, len(p.ActionParams))
		for k, v := range p.ActionParams {
			cp.ActionParams[k] = v
		}
	}
	return &cp
}

// ExecutionResult is the terminal outcome of an approved action. Never mutated
// after creation.
type ExecutionResult struct {
	ProposalID          string `json:"proposal_id"`
	Success             bool   `json:"success"`
	OutcomeUnknown      bool   `json:"outcome_unknown,omitempty"`
	DownstreamReference string `json:"downstream_reference,omitempty"`
	ErrorDetail         string `json:"error_detail,omitempty"`
}

// InformationResponse is a read-only answer from a handler.
type InformationResponse struct {
	Answer string         `json:"answer"`
	Data   map[string]any `json:"data,omitempty"`
}

// ResponseKind tags a Response so the caller can render it without reparsing text.
type ResponseKind string

const (
	KindInformation     ResponseKind = "information"
	KindConsentRequired ResponseKind = "consent_required"
	KindExecuted        ResponseKind = "executed"
	KindRejected        ResponseKind = "rejected"
	KindError           ResponseKind = "error"
)

// Response is the structured result of HandleQuery / HandleConsent.
type Response struct {
	Kind           ResponseKind     `json:"kind"`
	Message        string           `json:"message"`
	Classification *Classification  `json:"classification,omitempty"`
	ProposalID     string           `json:"proposal_id,omitempty"`
	Data           map[string]any   `json:"data,omitempty"`
	Result         *ExecutionResult `json:"result,omitempty"`
}
