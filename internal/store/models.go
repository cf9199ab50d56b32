package store

import "time"

// User is a cardholder account row.
type User struct {
	ID              int64      `db:"id"`
	UserID          string     `db:"user_id"`
	Name            string     `db:"name"`
	Email           string     `db:"email"`
	Phone           string     `db:"phone"`
	CardNumber      string     `db:"card_number"`
	CardStatus      string     `db:"card_status"` // active, blocked, expired
	CreditLimit     float64    `db:"credit_limit"`
	AvailableCredit float64    `db:"available_credit"`
	IsActive        bool       `db:"is_active"`
	CreatedAt       time.Time  `db:"created_at"`
	LastLogin       *time.Time `db:"last_login"`
}

// CardDelivery tracks a physical card shipment.
type CardDelivery struct {
	ID                int64      `db:"id"`
	UserID            string     `db:"user_id"`
	TrackingNumber    string     `db:"tracking_number"`
	Status            string     `db:"status"` // processing, shipped, in_transit, delivered
	Address           string     `db:"address"`
	EstimatedDelivery *time.Time `db:"estimated_delivery"`
	ActualDelivery    *time.Time `db:"actual_delivery"`
	CreatedAt         time.Time  `db:"created_at"`
}

// Transaction is a card transaction, optionally on EMI.
type Transaction struct {
	ID            int64     `db:"id"`
	UserID        string    `db:"user_id"`
	TransactionID string    `db:"transaction_id"`
	Amount        float64   `db:"amount"`
	Merchant      string    `db:"merchant"`
	Category      string    `db:"category"`
	Date          time.Time `db:"date"`
	Status        string    `db:"status"` // pending, completed, failed, refunded, disputed
	IsEMI         bool      `db:"is_emi"`
	EMITenure     *int      `db:"emi_tenure"`
	EMIAmount     *float64  `db:"emi_amount"`
	CreatedAt     time.Time `db:"created_at"`
}

// Bill is a monthly statement.
type Bill struct {
	ID              int64     `db:"id"`
	UserID          string    `db:"user_id"`
	BillID          string    `db:"bill_id"`
	BillDate        time.Time `db:"bill_date"`
	DueDate         time.Time `db:"due_date"`
	TotalAmount     float64   `db:"total_amount"`
	MinimumDue      float64   `db:"minimum_due"`
	PaidAmount      float64   `db:"paid_amount"`
	Status          string    `db:"status"` // pending, paid, overdue
	StatementPDFURL *string   `db:"statement_pdf_url"`
	CreatedAt       time.Time `db:"created_at"`
}

// Repayment is a recorded payment against the card.
type Repayment struct {
	ID            int64     `db:"id"`
	UserID        string    `db:"user_id"`
	RepaymentID   string    `db:"repayment_id"`
	Amount        float64   `db:"amount"`
	PaymentMethod string    `db:"payment_method"`
	Status        string    `db:"status"` // pending, processing, completed, failed
	PaymentDate   time.Time `db:"payment_date"`
	BillID        *string   `db:"bill_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// Collection tracks an overdue account in collections.
type Collection struct {
	ID                 int64      `db:"id"`
	UserID             string     `db:"user_id"`
	OverdueAmount      float64    `db:"overdue_amount"`
	DaysOverdue        int        `db:"days_overdue"`
	LastContactDate    *time.Time `db:"last_contact_date"`
	PaymentPlanOffered bool       `db:"payment_plan_offered"`
	Status             string     `db:"status"` // active, resolved, escalated
	Notes              *string    `db:"notes"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}
