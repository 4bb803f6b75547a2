package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
	ClientPending  ClientStatus = "pending"
)

// Client is the legal entity being billed. A client owns branches and
// departments; billings are raised against one department.
type Client struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	TaxID          *string      `json:"tax_id,omitempty"`
	BusinessStyle  *string      `json:"business_style,omitempty"`
	BillingAddress *string      `json:"billing_address,omitempty"`
	Status         ClientStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ClientBranch is a physical site of a client. Branch names are unique
// within their client, not globally.
type ClientBranch struct {
	ID        int          `json:"id"`
	ClientID  int          `json:"client_id"`
	Name      string       `json:"name"`
	Address   string       `json:"address"`
	Phone     *string      `json:"phone,omitempty"`
	Email     *string      `json:"email,omitempty"`
	Status    ClientStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ClientDepartment is the billable unit under a client. Every billing
// references exactly one department.
type ClientDepartment struct {
	ID        int          `json:"id"`
	ClientID  int          `json:"client_id"`
	Name      string       `json:"name"`
	Address   *string      `json:"address,omitempty"`
	Phone     *string      `json:"phone,omitempty"`
	Email     *string      `json:"email,omitempty"`
	Status    ClientStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Department is an internal company department users belong to
// (distinct from ClientDepartment, which belongs to a client).
type Department struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Machine struct {
	ID           int       `json:"id"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Description  *string   `json:"description,omitempty"`
	SerialNumber string    `json:"serial_number"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type User struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	Username     string    `json:"username"`
	DepartmentID int       `json:"department_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Billing is one invoice instance. The invoice number is unique only among
// non-cancelled billings: cancelling a billing frees its number for reuse,
// and creating a billing with a cancelled number revives the original row.
type Billing struct {
	ID            int             `json:"id"`
	ClientID      *int            `json:"client_id,omitempty"`
	DepartmentID  int             `json:"department_id"`
	BranchID      *int            `json:"branch_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Discount      decimal.Decimal `json:"discount"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	BillingDate   time.Time       `json:"billing_date"`
	Type          string          `json:"type"`
	IsCancelled   bool            `json:"is_cancelled"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// DepartmentName is populated on list reads that join the department.
	DepartmentName string `json:"department_name,omitempty"`
}

// CancelledInvoice is the append-only audit record written when a billing
// is cancelled. The billing row itself is retained.
type CancelledInvoice struct {
	ID            int             `json:"id"`
	BillingID     int             `json:"billing_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	Remarks       string          `json:"remarks"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CollectionStatus string

const (
	CollectionPending CollectionStatus = "pending"
	CollectionPaid    CollectionStatus = "paid"
)

// Collection tracks the running amount owed against one billing.
//
// Balance carries a deliberate double meaning inherited from the production
// data: 0 together with status=pending means "no partial payment recorded
// yet", while a nonzero balance is the remainder after partial payments.
// Status must always be consulted alongside Balance.
type Collection struct {
	ID            int              `json:"id"`
	BillingID     int              `json:"billing_id"`
	InvoiceNumber string           `json:"invoice_number"`
	Amount        decimal.Decimal  `json:"amount"`
	Balance       decimal.Decimal  `json:"balance"`
	Status        CollectionStatus `json:"status"`
	Date          time.Time        `json:"date"`
	Remarks       *string          `json:"remarks,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type PaymentMode string

const (
	ModeCash           PaymentMode = "cash"
	ModeCheque         PaymentMode = "cheque"
	ModeOnlineTransfer PaymentMode = "online_transfer"
	ModePDC            PaymentMode = "pdc"
)

// ValidMode reports whether m is one of the recognized payment modes.
func ValidMode(m PaymentMode) bool {
	switch m {
	case ModeCash, ModeCheque, ModeOnlineTransfer, ModePDC:
		return true
	}
	return false
}

// Payment is one payment event against a collection. Payments are never
// hard-deleted; cancellation flips IsCancelled and reverses the balance
// effect. The OR (official receipt) number is unique among non-cancelled
// payments.
type Payment struct {
	ID                int             `json:"id"`
	CollectionID      int             `json:"collection_id"`
	InvoiceNumber     string          `json:"invoice_number"`
	ORNumber          string          `json:"or_number"`
	Amount            decimal.Decimal `json:"amount"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	WithholdingAmount decimal.Decimal `json:"withholding_amount"`
	HasWithholding    bool            `json:"has_withholding"`
	Mode              PaymentMode     `json:"mode"`
	PaymentDate       time.Time       `json:"payment_date"`
	PostingDate       *time.Time      `json:"posting_date,omitempty"`
	CollectionDate    *time.Time      `json:"collection_date,omitempty"`
	InvoiceDate       *time.Time      `json:"invoice_date,omitempty"`
	Remarks           *string         `json:"remarks,omitempty"`
	IsCancelled       bool            `json:"is_cancelled"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// DepartmentName is populated on list reads that join through the
	// collection's billing.
	DepartmentName string `json:"department_name,omitempty"`
}

// PaymentCheque is the satellite record for cheque payments, keyed by the
// payment id itself to enforce the 1:1 cardinality.
type PaymentCheque struct {
	PaymentID    int       `json:"payment_id"`
	ChequeNumber string    `json:"cheque_number"`
	ChequeDate   time.Time `json:"cheque_date"`
}

// PaymentOnlineTransfer is the satellite record for online transfers.
type PaymentOnlineTransfer struct {
	PaymentID       int       `json:"payment_id"`
	ReferenceNumber string    `json:"reference_number"`
	TransferDate    time.Time `json:"transfer_date"`
}

// PaymentPDC is the satellite record for post-dated cheques, tracking the
// deposit and credit dates in addition to the cheque date.
type PaymentPDC struct {
	PaymentID   int        `json:"payment_id"`
	PDCNumber   string     `json:"pdc_number"`
	PDCDate     time.Time  `json:"pdc_date"`
	DepositDate *time.Time `json:"deposit_date,omitempty"`
	CreditDate  *time.Time `json:"credit_date,omitempty"`
}
