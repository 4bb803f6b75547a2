package app

import (
	"context"
	"time"

	"billing-backend/internal/core"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples presentation from business logic. Implementations must contain
// no HTTP types and no display logic of any kind.
type ApplicationService interface {
	// Login verifies credentials and returns the authenticated user.
	// Token issuance is the adapter's concern.
	Login(ctx context.Context, username, password string) (*core.User, error)

	// CreateUser registers a new account.
	CreateUser(ctx context.Context, req core.UserInput) (*core.User, error)
	GetUser(ctx context.Context, userID int) (*core.User, error)
	ListUsers(ctx context.Context, params core.ListParams) (*core.UserPage, error)
	DeleteUser(ctx context.Context, userID int) error

	CreateClient(ctx context.Context, req core.ClientInput) (*core.Client, error)
	GetClient(ctx context.Context, clientID int) (*core.Client, error)
	ListClients(ctx context.Context, params core.ListParams) (*core.ClientPage, error)
	UpdateClient(ctx context.Context, clientID int, req core.ClientInput) (*core.Client, error)
	DeleteClient(ctx context.Context, clientID int) error

	CreateClientBranch(ctx context.Context, req core.ClientBranchInput) (*core.ClientBranch, error)
	GetClientBranch(ctx context.Context, branchID int) (*core.ClientBranch, error)
	ListClientBranches(ctx context.Context, params core.ClientScopedListParams) (*core.ClientBranchPage, error)
	UpdateClientBranch(ctx context.Context, branchID int, req core.ClientBranchInput) (*core.ClientBranch, error)
	DeleteClientBranch(ctx context.Context, branchID int) error

	CreateClientDepartment(ctx context.Context, req core.ClientDepartmentInput) (*core.ClientDepartment, error)
	GetClientDepartment(ctx context.Context, departmentID int) (*core.ClientDepartment, error)
	ListClientDepartments(ctx context.Context, params core.ClientScopedListParams) (*core.ClientDepartmentPage, error)
	UpdateClientDepartment(ctx context.Context, departmentID int, req core.ClientDepartmentInput) (*core.ClientDepartment, error)
	DeleteClientDepartment(ctx context.Context, departmentID int) error

	CreateDepartment(ctx context.Context, req core.DepartmentInput) (*core.Department, error)
	GetDepartment(ctx context.Context, departmentID int) (*core.Department, error)
	ListDepartments(ctx context.Context, params core.ListParams) (*core.DepartmentPage, error)
	UpdateDepartment(ctx context.Context, departmentID int, req core.DepartmentInput) (*core.Department, error)
	DeleteDepartment(ctx context.Context, departmentID int) error

	CreateMachine(ctx context.Context, req core.MachineInput) (*core.Machine, error)
	GetMachine(ctx context.Context, machineID int) (*core.Machine, error)
	ListMachines(ctx context.Context, params core.ListParams) (*core.MachinePage, error)
	UpdateMachine(ctx context.Context, machineID int, req core.MachineInput) (*core.Machine, error)
	DeleteMachine(ctx context.Context, machineID int) error

	// CreateBilling raises one invoice and its tracking collection. A
	// cancelled billing with the same invoice number is revived in place.
	CreateBilling(ctx context.Context, req core.BillingInput) (*core.BillingWithCollection, error)
	// CreateBillings imports a batch, matching departments by normalized
	// name and reporting per-row skips.
	CreateBillings(ctx context.Context, reqs []core.BulkBillingInput) (*core.BulkResult, error)
	GetBilling(ctx context.Context, billingID int) (*core.Billing, error)
	ListBillings(ctx context.Context, params core.BillingListParams) (*core.BillingPage, error)
	UpdateBilling(ctx context.Context, billingID int, req core.BillingInput) (*core.Billing, error)
	// CancelBilling voids an invoice, freeing its number for reuse. The row
	// is retained and an audit record is written.
	CancelBilling(ctx context.Context, billingID int, remarks string) (*core.CancelledInvoice, error)

	GetCollection(ctx context.Context, collectionID int) (*core.Collection, error)
	ListCollections(ctx context.Context, params core.CollectionListParams) (*core.CollectionPage, error)
	UpdateCollection(ctx context.Context, collectionID int, remarks *string, date *time.Time) (*core.Collection, error)
	// CollectionAging reports outstanding balances in fixed overdue buckets.
	CollectionAging(ctx context.Context, status core.CollectionStatus) ([]core.AgingBucket, error)

	// RecordPayment applies a payment against a collection atomically,
	// adjusting the running balance and status.
	RecordPayment(ctx context.Context, collectionID int, req core.PaymentInput) (*core.Payment, error)
	GetPayment(ctx context.Context, paymentID int) (*core.Payment, error)
	ListPayments(ctx context.Context, params core.ListParams) (*core.PaymentPage, error)
	UpdatePayment(ctx context.Context, paymentID int, req core.PaymentInput) (*core.Payment, error)
	// CancelPayment reverses a payment's effect on its collection and
	// returns the restored collection state. Already cancelled payments are
	// rejected.
	CancelPayment(ctx context.Context, paymentID int) (*core.Collection, error)
}
