package app

import (
	"context"
	"time"

	"billing-backend/internal/core"
)

type appService struct {
	users             core.UserService
	clients           core.ClientService
	clientBranches    core.ClientBranchService
	clientDepartments core.ClientDepartmentService
	departments       core.DepartmentService
	machines          core.MachineService
	billings          core.BillingService
	collections       core.CollectionService
	payments          core.PaymentService
}

// Services bundles the core services an appService delegates to.
type Services struct {
	Users             core.UserService
	Clients           core.ClientService
	ClientBranches    core.ClientBranchService
	ClientDepartments core.ClientDepartmentService
	Departments       core.DepartmentService
	Machines          core.MachineService
	Billings          core.BillingService
	Collections       core.CollectionService
	Payments          core.PaymentService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(svcs Services) ApplicationService {
	return &appService{
		users:             svcs.Users,
		clients:           svcs.Clients,
		clientBranches:    svcs.ClientBranches,
		clientDepartments: svcs.ClientDepartments,
		departments:       svcs.Departments,
		machines:          svcs.Machines,
		billings:          svcs.Billings,
		collections:       svcs.Collections,
		payments:          svcs.Payments,
	}
}

func (s *appService) Login(ctx context.Context, username, password string) (*core.User, error) {
	return s.users.Authenticate(ctx, username, password)
}

func (s *appService) CreateUser(ctx context.Context, req core.UserInput) (*core.User, error) {
	return s.users.Create(ctx, req)
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *appService) ListUsers(ctx context.Context, params core.ListParams) (*core.UserPage, error) {
	return s.users.List(ctx, params)
}

func (s *appService) DeleteUser(ctx context.Context, userID int) error {
	return s.users.Delete(ctx, userID)
}

func (s *appService) CreateClient(ctx context.Context, req core.ClientInput) (*core.Client, error) {
	return s.clients.Create(ctx, req)
}

func (s *appService) GetClient(ctx context.Context, clientID int) (*core.Client, error) {
	return s.clients.Get(ctx, clientID)
}

func (s *appService) ListClients(ctx context.Context, params core.ListParams) (*core.ClientPage, error) {
	return s.clients.List(ctx, params)
}

func (s *appService) UpdateClient(ctx context.Context, clientID int, req core.ClientInput) (*core.Client, error) {
	return s.clients.Update(ctx, clientID, req)
}

func (s *appService) DeleteClient(ctx context.Context, clientID int) error {
	return s.clients.Delete(ctx, clientID)
}

func (s *appService) CreateClientBranch(ctx context.Context, req core.ClientBranchInput) (*core.ClientBranch, error) {
	return s.clientBranches.Create(ctx, req)
}

func (s *appService) GetClientBranch(ctx context.Context, branchID int) (*core.ClientBranch, error) {
	return s.clientBranches.Get(ctx, branchID)
}

func (s *appService) ListClientBranches(ctx context.Context, params core.ClientScopedListParams) (*core.ClientBranchPage, error) {
	return s.clientBranches.List(ctx, params)
}

func (s *appService) UpdateClientBranch(ctx context.Context, branchID int, req core.ClientBranchInput) (*core.ClientBranch, error) {
	return s.clientBranches.Update(ctx, branchID, req)
}

func (s *appService) DeleteClientBranch(ctx context.Context, branchID int) error {
	return s.clientBranches.Delete(ctx, branchID)
}

func (s *appService) CreateClientDepartment(ctx context.Context, req core.ClientDepartmentInput) (*core.ClientDepartment, error) {
	return s.clientDepartments.Create(ctx, req)
}

func (s *appService) GetClientDepartment(ctx context.Context, departmentID int) (*core.ClientDepartment, error) {
	return s.clientDepartments.Get(ctx, departmentID)
}

func (s *appService) ListClientDepartments(ctx context.Context, params core.ClientScopedListParams) (*core.ClientDepartmentPage, error) {
	return s.clientDepartments.List(ctx, params)
}

func (s *appService) UpdateClientDepartment(ctx context.Context, departmentID int, req core.ClientDepartmentInput) (*core.ClientDepartment, error) {
	return s.clientDepartments.Update(ctx, departmentID, req)
}

func (s *appService) DeleteClientDepartment(ctx context.Context, departmentID int) error {
	return s.clientDepartments.Delete(ctx, departmentID)
}

func (s *appService) CreateDepartment(ctx context.Context, req core.DepartmentInput) (*core.Department, error) {
	return s.departments.Create(ctx, req)
}

func (s *appService) GetDepartment(ctx context.Context, departmentID int) (*core.Department, error) {
	return s.departments.Get(ctx, departmentID)
}

func (s *appService) ListDepartments(ctx context.Context, params core.ListParams) (*core.DepartmentPage, error) {
	return s.departments.List(ctx, params)
}

func (s *appService) UpdateDepartment(ctx context.Context, departmentID int, req core.DepartmentInput) (*core.Department, error) {
	return s.departments.Update(ctx, departmentID, req)
}

func (s *appService) DeleteDepartment(ctx context.Context, departmentID int) error {
	return s.departments.Delete(ctx, departmentID)
}

func (s *appService) CreateMachine(ctx context.Context, req core.MachineInput) (*core.Machine, error) {
	return s.machines.Create(ctx, req)
}

func (s *appService) GetMachine(ctx context.Context, machineID int) (*core.Machine, error) {
	return s.machines.Get(ctx, machineID)
}

func (s *appService) ListMachines(ctx context.Context, params core.ListParams) (*core.MachinePage, error) {
	return s.machines.List(ctx, params)
}

func (s *appService) UpdateMachine(ctx context.Context, machineID int, req core.MachineInput) (*core.Machine, error) {
	return s.machines.Update(ctx, machineID, req)
}

func (s *appService) DeleteMachine(ctx context.Context, machineID int) error {
	return s.machines.Delete(ctx, machineID)
}

func (s *appService) CreateBilling(ctx context.Context, req core.BillingInput) (*core.BillingWithCollection, error) {
	return s.billings.Create(ctx, req)
}

func (s *appService) CreateBillings(ctx context.Context, reqs []core.BulkBillingInput) (*core.BulkResult, error) {
	return s.billings.CreateBulk(ctx, reqs)
}

func (s *appService) GetBilling(ctx context.Context, billingID int) (*core.Billing, error) {
	return s.billings.Get(ctx, billingID)
}

func (s *appService) ListBillings(ctx context.Context, params core.BillingListParams) (*core.BillingPage, error) {
	return s.billings.List(ctx, params)
}

func (s *appService) UpdateBilling(ctx context.Context, billingID int, req core.BillingInput) (*core.Billing, error) {
	return s.billings.Update(ctx, billingID, req)
}

func (s *appService) CancelBilling(ctx context.Context, billingID int, remarks string) (*core.CancelledInvoice, error) {
	return s.billings.Cancel(ctx, billingID, remarks)
}

func (s *appService) GetCollection(ctx context.Context, collectionID int) (*core.Collection, error) {
	return s.collections.Get(ctx, collectionID)
}

func (s *appService) ListCollections(ctx context.Context, params core.CollectionListParams) (*core.CollectionPage, error) {
	return s.collections.List(ctx, params)
}

func (s *appService) UpdateCollection(ctx context.Context, collectionID int, remarks *string, date *time.Time) (*core.Collection, error) {
	return s.collections.UpdateRemarks(ctx, collectionID, remarks, date)
}

func (s *appService) CollectionAging(ctx context.Context, status core.CollectionStatus) ([]core.AgingBucket, error) {
	return s.collections.Aging(ctx, status)
}

func (s *appService) RecordPayment(ctx context.Context, collectionID int, req core.PaymentInput) (*core.Payment, error) {
	return s.payments.Record(ctx, collectionID, req)
}

func (s *appService) GetPayment(ctx context.Context, paymentID int) (*core.Payment, error) {
	return s.payments.Get(ctx, paymentID)
}

func (s *appService) ListPayments(ctx context.Context, params core.ListParams) (*core.PaymentPage, error) {
	return s.payments.List(ctx, params)
}

func (s *appService) UpdatePayment(ctx context.Context, paymentID int, req core.PaymentInput) (*core.Payment, error) {
	return s.payments.Update(ctx, paymentID, req)
}

func (s *appService) CancelPayment(ctx context.Context, paymentID int) (*core.Collection, error) {
	return s.payments.Cancel(ctx, paymentID)
}
