package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// LedgerServiceName is the fully-qualified name of the ledger service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Ledger procedure paths.
const (
	CreateGroupProcedure           = "/" + LedgerServiceName + "/CreateGroup"
	GetGroupProcedure              = "/" + LedgerServiceName + "/GetGroup"
	ListGroupsProcedure            = "/" + LedgerServiceName + "/ListGroups"
	UpdateGroupProcedure           = "/" + LedgerServiceName + "/UpdateGroup"
	DeleteGroupProcedure           = "/" + LedgerServiceName + "/DeleteGroup"
	AddMemberProcedure             = "/" + LedgerServiceName + "/AddMember"
	RemoveMemberProcedure          = "/" + LedgerServiceName + "/RemoveMember"
	CreateExpenseProcedure         = "/" + LedgerServiceName + "/CreateExpense"
	GetExpenseProcedure            = "/" + LedgerServiceName + "/GetExpense"
	DeleteExpenseProcedure         = "/" + LedgerServiceName + "/DeleteExpense"
	ListGroupExpensesProcedure     = "/" + LedgerServiceName + "/ListGroupExpenses"
	ListUserExpensesProcedure      = "/" + LedgerServiceName + "/ListUserExpenses"
	CreatePaymentProcedure         = "/" + LedgerServiceName + "/CreatePayment"
	GetPaymentProcedure            = "/" + LedgerServiceName + "/GetPayment"
	DeletePaymentProcedure         = "/" + LedgerServiceName + "/DeletePayment"
	ListGroupPaymentsProcedure     = "/" + LedgerServiceName + "/ListGroupPayments"
	ListUserPaymentsProcedure      = "/" + LedgerServiceName + "/ListUserPayments"
	GetSettlementPlanProcedure     = "/" + LedgerServiceName + "/GetSettlementPlan"
	GetAggregatedBalancesProcedure = "/" + LedgerServiceName + "/GetAggregatedBalances"
	ListActivitiesProcedure        = "/" + LedgerServiceName + "/ListActivities"
)

// LedgerService implements the LedgerService RPC interface.
type LedgerService struct {
	ledger *ledger.Ledger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// Handler returns the path prefix and handler serving every ledger
// procedure. opts must include an interceptor that authenticates the caller.
func (s *LedgerService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	handle(mux, CreateGroupProcedure, s.CreateGroup, opts)
	handle(mux, GetGroupProcedure, s.GetGroup, opts)
	handle(mux, ListGroupsProcedure, s.ListGroups, opts)
	handle(mux, UpdateGroupProcedure, s.UpdateGroup, opts)
	handle(mux, DeleteGroupProcedure, s.DeleteGroup, opts)
	handle(mux, AddMemberProcedure, s.AddMember, opts)
	handle(mux, RemoveMemberProcedure, s.RemoveMember, opts)
	handle(mux, CreateExpenseProcedure, s.CreateExpense, opts)
	handle(mux, GetExpenseProcedure, s.GetExpense, opts)
	handle(mux, DeleteExpenseProcedure, s.DeleteExpense, opts)
	handle(mux, ListGroupExpensesProcedure, s.ListGroupExpenses, opts)
	handle(mux, ListUserExpensesProcedure, s.ListUserExpenses, opts)
	handle(mux, CreatePaymentProcedure, s.CreatePayment, opts)
	handle(mux, GetPaymentProcedure, s.GetPayment, opts)
	handle(mux, DeletePaymentProcedure, s.DeletePayment, opts)
	handle(mux, ListGroupPaymentsProcedure, s.ListGroupPayments, opts)
	handle(mux, ListUserPaymentsProcedure, s.ListUserPayments, opts)
	handle(mux, GetSettlementPlanProcedure, s.GetSettlementPlan, opts)
	handle(mux, GetAggregatedBalancesProcedure, s.GetAggregatedBalances, opts)
	handle(mux, ListActivitiesProcedure, s.ListActivities, opts)
	return "/" + LedgerServiceName + "/", mux
}

// CreateGroup creates a group with the caller as its first member.
func (s *LedgerService) CreateGroup(ctx context.Context, caller string, req *CreateGroupRequest) (*GroupResponse, error) {
	slog.Debug("CreateGroup request received", "name", req.Name, "members", len(req.MemberIDs))

	group, err := s.ledger.CreateGroup(ctx, caller, ledger.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    models.GroupCategory(req.Category),
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: groupMessage(group)}, nil
}

// GetGroup returns a group the caller belongs to.
func (s *LedgerService) GetGroup(ctx context.Context, caller string, req *GroupRequest) (*GroupResponse, error) {
	group, err := s.ledger.GetGroup(ctx, req.GroupID, caller)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: groupMessage(group)}, nil
}

// ListGroups lists the caller's groups.
func (s *LedgerService) ListGroups(ctx context.Context, caller string, _ *ListGroupsRequest) (*ListGroupsResponse, error) {
	groups, err := s.ledger.ListGroups(ctx, caller)
	if err != nil {
		return nil, err
	}
	return &ListGroupsResponse{Groups: mapSlice(groups, groupMessage)}, nil
}

// UpdateGroup changes only the fields present in the request.
func (s *LedgerService) UpdateGroup(ctx context.Context, caller string, req *UpdateGroupRequest) (*GroupResponse, error) {
	upd := ledger.GroupUpdate{Name: req.Name, Description: req.Description}
	if req.Category != nil {
		category := models.GroupCategory(*req.Category)
		upd.Category = &category
	}

	group, err := s.ledger.UpdateGroup(ctx, req.GroupID, caller, upd)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: groupMessage(group)}, nil
}

// DeleteGroup deletes a group. Only its creator may do so.
func (s *LedgerService) DeleteGroup(ctx context.Context, caller string, req *GroupRequest) (*Empty, error) {
	if err := s.ledger.DeleteGroup(ctx, req.GroupID, caller); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// AddMember adds a user by id, or by registered email when no id is given.
func (s *LedgerService) AddMember(ctx context.Context, caller string, req *AddMemberRequest) (*GroupResponse, error) {
	var (
		group *models.Group
		err   error
	)
	switch {
	case req.UserID != "":
		group, err = s.ledger.AddMember(ctx, req.GroupID, req.UserID, caller)
	case req.Email != "":
		group, err = s.ledger.AddMemberByEmail(ctx, req.GroupID, req.Email, caller)
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingMember)
	}
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: groupMessage(group)}, nil
}

// RemoveMember removes a member whose balance is settled and who has no
// expenses or payments in the group.
func (s *LedgerService) RemoveMember(ctx context.Context, caller string, req *RemoveMemberRequest) (*GroupResponse, error) {
	group, err := s.ledger.RemoveMember(ctx, req.GroupID, req.UserID, caller)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: groupMessage(group)}, nil
}

// CreateExpense records an expense paid by the caller.
func (s *LedgerService) CreateExpense(ctx context.Context, caller string, req *CreateExpenseRequest) (*ExpenseResponse, error) {
	slog.Debug("CreateExpense request received",
		"group_id", req.GroupID,
		"amount", req.Amount.String(),
		"splits", len(req.SplitBetween),
	)

	expense, err := s.ledger.CreateExpense(ctx, caller, expenseInput(req))
	if err != nil {
		return nil, err
	}
	return &ExpenseResponse{Expense: expenseMessage(expense)}, nil
}

// GetExpense returns an expense from one of the caller's groups.
func (s *LedgerService) GetExpense(ctx context.Context, caller string, req *ExpenseRequest) (*ExpenseResponse, error) {
	expense, err := s.ledger.GetExpense(ctx, req.ExpenseID, caller)
	if err != nil {
		return nil, err
	}
	return &ExpenseResponse{Expense: expenseMessage(expense)}, nil
}

// DeleteExpense deletes an expense and reverses its effect on balances.
func (s *LedgerService) DeleteExpense(ctx context.Context, caller string, req *ExpenseRequest) (*Empty, error) {
	if err := s.ledger.DeleteExpense(ctx, req.ExpenseID, caller); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// ListGroupExpenses lists the expenses of a group in the order they were recorded.
func (s *LedgerService) ListGroupExpenses(ctx context.Context, caller string, req *ListExpensesRequest) (*ListExpensesResponse, error) {
	expenses, err := s.ledger.ListGroupExpenses(ctx, req.GroupID, caller)
	if err != nil {
		return nil, err
	}
	return &ListExpensesResponse{Expenses: mapSlice(expenses, expenseMessage)}, nil
}

// ListUserExpenses lists every expense the caller paid or shares in.
func (s *LedgerService) ListUserExpenses(ctx context.Context, caller string, _ *ListExpensesRequest) (*ListExpensesResponse, error) {
	expenses, err := s.ledger.ListUserExpenses(ctx, caller)
	if err != nil {
		return nil, err
	}
	return &ListExpensesResponse{Expenses: mapSlice(expenses, expenseMessage)}, nil
}

// CreatePayment records a payment from the caller to req.PaidTo.
func (s *LedgerService) CreatePayment(ctx context.Context, caller string, req *CreatePaymentRequest) (*PaymentResponse, error) {
	slog.Debug("CreatePayment request received",
		"group_id", req.GroupID,
		"paid_to", req.PaidTo,
		"amount", req.Amount.String(),
	)

	payment, err := s.ledger.CreatePayment(ctx, caller, ledger.PaymentInput{
		GroupID:     req.GroupID,
		PaidTo:      req.PaidTo,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResponse{Payment: paymentMessage(payment)}, nil
}

// GetPayment returns a payment from one of the caller's groups.
func (s *LedgerService) GetPayment(ctx context.Context, caller string, req *PaymentRequest) (*PaymentResponse, error) {
	payment, err := s.ledger.GetPayment(ctx, req.PaymentID, caller)
	if err != nil {
		return nil, err
	}
	return &PaymentResponse{Payment: paymentMessage(payment)}, nil
}

// DeletePayment deletes a payment and reverses its effect on balances.
func (s *LedgerService) DeletePayment(ctx context.Context, caller string, req *PaymentRequest) (*Empty, error) {
	if err := s.ledger.DeletePayment(ctx, req.PaymentID, caller); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// ListGroupPayments lists the payments of a group, newest first.
func (s *LedgerService) ListGroupPayments(ctx context.Context, caller string, req *ListPaymentsRequest) (*ListPaymentsResponse, error) {
	payments, err := s.ledger.ListGroupPayments(ctx, req.GroupID, caller)
	if err != nil {
		return nil, err
	}
	return &ListPaymentsResponse{Payments: mapSlice(payments, paymentMessage)}, nil
}

// ListUserPayments lists every payment the caller made or received.
func (s *LedgerService) ListUserPayments(ctx context.Context, caller string, _ *ListPaymentsRequest) (*ListPaymentsResponse, error) {
	payments, err := s.ledger.ListUserPayments(ctx, caller)
	if err != nil {
		return nil, err
	}
	return &ListPaymentsResponse{Payments: mapSlice(payments, paymentMessage)}, nil
}

// GetSettlementPlan returns the transfers that settle the group.
func (s *LedgerService) GetSettlementPlan(ctx context.Context, caller string, req *GroupRequest) (*SettlementPlanResponse, error) {
	plan, err := s.ledger.GetSettlementPlan(ctx, req.GroupID, caller)
	if err != nil {
		return nil, err
	}
	return &SettlementPlanResponse{Transfers: mapSlice(plan, func(t calculator.Transfer) Transfer {
		return Transfer{From: t.From, To: t.To, Amount: t.Amount}
	})}, nil
}

// GetAggregatedBalances nets the caller against every counterparty.
func (s *LedgerService) GetAggregatedBalances(ctx context.Context, caller string, _ *AggregatedBalancesRequest) (*AggregatedBalancesResponse, error) {
	balances, err := s.ledger.GetAggregatedBalances(ctx, caller)
	if err != nil {
		return nil, err
	}
	return &AggregatedBalancesResponse{Balances: mapSlice(balances, func(b calculator.CounterpartyBalance) CounterpartyBalance {
		return CounterpartyBalance{UserID: b.UserID, Amount: b.Amount}
	})}, nil
}

// ListActivities returns a page of activity across the caller's groups.
func (s *LedgerService) ListActivities(ctx context.Context, caller string, req *ListActivitiesRequest) (*ListActivitiesResponse, error) {
	page, err := s.ledger.ListActivities(ctx, caller, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}
	return &ListActivitiesResponse{
		Activities:      page.Activities,
		CurrentPage:     page.CurrentPage,
		TotalPages:      page.TotalPages,
		TotalActivities: page.Total,
	}, nil
}
