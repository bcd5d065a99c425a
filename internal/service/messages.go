package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// Amounts travel as decimal strings ("12.50").

type Member struct {
	UserID  string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

type Group struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category"`
	CreatorID     string          `json:"creator_id"`
	Members       []Member        `json:"members"`
	ExpenseIDs    []string        `json:"expense_ids"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	CreatedAt     int64           `json:"created_at"`
	UpdatedAt     int64           `json:"updated_at"`
}

type Split struct {
	UserID    string          `json:"user_id"`
	Share     decimal.Decimal `json:"share"`
	ShareType string          `json:"share_type,omitempty"`
	IsPaid    bool            `json:"is_paid"`
}

type Expense struct {
	ID           string          `json:"id"`
	GroupID      string          `json:"group_id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	PaidBy       string          `json:"paid_by"`
	SplitBetween []Split         `json:"split_between"`
	Category     string          `json:"category"`
	Date         int64           `json:"date"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    int64           `json:"created_at"`
}

type Payment struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PaidBy      string          `json:"paid_by"`
	PaidTo      string          `json:"paid_to"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        int64           `json:"date"`
}

type Transfer struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// CounterpartyBalance is positive when UserID owes the caller.
type CounterpartyBalance struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

// Requests and responses.

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	MemberIDs   []string `json:"member_ids"`
}

type GroupRequest struct {
	GroupID string `json:"group_id"`
}

type UpdateGroupRequest struct {
	GroupID     string  `json:"group_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

type GroupResponse struct {
	Group Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

// AddMemberRequest names the new member by user id or by registered email.
type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type CreateExpenseRequest struct {
	GroupID      string          `json:"group_id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	SplitBetween []Split         `json:"split_between"`
	Category     string          `json:"category"`
	Date         int64           `json:"date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

type ExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type ExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListExpensesRequest struct {
	// GroupID is required by ListGroupExpenses and ignored by ListUserExpenses.
	GroupID string `json:"group_id,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type CreatePaymentRequest struct {
	GroupID     string          `json:"group_id"`
	PaidTo      string          `json:"paid_to"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Date        int64           `json:"date,omitempty"`
}

type PaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type PaymentResponse struct {
	Payment Payment `json:"payment"`
}

type ListPaymentsRequest struct {
	GroupID string `json:"group_id,omitempty"`
}

type ListPaymentsResponse struct {
	Payments []Payment `json:"payments"`
}

type Empty struct{}

type SettlementPlanResponse struct {
	Transfers []Transfer `json:"transfers"`
}

type AggregatedBalancesRequest struct{}

type AggregatedBalancesResponse struct {
	Balances []CounterpartyBalance `json:"balances"`
}

type ListActivitiesRequest struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type ListActivitiesResponse struct {
	Activities      []*models.Activity `json:"activities"`
	CurrentPage     int                `json:"current_page"`
	TotalPages      int                `json:"total_pages"`
	TotalActivities int                `json:"total_activities"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type UserResponse struct {
	User User `json:"user"`
}

// Conversions.

func groupMessage(g *models.Group) Group {
	out := Group{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		Category:      string(g.Category),
		CreatorID:     g.CreatorID,
		Members:       make([]Member, len(g.Members)),
		ExpenseIDs:    append([]string{}, g.ExpenseIDs...),
		TotalExpenses: g.TotalExpenses,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
	for i, m := range g.Members {
		out.Members[i] = Member{UserID: m.UserID, Balance: m.Balance}
	}
	return out
}

func expenseMessage(e *models.Expense) Expense {
	out := Expense{
		ID:           e.ID,
		GroupID:      e.GroupID,
		Description:  e.Description,
		Amount:       e.Amount,
		PaidBy:       e.PaidBy,
		SplitBetween: make([]Split, len(e.SplitBetween)),
		Category:     string(e.Category),
		Date:         e.Date,
		Notes:        e.Notes,
		CreatedAt:    e.CreatedAt,
	}
	for i, s := range e.SplitBetween {
		out.SplitBetween[i] = Split{UserID: s.UserID, Share: s.Share, ShareType: string(s.ShareType), IsPaid: s.IsPaid}
	}
	return out
}

func paymentMessage(p *models.Payment) Payment {
	return Payment{
		ID:          p.ID,
		GroupID:     p.GroupID,
		PaidBy:      p.PaidBy,
		PaidTo:      p.PaidTo,
		Amount:      p.Amount,
		Description: p.Description,
		Date:        p.Date,
	}
}

func userMessage(u *models.User) User {
	return User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

func expenseInput(req *CreateExpenseRequest) ledger.ExpenseInput {
	splits := make([]calculator.ShareInput, len(req.SplitBetween))
	for i, s := range req.SplitBetween {
		splits[i] = calculator.ShareInput{UserID: s.UserID, Share: s.Share, ShareType: models.ShareType(s.ShareType)}
	}
	return ledger.ExpenseInput{
		GroupID:     req.GroupID,
		Description: req.Description,
		Amount:      req.Amount,
		Splits:      splits,
		Category:    models.ExpenseCategory(req.Category),
		Date:        req.Date,
		Notes:       req.Notes,
	}
}

func mapSlice[T, M any](in []T, f func(T) M) []M {
	out := make([]M, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
