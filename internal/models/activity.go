package models

import "github.com/shopspring/decimal"

// ActivityType names an audit event.
type ActivityType string

const (
	ActivityGroupCreate   ActivityType = "GROUP_CREATE"
	ActivityGroupUpdate   ActivityType = "GROUP_UPDATE"
	ActivityGroupDelete   ActivityType = "GROUP_DELETE"
	ActivityMemberAdd     ActivityType = "MEMBER_ADD"
	ActivityMemberRemove  ActivityType = "MEMBER_REMOVE"
	ActivityExpenseAdd    ActivityType = "EXPENSE_ADD"
	ActivityExpenseUpdate ActivityType = "EXPENSE_UPDATE"
	ActivityExpenseDelete ActivityType = "EXPENSE_DELETE"
	ActivityPaymentMade   ActivityType = "PAYMENT_MADE"
	ActivityPaymentDelete ActivityType = "PAYMENT_DELETE"
	ActivityBalanceSettle ActivityType = "BALANCE_SETTLE"
)

// Activity is a structured audit event emitted by ledger operations.
// Optional references are empty strings when not applicable.
type Activity struct {
	ID          string           `json:"id"`
	Type        ActivityType     `json:"type"`
	ActorID     string           `json:"actor"`
	GroupID     string           `json:"group,omitempty"`
	TargetID    string           `json:"target,omitempty"`
	ExpenseID   string           `json:"expense,omitempty"`
	PaymentID   string           `json:"payment,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description string           `json:"description"`
	CreatedAt   int64            `json:"created_at"`
}
