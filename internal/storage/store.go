// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleWrite is returned by Commit when the group changed since it was read.
	ErrStaleWrite = errors.New("group was modified concurrently")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("record already exists")
)

// Mutation is everything one ledger operation writes. A store applies it in a
// single transaction: either all of it becomes visible or none of it does.
type Mutation struct {
	// Group is written back as-is: members with balances, total expenses and
	// metadata. Group.Version must equal the stored version; the store bumps it.
	Group *models.Group

	// At most one of the following is set.
	PutExpense      *models.Expense
	DeleteExpenseID string
	PutPayment      *models.Payment
	DeletePaymentID string
}

// ActivityFilter selects the activities visible to a user: those the user
// acted in or was targeted by, plus everything in the listed groups.
type ActivityFilter struct {
	UserID   string
	GroupIDs []string
	Offset   int
	Limit    int
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger.
type Store interface {
	// CreateGroup persists a new group with its members.
	// Empty ID and CreatedAt are filled in by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with members and expense IDs.
	// Returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember returns every group userID currently belongs to.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// DeleteGroup removes a group together with its expenses and payments.
	DeleteGroup(ctx context.Context, groupID string) error

	// Commit atomically applies a mutation. Returns ErrStaleWrite if the group
	// version moved since the group was read.
	Commit(ctx context.Context, m Mutation) error

	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	// ListExpensesByUser returns expenses the user paid for or takes part in, newest first.
	ListExpensesByUser(ctx context.Context, userID string) ([]*models.Expense, error)

	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error)
	// ListPaymentsByUser returns payments the user sent or received, newest first.
	ListPaymentsByUser(ctx context.Context, userID string) ([]*models.Payment, error)

	// MemberReferences counts the expenses (as payer or participant) and
	// payments (as sender or recipient) that reference userID in groupID.
	MemberReferences(ctx context.Context, groupID, userID string) (expenses, payments int, err error)

	CreateActivity(ctx context.Context, activity *models.Activity) error
	// ListActivities returns one page of matching activities, newest first,
	// and the total number of matches.
	ListActivities(ctx context.Context, filter ActivityFilter) ([]*models.Activity, int, error)

	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail and GetUserByID return ErrNotFound for unknown users.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
