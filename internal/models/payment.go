package models

import "github.com/shopspring/decimal"

// DefaultPaymentDescription is used when a payment is recorded without one.
const DefaultPaymentDescription = "Balance settlement"

// Payment is a direct transfer between two members that settles part of
// their balances.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group whose balances the payment moves.
	GroupID string

	// PaidBy is the member who paid (debtor settling up).
	PaidBy string

	// PaidTo is the member who received the money (creditor being paid).
	PaidTo string

	// Amount is the transferred amount. Always positive.
	Amount decimal.Decimal

	// Description defaults to DefaultPaymentDescription.
	Description string

	// Date is the Unix timestamp when the payment was made.
	Date int64
}

// Involves reports whether userID sent or received the payment.
func (p *Payment) Involves(userID string) bool {
	return p.PaidBy == userID || p.PaidTo == userID
}
