// Package models defines the core domain models for the shared-expense ledger.
//
// # Ownership
//
// A Group owns the authoritative balance vector: one Member entry per user with
// a signed running balance. Expense and Payment records are history; balances are
// maintained incrementally on the Group when those records are created or deleted,
// and can always be recomputed from them as a consistency check.
//
// # Sign convention
//
// A positive Member.Balance means the group owes that member money (net creditor).
// A negative balance means the member owes the group (net debtor). The balances of
// a group always sum to zero within rounding tolerance.
//
// # Money
//
// All amounts are decimal.Decimal values rounded to cents. Floating point is not
// used for ledger state, so applying and then reversing a record restores every
// balance exactly.
//
// # Relationships
//
// Models refer to each other by ID strings, never by pointer.
package models
