package ledger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// PaymentInput describes a direct payment from the caller to PaidTo.
type PaymentInput struct {
	GroupID string
	PaidTo  string
	Amount  decimal.Decimal
	// Description defaults to models.DefaultPaymentDescription.
	Description string
	// Date defaults to now.
	Date int64
}

// CreatePayment records a payment from payer to in.PaidTo:
// payer.balance += amount, paidTo.balance -= amount.
func (l *Ledger) CreatePayment(ctx context.Context, payer string, in PaymentInput) (payment *models.Payment, err error) {
	defer func() { observe("create_payment", err) }()

	amount := calculator.Round2(in.Amount)
	if !amount.IsPositive() {
		return nil, invalid("amount must be positive, got %s", in.Amount)
	}
	if in.PaidTo == "" {
		return nil, invalid("recipient is required")
	}
	if in.PaidTo == payer {
		return nil, invalid("cannot pay yourself")
	}

	unlock := l.locks.lock(in.GroupID)
	defer unlock()

	current, err := l.loadGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if !current.IsMember(payer) {
		return nil, unauthorized("user %s is not a member of group %s", payer, in.GroupID)
	}
	if !current.IsMember(in.PaidTo) {
		return nil, notFound("recipient %s is not a member of group %s", in.PaidTo, in.GroupID)
	}

	members, err := calculator.ApplyDeltas(current.Members, calculator.PaymentDeltas(payer, in.PaidTo, amount))
	if err != nil {
		return nil, classify(err)
	}

	payment = &models.Payment{
		ID:          uuid.New().String(),
		GroupID:     in.GroupID,
		PaidBy:      payer,
		PaidTo:      in.PaidTo,
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
	}
	if payment.Description == "" {
		payment.Description = models.DefaultPaymentDescription
	}
	if payment.Date == 0 {
		payment.Date = l.now().Unix()
	}

	group := current.Clone()
	group.Members = members
	if err := l.commit(ctx, storage.Mutation{Group: group, PutPayment: payment}); err != nil {
		return nil, err
	}
	checkZeroSum(group)

	slog.Info("Payment created",
		"payment_id", payment.ID,
		"group_id", group.ID,
		"amount", amount.String(),
	)

	activities := []models.Activity{{
		Type:        models.ActivityPaymentMade,
		ActorID:     payer,
		GroupID:     group.ID,
		TargetID:    in.PaidTo,
		PaymentID:   payment.ID,
		Amount:      &amount,
		Description: "made a payment of " + amount.StringFixed(2),
	}}
	if settled(group.Members) {
		activities = append(activities, models.Activity{
			Type:        models.ActivityBalanceSettle,
			ActorID:     payer,
			GroupID:     group.ID,
			PaymentID:   payment.ID,
			Description: "all balances in " + group.Name + " are settled",
		})
	}
	l.emit(ctx, activities...)

	return payment, nil
}

// DeletePayment deletes a payment and reverses its two-party delta. Only the
// payer may delete a payment.
func (l *Ledger) DeletePayment(ctx context.Context, paymentID, requester string) (err error) {
	defer func() { observe("delete_payment", err) }()

	payment, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return classify(err)
	}
	if payment.PaidBy != requester {
		return unauthorized("only the payer can delete payment %s", paymentID)
	}

	unlock := l.locks.lock(payment.GroupID)
	defer unlock()

	current, err := l.loadGroup(ctx, payment.GroupID)
	if err != nil {
		return err
	}

	reverse := calculator.PaymentDeltas(payment.PaidBy, payment.PaidTo, payment.Amount).Negate()
	members, err := calculator.ApplyDeltas(current.Members, reverse)
	if err != nil {
		return classify(err)
	}

	group := current.Clone()
	group.Members = members
	if err := l.commit(ctx, storage.Mutation{Group: group, DeletePaymentID: paymentID}); err != nil {
		return err
	}

	slog.Info("Payment deleted", "payment_id", paymentID, "group_id", group.ID)
	amount := payment.Amount
	l.emit(ctx, models.Activity{
		Type:        models.ActivityPaymentDelete,
		ActorID:     requester,
		GroupID:     group.ID,
		TargetID:    payment.PaidTo,
		PaymentID:   paymentID,
		Amount:      &amount,
		Description: "deleted a payment of " + amount.StringFixed(2),
	})
	return nil
}

// GetPayment returns a payment to its payer or recipient.
func (l *Ledger) GetPayment(ctx context.Context, paymentID, requester string) (*models.Payment, error) {
	payment, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, classify(err)
	}
	if !payment.Involves(requester) {
		return nil, unauthorized("payment %s does not involve user %s", paymentID, requester)
	}
	return payment, nil
}

// ListGroupPayments returns the group's payments, newest first.
func (l *Ledger) ListGroupPayments(ctx context.Context, groupID, requester string) ([]*models.Payment, error) {
	if _, err := l.GetGroup(ctx, groupID, requester); err != nil {
		return nil, err
	}
	payments, err := l.store.ListPaymentsByGroup(ctx, groupID)
	if err != nil {
		return nil, classify(err)
	}
	return payments, nil
}

// ListUserPayments returns payments userID sent or received, newest first.
func (l *Ledger) ListUserPayments(ctx context.Context, userID string) ([]*models.Payment, error) {
	payments, err := l.store.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return payments, nil
}

func settled(members []models.Member) bool {
	for _, m := range members {
		if !m.Balance.IsZero() {
			return false
		}
	}
	return true
}
