// Package events delivers ledger activity to the audit log and to other
// subscribers. Delivery is best effort: callers log emitter errors and carry on.
package events

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// Emitter receives one activity per committed ledger change.
type Emitter interface {
	Emit(ctx context.Context, activity models.Activity) error
}

// ActivityWriter is the part of storage.Store a StoreRecorder needs.
type ActivityWriter interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
}

// StoreRecorder writes activities to the activity log table.
type StoreRecorder struct {
	store ActivityWriter
}

// NewStoreRecorder creates a recorder backed by store.
func NewStoreRecorder(store ActivityWriter) *StoreRecorder {
	return &StoreRecorder{store: store}
}

// Emit persists the activity.
func (r *StoreRecorder) Emit(ctx context.Context, activity models.Activity) error {
	return r.store.CreateActivity(ctx, &activity)
}

// Multi fans an activity out to every emitter. All emitters are tried; their
// errors are joined.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, activity models.Activity) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, activity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every activity.
type Discard struct{}

func (Discard) Emit(context.Context, models.Activity) error { return nil }
