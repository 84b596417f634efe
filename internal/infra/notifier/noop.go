package notifier

import (
	"context"

	"itoi-daily/internal/domain/entity"
)

// NoOpNotifier is used when notifications are disabled, so callers need no nil checks.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Name implements Notifier.
func (n *NoOpNotifier) Name() string { return "noop" }

// NotifyEntry does nothing.
func (n *NoOpNotifier) NotifyEntry(context.Context, entity.Entry) error {
	return nil
}
