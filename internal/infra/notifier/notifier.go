// Package notifier announces newly published essays.
// It defines the Notifier interface so that webhook targets (Discord, Slack) can be
// combined or disabled through dependency injection.
//
// A notification is sent only after the archive and feed are committed, so a
// failing notifier never undoes a publish.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"itoi-daily/internal/domain/entity"
)

// Notifier sends a notification about a newly published entry.
// Implementations handle rate limiting, retries, and logging internally.
type Notifier interface {
	// Name identifies the notification target in logs and errors.
	Name() string

	// NotifyEntry announces entry. It returns a non-nil error only after every
	// retry attempt failed.
	NotifyEntry(ctx context.Context, entry entity.Entry) error
}

// Multi fans a notification out to several notifiers concurrently.
type Multi struct {
	notifiers []Notifier
}

// NewMulti combines notifiers. With no notifiers it returns a NoOpNotifier.
func NewMulti(notifiers ...Notifier) Notifier {
	if len(notifiers) == 0 {
		return NewNoOpNotifier()
	}
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return &Multi{notifiers: notifiers}
}

// Name implements Notifier.
func (m *Multi) Name() string { return "multi" }

// NotifyEntry sends to every target and joins their errors.
// One failing target does not stop the others.
func (m *Multi) NotifyEntry(ctx context.Context, entry entity.Entry) error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	for _, n := range m.notifiers {
		g.Go(func() error {
			if err := n.NotifyEntry(ctx, entry); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
