package notifier

import (
	"context"

	"inkwell/internal/config"
	"inkwell/internal/domain/entity"
)

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when announcements are disabled to avoid null checks in the code.
// This follows the Null Object pattern.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyEntry does nothing and returns nil immediately.
// This allows announcements to be disabled without changing the code flow.
func (n *NoOpNotifier) NotifyEntry(ctx context.Context, entry *entity.Entry, site *config.SiteConfig) error {
	// No-op: intentionally does nothing
	return nil
}
