package domain

import "context"

// RelayNumberRepository reads the local number inventory and carries the one
// narrow mutation the remediation path is allowed to make.
type RelayNumberRepository interface {
	// ListNumbers returns the full local number snapshot. No filtering;
	// reconciliation always works on a complete point-in-time view.
	ListNumbers(ctx context.Context) ([]RelayNumber, error)
	// ClearServiceLink removes a number's local service link. Used only to
	// drop links whose service no longer exists at the provider.
	ClearServiceLink(ctx context.Context, number string) error
}

// MessagingServiceRepository reads the local messaging service records.
type MessagingServiceRepository interface {
	ListServices(ctx context.Context) ([]MessagingService, error)
}

// RemoteInventory is the provider-side view. Implementations must resolve
// service memberships and compliance fields at fetch time and must fail the
// whole listing on any transport error; partial snapshots are worse than none.
type RemoteInventory interface {
	ListNumbers(ctx context.Context) ([]RemoteNumber, error)
	ListServices(ctx context.Context) ([]RemoteService, error)
}
