package reconcile

import (
	"context"
	"fmt"

	"ioc-sync/core/indicator"
)

// Lister reads one page of managed records from the remote inventory.
type Lister interface {
	// ListIndicators returns the records matching filter, starting at the
	// pagination cursor after. An empty returned cursor marks the last page.
	ListIndicators(ctx context.Context, filter, after string, limit int) (Page, error)
}

// Mutator submits batched changes to the remote inventory.
// Per-item failures are returned in the response; a non-nil error means the
// call as a whole failed.
type Mutator interface {
	CreateIndicators(ctx context.Context, records []indicator.Record, opts MutationOptions) (BatchResponse, error)
	UpdateIndicators(ctx context.Context, records []indicator.Record, opts MutationOptions) (BatchResponse, error)
	DeleteIndicators(ctx context.Context, ids []string) (BatchResponse, error)
}

// Store is the full remote inventory contract used by a write run.
type Store interface {
	Lister
	Mutator
}

// Page is one page of a listing.
type Page struct {
	Records []RemoteRecord
	After   string
}

// MutationOptions are passed verbatim to create and update calls.
type MutationOptions struct {
	Comment        string
	Retrodetects   bool
	IgnoreWarnings bool
}

// BatchResponse carries the per-item errors of a batch call.
type BatchResponse struct {
	Errors []ItemError
}

// ItemError is one per-item failure reported by the remote inventory.
type ItemError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func (e ItemError) String() string {
	if e.ID != "" {
		return fmt.Sprintf("%d %s (%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}
