package subject

import "context"

// Repository provides persistence for subjects.
type Repository interface {
	Create(ctx context.Context, tenantID string, subj *Subject) error
	Get(ctx context.Context, tenantID, id string) (*Subject, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]Subject, error)
}
