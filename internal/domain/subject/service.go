package subject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/repository"
)

// Service handles subject operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new subject service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines subject creation inputs.
type CreateRequest struct {
	ID            string
	Category      catalog.Category
	FullName      string
	PreferredName string
	DateOfBirth   string
	Address       string
}

// Create creates a new subject.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Subject, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, req.Category)
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	subj := &Subject{
		ID:            id,
		TenantID:      tenantID,
		Category:      req.Category,
		FullName:      strings.TrimSpace(req.FullName),
		PreferredName: req.PreferredName,
		DateOfBirth:   req.DateOfBirth,
		Address:       req.Address,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.Create(ctx, tenantID, subj); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: subject %s already exists", ErrInvalidInput, id)
		}
		return nil, fmt.Errorf("creating subject: %w", err)
	}

	return subj, nil
}

// Get fetches a subject by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Subject, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	subj, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("getting subject: %w", err)
	}
	return subj, nil
}

// GetProfile returns the profile of a subject.
func (s *Service) GetProfile(ctx context.Context, tenantID, id string) (*careplan.SubjectProfile, error) {
	subj, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	profile := subj.Profile()
	return &profile, nil
}

// List returns subjects.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]Subject, error) {
	if opts.Category != "" && !opts.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, opts.Category)
	}
	return s.repo.List(ctx, tenantID, opts)
}
