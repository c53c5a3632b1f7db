package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Visibility controls whether a project shows up in unauthenticated
// listings.
const (
	VisibilityPublic       = "public"
	VisibilityConfidential = "confidential"
)

// Project is one registered knowledge collection, identified by its unique
// code and backed by a filesystem path.
type Project struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	BasePath    string     `json:"basePath"`
	DomainTags  []string   `json:"domainTags"`
	Description string     `json:"description,omitempty"`
	Visibility  string     `json:"visibility"`
	LastSyncAt  *time.Time `json:"lastSyncAt,omitempty"`
}

// Upsert carries the writable project fields for create and update.
type Upsert struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	BasePath    string   `json:"basePath"`
	DomainTags  []string `json:"domainTags"`
	Description string   `json:"description"`
	Visibility  string   `json:"visibility"`
}

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, p *Project) error
	Update(ctx context.Context, p *Project) (bool, error)
	DeleteByCode(ctx context.Context, code string) error
	Count(ctx context.Context) (int, error)
}

// ErrDuplicateCode is returned when creating a project whose code is taken.
var ErrDuplicateCode = errors.New("project code already exists")

// InvalidFieldError names a missing required field.
type InvalidFieldError struct {
	Field string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s must not be blank", e.Field)
}

// Service implements the project registry operations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByCode resolves a project. Returns (nil, nil) when the code is
// unknown.
func (s *Service) GetByCode(ctx context.Context, code string) (*Project, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// List returns projects sorted by code. Confidential projects are excluded
// unless includeConfidential is set.
func (s *Service) List(ctx context.Context, includeConfidential bool) ([]Project, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(all))
	for _, p := range all {
		if !includeConfidential && p.Visibility == VisibilityConfidential {
			continue
		}
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Code < projects[j].Code })
	return projects, nil
}

// Create registers a new project. Codes are unique; visibility defaults to
// public.
func (s *Service) Create(ctx context.Context, up Upsert) (*Project, error) {
	if err := validateUpsert(up, true); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCode(ctx, up.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, up.Code)
	}

	p := fromUpsert(up)
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the writable fields of the project identified by code.
// Returns (nil, nil) when the code is unknown.
func (s *Service) Update(ctx context.Context, code string, up Upsert) (*Project, error) {
	if err := validateUpsert(up, false); err != nil {
		return nil, err
	}

	existing, err := s.GetByCode(ctx, code)
	if err != nil || existing == nil {
		return nil, err
	}

	p := fromUpsert(up)
	p.ID = existing.ID
	p.Code = code
	p.LastSyncAt = existing.LastSyncAt

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, nil
	}
	return p, nil
}

// Delete removes a project by code. Deleting an unknown code is a no-op.
func (s *Service) Delete(ctx context.Context, code string) error {
	return s.repo.DeleteByCode(ctx, code)
}

// Count reports how many projects are registered.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func validateUpsert(up Upsert, requireCode bool) error {
	if requireCode && strings.TrimSpace(up.Code) == "" {
		return &InvalidFieldError{Field: "code"}
	}
	if strings.TrimSpace(up.Name) == "" {
		return &InvalidFieldError{Field: "name"}
	}
	if strings.TrimSpace(up.BasePath) == "" {
		return &InvalidFieldError{Field: "basePath"}
	}
	return nil
}

func fromUpsert(up Upsert) *Project {
	visibility := up.Visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}
	tags := up.DomainTags
	if tags == nil {
		tags = []string{}
	}
	return &Project{
		Code:        up.Code,
		Name:        up.Name,
		BasePath:    up.BasePath,
		DomainTags:  tags,
		Description: up.Description,
		Visibility:  visibility,
	}
}
