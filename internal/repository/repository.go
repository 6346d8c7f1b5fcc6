// Package repository declares the storage interfaces the service layer depends on.
// Implementations live in subpackages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/readme-widgets/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// ProjectRepository stores README projects. Missing ids are reported as
// apperror.ErrNotFound.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, opts ListOptions) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
}
