package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/markdown"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/repository"
	"github.com/sakif/readme-widgets/internal/widget"
)

const (
	MaxProjectNameLength = 100
	MaxBlocks            = 200
	MaxBlockContent      = 100000 // ~100KB of markdown per block
	MaxWidgetParams      = 64
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// ProjectService manages saved README projects.
//
// OWNERSHIP:
// Every mutating method takes the caller's id (the token subject). A project
// created by a caller belongs to them; anyone else gets ErrForbidden. Projects
// created without a caller id (auth disabled) are open to everyone.
type ProjectService struct {
	repo    repository.ProjectRepository
	baseURL string
	logger  *slog.Logger
}

func NewProjectService(repo repository.ProjectRepository, baseURL string, logger *slog.Logger) *ProjectService {
	return &ProjectService{repo: repo, baseURL: baseURL, logger: logger}
}

// Create validates and saves a new project owned by owner.
func (s *ProjectService) Create(ctx context.Context, name string, blocks []model.Block, owner string) (*model.Project, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if err := validateBlocks(blocks); err != nil {
		return nil, err
	}

	project := &model.Project{Name: name, Owner: owner, Blocks: blocks}
	if err := s.repo.Create(ctx, project); err != nil {
		s.logger.Error("failed to create project",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.String("id", project.ID),
		slog.Int("blocks", len(project.Blocks)),
	)
	return project, nil
}

func (s *ProjectService) GetByID(ctx context.Context, id string) (*model.Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "project ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List clamps limit to [1, MaxListLimit] and offset to >= 0.
func (s *ProjectService) List(ctx context.Context, limit, offset int) ([]model.Project, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)

	projects, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list projects", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Update replaces a project's name (when non-empty) and blocks.
func (s *ProjectService) Update(ctx context.Context, id, name string, blocks []model.Block, caller string) (*model.Project, error) {
	project, err := s.owned(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) != "" {
		if project.Name, err = validateName(name); err != nil {
			return nil, err
		}
	}
	if err := validateBlocks(blocks); err != nil {
		return nil, err
	}
	project.Blocks = blocks

	if err := s.repo.Update(ctx, project); err != nil {
		s.logger.Error("failed to update project",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating project: %w", err)
	}

	s.logger.Info("project updated", slog.String("id", project.ID))
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, id, caller string) error {
	if _, err := s.owned(ctx, id, caller); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("project deleted", slog.String("id", id))
	return nil
}

// Assemble renders the project as README markdown. Markdown blocks are copied
// verbatim; widget blocks are normalized and emitted as image references.
func (s *ProjectService) Assemble(ctx context.Context, id string) (string, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return AssembleBlocks(s.baseURL, project.Blocks)
}

// AssembleBlocks joins blocks into a README, one blank line between blocks.
func AssembleBlocks(baseURL string, blocks []model.Block) (string, error) {
	parts := make([]string, 0, len(blocks))
	for i, b := range blocks {
		switch b.Kind {
		case model.BlockMarkdown:
			if content := strings.TrimRight(b.Content, "\n"); content != "" {
				parts = append(parts, content)
			}
		case model.BlockWidget:
			cfg, err := blockConfig(b)
			if err != nil {
				return "", fmt.Errorf("block %d: %w", i, err)
			}
			alt := b.Widget.Alt
			if alt == "" {
				alt = markdown.Alt(cfg)
			}
			parts = append(parts, markdown.ImageRef(alt, markdown.WidgetURL(baseURL, cfg), ""))
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

// owned loads id and checks that caller may modify it.
func (s *ProjectService) owned(ctx context.Context, id, caller string) (*model.Project, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.Owner != "" && project.Owner != caller {
		return nil, apperror.Forbidden("you do not own this project")
	}
	return project, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "project name is required")
	}
	if len(name) > MaxProjectNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("project name must be %d characters or less", MaxProjectNameLength))
	}
	return name, nil
}

func validateBlocks(blocks []model.Block) error {
	if len(blocks) > MaxBlocks {
		return apperror.ValidationFailed("blocks", fmt.Sprintf("a project holds at most %d blocks", MaxBlocks))
	}
	for i, b := range blocks {
		switch b.Kind {
		case model.BlockMarkdown:
			if len(b.Content) > MaxBlockContent {
				return apperror.ValidationFailed("blocks",
					fmt.Sprintf("block %d: content must be %d characters or less", i, MaxBlockContent))
			}
		case model.BlockWidget:
			if _, err := blockConfig(b); err != nil {
				return apperror.ValidationFailed("blocks", fmt.Sprintf("block %d: %s", i, apperror.UserMessage(err)))
			}
			if len(b.Widget.Params) > MaxWidgetParams {
				return apperror.ValidationFailed("blocks", fmt.Sprintf("block %d: too many widget parameters", i))
			}
		default:
			return apperror.ValidationFailed("blocks", fmt.Sprintf("block %d: unknown kind %q", i, b.Kind))
		}
	}
	return nil
}

func blockConfig(b model.Block) (widget.Config, error) {
	if b.Widget == nil {
		return nil, apperror.ValidationFailed("widget", "widget block has no widget")
	}
	t, ok := widget.ParseType(b.Widget.Type)
	if !ok {
		return nil, apperror.ValidationFailed("widget", fmt.Sprintf("unknown widget type %q", b.Widget.Type))
	}
	return widget.MustNormalize(t, b.Widget.Params), nil
}
