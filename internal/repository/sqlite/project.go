package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/repository"
)

var _ repository.ProjectRepository = (*DB)(nil)

const projectColumns = `id, name, owner, blocks, created_at, updated_at`

// Create assigns the project an xid and timestamps, then inserts it.
func (db *DB) Create(ctx context.Context, project *model.Project) error {
	blocks, err := encodeBlocks(project.Blocks)
	if err != nil {
		return err
	}

	project.ID = xid.New().String()
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.Name,
		project.Owner,
		blocks,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating project: %w", err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound when no project has id.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("project", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return p, nil
}

// List returns the most recently updated projects first.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Project, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 ORDER BY updated_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0, limit)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}
	return projects, nil
}

// Update replaces the name and blocks. Owner and CreatedAt never change.
func (db *DB) Update(ctx context.Context, project *model.Project) error {
	blocks, err := encodeBlocks(project.Blocks)
	if err != nil {
		return err
	}
	project.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects SET name = ?, blocks = ?, updated_at = ? WHERE id = ?`,
		project.Name,
		blocks,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", project.ID, err)
	}
	return requireAffected(result, "project", project.ID)
}

func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}
	return requireAffected(result, "project", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*model.Project, error) {
	var (
		p      model.Project
		blocks string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Owner, &blocks, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(blocks), &p.Blocks); err != nil {
		return nil, fmt.Errorf("decoding blocks of project %s: %w", p.ID, err)
	}
	if p.Blocks == nil {
		p.Blocks = []model.Block{}
	}
	return &p, nil
}

func encodeBlocks(blocks []model.Block) (string, error) {
	if blocks == nil {
		blocks = []model.Block{}
	}
	b, err := json.Marshal(blocks)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding blocks: %w", err)
	}
	return string(b), nil
}

// requireAffected maps "no rows changed" to NotFound.
func requireAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
