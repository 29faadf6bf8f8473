package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"codecollab/internal/common"
	"codecollab/internal/domain/model"
)

// ProjectRepository persists the Project aggregate. Files and collaborators
// live inside the project row as JSONB, so a single Update writes the whole
// document and the row is the unit of atomicity.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, id string) (*model.Project, error)
	// ListByUserID returns projects the user owns or collaborates on,
	// newest first.
	ListByUserID(ctx context.Context, userID string) ([]*model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
}

type pgProjectRepository struct {
	db *sql.DB
}

func NewPgProjectRepository(db *sql.DB) ProjectRepository {
	return &pgProjectRepository{db: db}
}

func (r *pgProjectRepository) Create(ctx context.Context, project *model.Project) error {
	files, collaborators, err := marshalEmbedded(project)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Create: %w", err)
	}
	query := `INSERT INTO projects (id, name, slug, description, owner_id, is_public, files, collaborators)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.Slug, project.Description,
		project.OwnerID, project.IsPublic, files, collaborators,
	)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	query := `SELECT id, name, slug, description, owner_id, is_public, files, collaborators, created_at, updated_at
	          FROM projects WHERE id = $1`
	return scanProject(r.db.QueryRowContext(ctx, query, id))
}

func (r *pgProjectRepository) ListByUserID(ctx context.Context, userID string) ([]*model.Project, error) {
	// Collaborator membership is a JSONB array containment check on the
	// embedded records.
	query := `SELECT id, name, slug, description, owner_id, is_public, files, collaborators, created_at, updated_at
	          FROM projects
	          WHERE owner_id = $1
	             OR collaborators @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
	          ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgProjectRepository.ListByUserID: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProjectRepository.ListByUserID: %w", err)
	}
	return projects, nil
}

func (r *pgProjectRepository) Update(ctx context.Context, project *model.Project) error {
	files, collaborators, err := marshalEmbedded(project)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Update: %w", err)
	}
	query := `UPDATE projects
	          SET name = $2, description = $3, is_public = $4, files = $5, collaborators = $6, updated_at = now()
	          WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.Description, project.IsPublic, files, collaborators,
	)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	p := &model.Project{}
	var files, collaborators []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.OwnerID, &p.IsPublic,
		&files, &collaborators, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("scanProject: %w", err)
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &p.Files); err != nil {
			return nil, fmt.Errorf("scanProject: decode files: %w", err)
		}
	}
	if len(collaborators) > 0 {
		if err := json.Unmarshal(collaborators, &p.Collaborators); err != nil {
			return nil, fmt.Errorf("scanProject: decode collaborators: %w", err)
		}
	}
	return p, nil
}

func marshalEmbedded(p *model.Project) (files, collaborators []byte, err error) {
	if p.Files == nil {
		p.Files = []model.File{}
	}
	if p.Collaborators == nil {
		p.Collaborators = []model.Collaborator{}
	}
	files, err = json.Marshal(p.Files)
	if err != nil {
		return nil, nil, fmt.Errorf("encode files: %w", err)
	}
	collaborators, err = json.Marshal(p.Collaborators)
	if err != nil {
		return nil, nil, fmt.Errorf("encode collaborators: %w", err)
	}
	return files, collaborators, nil
}
