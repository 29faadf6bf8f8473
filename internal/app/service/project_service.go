package service

import (
	"context"
	"errors"
	"time"

	"codecollab/internal/common"
	"codecollab/internal/domain/model"
	"codecollab/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/samber/lo"
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

type SaveFileRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

type CollaboratorRequest struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// CollaboratorDetail joins a collaborator record with the user behind it.
type CollaboratorDetail struct {
	UserID   string     `json:"user_id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

type ProjectSummary struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description"`
	OwnerID           string    `json:"owner_id"`
	IsPublic          bool      `json:"is_public"`
	FileCount         int       `json:"file_count"`
	CollaboratorCount int       `json:"collaborator_count"`
	CreatedAt         time.Time `json:"created_at"`
}

func (s *ProjectService) CreateProject(ctx context.Context, ownerID string, req CreateProjectRequest) (*model.Project, error) {
	if req.Name == "" {
		return nil, common.Errorf("project name is required: %w", common.ErrBadRequest)
	}

	now := s.now().UTC()
	project := &model.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		OwnerID:     ownerID,
		IsPublic:    req.IsPublic,
		// New projects start with one seeded file; file create/delete is not
		// part of the editing surface.
		Files: []model.File{{
			Name:         "main.js",
			Content:      "// Welcome to your new project!\nconsole.log(\"Hello, World!\");",
			Language:     "javascript",
			LastModified: now,
		}},
		Collaborators: []model.Collaborator{},
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, common.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]ProjectSummary, error) {
	projects, err := s.projectRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, common.Errorf("failed to list projects: %w", err)
	}
	return lo.Map(projects, func(p *model.Project, _ int) ProjectSummary {
		return ProjectSummary{
			ID:                p.ID,
			Name:              p.Name,
			Slug:              p.Slug,
			Description:       p.Description,
			OwnerID:           p.OwnerID,
			IsPublic:          p.IsPublic,
			FileCount:         len(p.Files),
			CollaboratorCount: len(p.Collaborators),
			CreatedAt:         p.CreatedAt,
		}
	}), nil
}

func (s *ProjectService) GetProject(ctx context.Context, userID, projectID string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasAccess(userID) {
		return nil, common.Errorf("access denied: %w", common.ErrForbidden)
	}
	return project, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, userID, projectID string, req UpdateProjectRequest) (*model.Project, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.IsPublic != nil {
		project.IsPublic = *req.IsPublic
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, common.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID string) error {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return err
	}
	return s.projectRepo.Delete(ctx, projectID)
}

// SaveFile replaces the content of one project file. Editor-or-owner only;
// concurrent edits are last-writer-wins at file-content granularity.
func (s *ProjectService) SaveFile(ctx context.Context, userID, projectID string, req SaveFileRequest) (*model.Project, error) {
	if req.Name == "" {
		return nil, common.Errorf("file name is required: %w", common.ErrBadRequest)
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanEdit(userID) {
		return nil, common.Errorf("editor role required to modify files: %w", common.ErrForbidden)
	}
	if !project.UpdateFile(req.Name, req.Content, req.Language, userID, s.now().UTC()) {
		return nil, common.Errorf("file %q not found: %w", req.Name, common.ErrNotFound)
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, common.Errorf("failed to save file: %w", err)
	}
	return project, nil
}

// AddCollaborator grants an existing user a role on the project, or updates
// the role when the user is already present. Owner-only at the handler gate;
// the aggregate mutator itself is plain data manipulation.
func (s *ProjectService) AddCollaborator(ctx context.Context, ownerID, projectID string, req CollaboratorRequest) (*model.Project, error) {
	if !model.ValidCollaboratorRole(req.Role) {
		return nil, common.Errorf("role must be editor or viewer: %w", common.ErrValidation)
	}

	project, err := s.ownedProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("no registered user with email %s: %w", req.Email, common.ErrNotFound)
		}
		return nil, err
	}
	if project.IsOwner(user.ID) {
		return nil, common.Errorf("the owner cannot be added as a collaborator: %w", common.ErrValidation)
	}

	if project.AddCollaborator(user.ID, req.Role, s.now().UTC()) {
		if err := s.projectRepo.Update(ctx, project); err != nil {
			return nil, common.Errorf("failed to add collaborator: %w", err)
		}
	}
	return project, nil
}

func (s *ProjectService) RemoveCollaborator(ctx context.Context, ownerID, projectID, email string) (*model.Project, error) {
	project, err := s.ownedProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !project.RemoveCollaborator(user.ID) {
		return nil, common.Errorf("user is not a collaborator: %w", common.ErrNotFound)
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, common.Errorf("failed to remove collaborator: %w", err)
	}
	return project, nil
}

func (s *ProjectService) UpdateCollaboratorRole(ctx context.Context, ownerID, projectID string, req CollaboratorRequest) (*model.Project, error) {
	if !model.ValidCollaboratorRole(req.Role) {
		return nil, common.Errorf("role must be editor or viewer: %w", common.ErrValidation)
	}

	project, err := s.ownedProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	changed, found := project.UpdateCollaboratorRole(user.ID, req.Role)
	if !found {
		return nil, common.Errorf("user is not a collaborator: %w", common.ErrNotFound)
	}
	if changed {
		if err := s.projectRepo.Update(ctx, project); err != nil {
			return nil, common.Errorf("failed to update collaborator role: %w", err)
		}
	}
	return project, nil
}

// ListCollaborators resolves the collaborator records to user details for any
// project member.
func (s *ProjectService) ListCollaborators(ctx context.Context, userID, projectID string) ([]CollaboratorDetail, error) {
	project, err := s.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	details := make([]CollaboratorDetail, 0, len(project.Collaborators))
	for _, c := range project.Collaborators {
		detail := CollaboratorDetail{UserID: c.UserID, Role: c.Role, JoinedAt: c.JoinedAt}
		// Dangling references (a deleted user) still produce a row; the
		// access model tolerates them, so listings do too.
		if u, err := s.userRepo.FindByID(ctx, c.UserID); err == nil {
			detail.Name = u.Name
			detail.Email = u.Email
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *ProjectService) ownedProject(ctx context.Context, userID, projectID string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(userID) {
		return nil, common.Errorf("only the project owner may do this: %w", common.ErrForbidden)
	}
	return project, nil
}
