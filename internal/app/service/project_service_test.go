package service

import (
	"context"
	"testing"
	"time"

	"codecollab/internal/common"
	"codecollab/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type projectFixture struct {
	svc      *ProjectService
	projects *memProjectRepo
	users    *memUserRepo
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()

	owner := &model.User{ID: "owner", Name: "Olive", Email: "owner@example.com"}
	editor := &model.User{ID: "ed", Name: "Ed", Email: "ed@example.com"}
	viewer := &model.User{ID: "view", Name: "Vi", Email: "vi@example.com"}
	outsider := &model.User{ID: "out", Name: "Out", Email: "out@example.com"}

	project := &model.Project{
		ID:      "p1",
		Name:    "demo",
		Slug:    "demo",
		OwnerID: "owner",
		Files: []model.File{
			{Name: "main.js", Content: "console.log(1)", Language: "javascript"},
		},
		Collaborators: []model.Collaborator{
			{UserID: "ed", Role: model.RoleEditor},
			{UserID: "view", Role: model.RoleViewer},
		},
	}

	f := &projectFixture{
		projects: newMemProjectRepo(project),
		users:    newMemUserRepo(owner, editor, viewer, outsider),
	}
	f.svc = NewProjectService(f.projects, f.users)
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestCreateProject(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProject(ctx, "owner", CreateProjectRequest{Name: "My New Project"})
	require.NoError(t, err)

	assert.Equal(t, "owner", p.OwnerID)
	assert.Equal(t, "my-new-project", p.Slug)
	require.Len(t, p.Files, 1)
	assert.Equal(t, "main.js", p.Files[0].Name)
	assert.Equal(t, "javascript", p.Files[0].Language)
	assert.Contains(t, p.Files[0].Content, "Hello, World!")
	assert.Empty(t, p.Collaborators)

	_, err = f.projects.FindByID(ctx, p.ID)
	assert.NoError(t, err)

	_, err = f.svc.CreateProject(ctx, "owner", CreateProjectRequest{})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestListProjects(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	summaries, err := f.svc.ListProjects(ctx, "ed")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "p1", summaries[0].ID)
	assert.Equal(t, 1, summaries[0].FileCount)
	assert.Equal(t, 2, summaries[0].CollaboratorCount)

	summaries, err = f.svc.ListProjects(ctx, "out")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestGetProjectAccess(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	for _, id := range []string{"owner", "ed", "view"} {
		_, err := f.svc.GetProject(ctx, id, "p1")
		assert.NoError(t, err, id)
	}

	_, err := f.svc.GetProject(ctx, "out", "p1")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.GetProject(ctx, "owner", "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateAndDeleteProjectOwnerOnly(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	name := "renamed"

	_, err := f.svc.UpdateProject(ctx, "ed", "p1", UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, common.ErrForbidden)

	p, err := f.svc.UpdateProject(ctx, "owner", "p1", UpdateProjectRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.Name)

	assert.ErrorIs(t, f.svc.DeleteProject(ctx, "view", "p1"), common.ErrForbidden)
	require.NoError(t, f.svc.DeleteProject(ctx, "owner", "p1"))
	_, err = f.projects.FindByID(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveFile(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	p, err := f.svc.SaveFile(ctx, "ed", "p1", SaveFileRequest{Name: "main.js", Content: "console.log(2)"})
	require.NoError(t, err)
	file, ok := p.FindFile("main.js")
	require.True(t, ok)
	assert.Equal(t, "console.log(2)", file.Content)
	assert.Equal(t, "ed", file.LastModifiedBy)

	stored, _ := f.projects.FindByID(ctx, "p1")
	sf, _ := stored.FindFile("main.js")
	assert.Equal(t, "console.log(2)", sf.Content)

	_, err = f.svc.SaveFile(ctx, "view", "p1", SaveFileRequest{Name: "main.js", Content: "x"})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.SaveFile(ctx, "ed", "p1", SaveFileRequest{Name: "missing.js", Content: "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.SaveFile(ctx, "ed", "p1", SaveFileRequest{Content: "x"})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestAddCollaborator(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	p, err := f.svc.AddCollaborator(ctx, "owner", "p1", CollaboratorRequest{Email: "out@example.com", Role: model.RoleViewer})
	require.NoError(t, err)
	role, ok := p.RoleOf("out")
	require.True(t, ok)
	assert.Equal(t, model.RoleViewer, role)

	// Re-adding with the same role is a no-op and skips the persistence write.
	writes := f.projects.updates
	_, err = f.svc.AddCollaborator(ctx, "owner", "p1", CollaboratorRequest{Email: "out@example.com", Role: model.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, writes, f.projects.updates)

	_, err = f.svc.AddCollaborator(ctx, "ed", "p1", CollaboratorRequest{Email: "out@example.com", Role: model.RoleViewer})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.AddCollaborator(ctx, "owner", "p1", CollaboratorRequest{Email: "nobody@example.com", Role: model.RoleViewer})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.AddCollaborator(ctx, "owner", "p1", CollaboratorRequest{Email: "owner@example.com", Role: model.RoleEditor})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.AddCollaborator(ctx, "owner", "p1", CollaboratorRequest{Email: "out@example.com", Role: model.RoleOwner})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRemoveCollaborator(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	p, err := f.svc.RemoveCollaborator(ctx, "owner", "p1", "ed@example.com")
	require.NoError(t, err)
	assert.False(t, p.HasAccess("ed"))

	stored, _ := f.projects.FindByID(ctx, "p1")
	assert.False(t, stored.HasAccess("ed"))

	_, err = f.svc.RemoveCollaborator(ctx, "owner", "p1", "out@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.RemoveCollaborator(ctx, "view", "p1", "vi@example.com")
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestUpdateCollaboratorRoleService(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	p, err := f.svc.UpdateCollaboratorRole(ctx, "owner", "p1", CollaboratorRequest{Email: "vi@example.com", Role: model.RoleEditor})
	require.NoError(t, err)
	role, _ := p.RoleOf("view")
	assert.Equal(t, model.RoleEditor, role)

	// Unchanged role resolves without a persistence write.
	writes := f.projects.updates
	_, err = f.svc.UpdateCollaboratorRole(ctx, "owner", "p1", CollaboratorRequest{Email: "vi@example.com", Role: model.RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, writes, f.projects.updates)

	_, err = f.svc.UpdateCollaboratorRole(ctx, "owner", "p1", CollaboratorRequest{Email: "out@example.com", Role: model.RoleEditor})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListCollaborators(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	details, err := f.svc.ListCollaborators(ctx, "view", "p1")
	require.NoError(t, err)
	require.Len(t, details, 2)

	byID := map[string]CollaboratorDetail{}
	for _, d := range details {
		byID[d.UserID] = d
	}
	assert.Equal(t, "ed@example.com", byID["ed"].Email)
	assert.Equal(t, model.RoleViewer, byID["view"].Role)

	// A collaborator whose user record is gone still shows up, just unnamed.
	stored, _ := f.projects.FindByID(ctx, "p1")
	stored.Collaborators = append(stored.Collaborators, model.Collaborator{UserID: "ghost", Role: model.RoleViewer})
	require.NoError(t, f.projects.Update(ctx, stored))

	details, err = f.svc.ListCollaborators(ctx, "owner", "p1")
	require.NoError(t, err)
	require.Len(t, details, 3)

	_, err = f.svc.ListCollaborators(ctx, "out", "p1")
	assert.ErrorIs(t, err, common.ErrForbidden)
}
