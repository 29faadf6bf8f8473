package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject() *Project {
	return &Project{
		ID:      "p1",
		Name:    "demo",
		OwnerID: "owner",
		Files: []File{
			{Name: "main.js", Content: "console.log(1)", Language: "javascript"},
		},
		Collaborators: []Collaborator{
			{UserID: "ed", Role: RoleEditor, JoinedAt: time.Now()},
			{UserID: "view", Role: RoleViewer, JoinedAt: time.Now()},
		},
	}
}

func TestProjectAccess(t *testing.T) {
	p := newTestProject()

	assert.True(t, p.HasAccess("owner"))
	assert.True(t, p.HasAccess("ed"))
	assert.True(t, p.HasAccess("view"))
	assert.False(t, p.HasAccess("stranger"))
	assert.False(t, p.HasAccess(""))

	role, ok := p.RoleOf("owner")
	require.True(t, ok)
	assert.Equal(t, RoleOwner, role)

	role, ok = p.RoleOf("ed")
	require.True(t, ok)
	assert.Equal(t, RoleEditor, role)

	_, ok = p.RoleOf("stranger")
	assert.False(t, ok)
	_, ok = p.RoleOf("")
	assert.False(t, ok)

	assert.True(t, p.CanEdit("owner"))
	assert.True(t, p.CanEdit("ed"))
	assert.False(t, p.CanEdit("view"))
	assert.False(t, p.CanEdit("stranger"))
	assert.False(t, p.CanEdit(""))

	assert.True(t, p.IsOwner("owner"))
	assert.False(t, p.IsOwner("ed"))
	assert.False(t, p.IsOwner(""))
}

func TestProjectAccessToleratesDanglingCollaborators(t *testing.T) {
	p := newTestProject()
	p.Collaborators = append(p.Collaborators, Collaborator{UserID: "", Role: RoleEditor})

	assert.False(t, p.HasAccess(""))
	_, ok := p.RoleOf("")
	assert.False(t, ok)
	assert.True(t, p.HasAccess("ed"))
}

func TestAddCollaborator(t *testing.T) {
	p := newTestProject()
	now := time.Now()

	changed := p.AddCollaborator("newbie", RoleViewer, now)
	assert.True(t, changed)
	role, ok := p.RoleOf("newbie")
	require.True(t, ok)
	assert.Equal(t, RoleViewer, role)

	// Same role again is idempotent: no change, count stable.
	before := len(p.Collaborators)
	assert.False(t, p.AddCollaborator("newbie", RoleViewer, now))
	assert.Len(t, p.Collaborators, before)

	// Different role updates in place instead of appending.
	assert.True(t, p.AddCollaborator("newbie", RoleEditor, now))
	assert.Len(t, p.Collaborators, before)
	role, _ = p.RoleOf("newbie")
	assert.Equal(t, RoleEditor, role)

	// The owner and the empty principal are never added.
	assert.False(t, p.AddCollaborator("owner", RoleEditor, now))
	assert.False(t, p.AddCollaborator("", RoleEditor, now))
	assert.Len(t, p.Collaborators, before)
}

func TestRemoveCollaborator(t *testing.T) {
	p := newTestProject()
	before := len(p.Collaborators)

	assert.True(t, p.RemoveCollaborator("ed"))
	assert.Len(t, p.Collaborators, before-1)
	assert.False(t, p.HasAccess("ed"))

	// Not-found is distinguishable from removed, and the set is untouched.
	assert.False(t, p.RemoveCollaborator("ghost"))
	assert.Len(t, p.Collaborators, before-1)
	assert.False(t, p.RemoveCollaborator(""))
}

func TestUpdateCollaboratorRole(t *testing.T) {
	p := newTestProject()

	changed, found := p.UpdateCollaboratorRole("view", RoleEditor)
	assert.True(t, found)
	assert.True(t, changed)
	role, _ := p.RoleOf("view")
	assert.Equal(t, RoleEditor, role)

	changed, found = p.UpdateCollaboratorRole("view", RoleEditor)
	assert.True(t, found)
	assert.False(t, changed)

	_, found = p.UpdateCollaboratorRole("ghost", RoleViewer)
	assert.False(t, found)
}

func TestUpdateFile(t *testing.T) {
	p := newTestProject()
	now := time.Now()

	require.True(t, p.UpdateFile("main.js", "console.log(2)", "", "ed", now))
	f, ok := p.FindFile("main.js")
	require.True(t, ok)
	assert.Equal(t, "console.log(2)", f.Content)
	assert.Equal(t, "javascript", f.Language) // untouched when empty
	assert.Equal(t, "ed", f.LastModifiedBy)
	assert.Equal(t, now, f.LastModified)

	require.True(t, p.UpdateFile("main.js", "print(1)", "python", "ed", now))
	f, _ = p.FindFile("main.js")
	assert.Equal(t, "python", f.Language)

	assert.False(t, p.UpdateFile("missing.js", "x", "", "ed", now))
}

func TestValidCollaboratorRole(t *testing.T) {
	assert.True(t, ValidCollaboratorRole(RoleEditor))
	assert.True(t, ValidCollaboratorRole(RoleViewer))
	assert.False(t, ValidCollaboratorRole(RoleOwner))
	assert.False(t, ValidCollaboratorRole(Role("")))
	assert.False(t, ValidCollaboratorRole(Role("admin")))
}
