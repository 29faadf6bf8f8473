package model

import "time"

// Role is a project permission level. The zero value means "no role"; access
// checks never rely on magic strings for absence.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ValidCollaboratorRole reports whether r can be granted to a collaborator.
// Owner is set at project creation and never granted.
func ValidCollaboratorRole(r Role) bool {
	return r == RoleEditor || r == RoleViewer
}

type Collaborator struct {
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type File struct {
	Name           string    `json:"name"`
	Content        string    `json:"content"`
	Language       string    `json:"language"`
	LastModified   time.Time `json:"last_modified"`
	LastModifiedBy string    `json:"last_modified_by,omitempty"`
}

// Project is the aggregate: the row (including embedded files and
// collaborators) is the unit of persistence and of update atomicity.
// Mutations go load -> pure mutator -> persist; last writer wins.
type Project struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	Description   string         `json:"description"`
	OwnerID       string         `json:"owner_id"`
	IsPublic      bool           `json:"is_public"`
	Files         []File         `json:"files"`
	Collaborators []Collaborator `json:"collaborators"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// HasAccess reports whether userID is the owner or any collaborator.
// Total: an empty id or a dangling collaborator record yields false, never a panic.
func (p *Project) HasAccess(userID string) bool {
	if userID == "" {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	for _, c := range p.Collaborators {
		if c.UserID != "" && c.UserID == userID {
			return true
		}
	}
	return false
}

// RoleOf returns the effective role of userID and whether one exists.
func (p *Project) RoleOf(userID string) (Role, bool) {
	if userID == "" {
		return "", false
	}
	if p.OwnerID == userID {
		return RoleOwner, true
	}
	for _, c := range p.Collaborators {
		if c.UserID != "" && c.UserID == userID {
			return c.Role, true
		}
	}
	return "", false
}

// CanEdit reports whether userID may mutate file content.
func (p *Project) CanEdit(userID string) bool {
	role, ok := p.RoleOf(userID)
	return ok && (role == RoleOwner || role == RoleEditor)
}

func (p *Project) IsOwner(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// AddCollaborator appends userID with the given role, or updates the role of
// an existing record if it differs. It returns whether anything changed so
// callers can skip a needless persistence write. The owner is never added.
func (p *Project) AddCollaborator(userID string, role Role, now time.Time) bool {
	if userID == "" || p.IsOwner(userID) {
		return false
	}
	for i := range p.Collaborators {
		if p.Collaborators[i].UserID == userID {
			if p.Collaborators[i].Role != role {
				p.Collaborators[i].Role = role
				return true
			}
			return false
		}
	}
	p.Collaborators = append(p.Collaborators, Collaborator{
		UserID:   userID,
		Role:     role,
		JoinedAt: now,
	})
	return true
}

// RemoveCollaborator filters userID out of the collaborator set and reports
// whether any record was removed, distinguishing "not found" from "removed".
func (p *Project) RemoveCollaborator(userID string) bool {
	if userID == "" {
		return false
	}
	kept := p.Collaborators[:0]
	removed := false
	for _, c := range p.Collaborators {
		if c.UserID == userID {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	p.Collaborators = kept
	return removed
}

// UpdateCollaboratorRole changes the role of an existing collaborator.
// found is false when userID has no record; changed is false when the role
// was already newRole.
func (p *Project) UpdateCollaboratorRole(userID string, newRole Role) (changed, found bool) {
	for i := range p.Collaborators {
		if p.Collaborators[i].UserID == userID {
			if p.Collaborators[i].Role == newRole {
				return false, true
			}
			p.Collaborators[i].Role = newRole
			return true, true
		}
	}
	return false, false
}

// FindFile returns a pointer into the Files slice, valid until the slice is
// modified.
func (p *Project) FindFile(name string) (*File, bool) {
	for i := range p.Files {
		if p.Files[i].Name == name {
			return &p.Files[i], true
		}
	}
	return nil, false
}

// UpdateFile replaces the content (and optionally language) of a named file,
// stamping the editor and time. Returns false when the file does not exist.
func (p *Project) UpdateFile(name, content, language, editorID string, now time.Time) bool {
	f, ok := p.FindFile(name)
	if !ok {
		return false
	}
	f.Content = content
	if language != "" {
		f.Language = language
	}
	f.LastModified = now
	f.LastModifiedBy = editorID
	return true
}
