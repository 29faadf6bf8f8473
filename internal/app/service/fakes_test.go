package service

// In-memory repositories and collaborator fakes shared by the service tests.
// They honor the same contracts as the pg implementations, including the
// sentinel errors, so services under test cannot tell the difference.

import (
	"context"
	"strings"
	"sync"

	"codecollab/internal/common"
	"codecollab/internal/domain/model"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // by id
}

func newMemUserRepo(users ...*model.User) *memUserRepo {
	r := &memUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return common.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

type memProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*model.Project
	updates  int
}

func newMemProjectRepo(projects ...*model.Project) *memProjectRepo {
	r := &memProjectRepo{projects: map[string]*model.Project{}}
	for _, p := range projects {
		r.projects[p.ID] = copyProject(p)
	}
	return r
}

// copyProject keeps the store honest: callers mutate their own aggregate copy
// and changes only land via Update, as with a real document store.
func copyProject(p *model.Project) *model.Project {
	cp := *p
	cp.Files = append([]model.File(nil), p.Files...)
	cp.Collaborators = append([]model.Collaborator(nil), p.Collaborators...)
	return &cp
}

func (r *memProjectRepo) Create(_ context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = copyProject(project)
	return nil
}

func (r *memProjectRepo) FindByID(_ context.Context, id string) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.projects[id]; ok {
		return copyProject(p), nil
	}
	return nil, common.ErrNotFound
}

func (r *memProjectRepo) ListByUserID(_ context.Context, userID string) ([]*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Project
	for _, p := range r.projects {
		if p.HasAccess(userID) {
			out = append(out, copyProject(p))
		}
	}
	return out, nil
}

func (r *memProjectRepo) Update(_ context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; !ok {
		return common.ErrNotFound
	}
	r.projects[project.ID] = copyProject(project)
	r.updates++
	return nil
}

func (r *memProjectRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

type memInviteRepo struct {
	mu      sync.Mutex
	invites map[string]*model.Invite
}

func newMemInviteRepo() *memInviteRepo {
	return &memInviteRepo{invites: map[string]*model.Invite{}}
}

func (r *memInviteRepo) Create(_ context.Context, invite *model.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *invite
	r.invites[invite.ID] = &cp
	return nil
}

func (r *memInviteRepo) FindByID(_ context.Context, id string) (*model.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invites[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *memInviteRepo) FindByToken(_ context.Context, token string) (*model.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invites {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memInviteRepo) FindPending(_ context.Context, projectID, recipientEmail string) (*model.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invites {
		if inv.ProjectID == projectID &&
			strings.EqualFold(inv.RecipientEmail, recipientEmail) &&
			inv.Status == model.InviteStatusPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memInviteRepo) ListByProject(_ context.Context, projectID string) ([]*model.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Invite
	for _, inv := range r.invites {
		if inv.ProjectID == projectID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memInviteRepo) UpdateStatus(_ context.Context, id string, status model.InviteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[id]
	if !ok {
		return common.ErrNotFound
	}
	inv.Status = status
	return nil
}

func (r *memInviteRepo) ConsumePending(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[id]
	if !ok || inv.Status != model.InviteStatusPending {
		return false, nil
	}
	inv.Status = model.InviteStatusAccepted
	return true, nil
}

type sentMail struct {
	recipient   string
	inviterName string
	projectName string
	link        string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendInvitation(_ context.Context, recipientEmail, inviterName, projectName, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{recipientEmail, inviterName, projectName, link})
	return nil
}
