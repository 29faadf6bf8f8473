package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"codecollab/internal/common"
	"codecollab/internal/domain/model"
	"codecollab/internal/domain/repository"
	"codecollab/internal/platform/mail"
	"codecollab/internal/platform/metrics"

	"github.com/google/uuid"
)

type InviteService struct {
	inviteRepo  repository.InviteRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	mailer      mail.Mailer

	validity        time.Duration // invitation validity window (7 days by default)
	frontendBaseURL string
	now             func() time.Time
}

func NewInviteService(
	inviteRepo repository.InviteRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	mailer mail.Mailer,
	validity time.Duration,
	frontendBaseURL string,
) *InviteService {
	return &InviteService{
		inviteRepo:      inviteRepo,
		projectRepo:     projectRepo,
		userRepo:        userRepo,
		mailer:          mailer,
		validity:        validity,
		frontendBaseURL: frontendBaseURL,
		now:             time.Now,
	}
}

type CreateInviteRequest struct {
	ProjectID      string     `json:"project_id"`
	RecipientEmail string     `json:"recipient_email"`
	Role           model.Role `json:"role"`
}

// CreateInvite mints a pending invitation and hands delivery to the mailer.
//
// Rejections, in order of detection: sender is not the owner; recipient is
// the sender; recipient is a registered user who already has access; a
// pending invitation for (project, email) already exists. A delivery failure
// after the record is created is reported as ErrInviteDelivery but the record
// stands: invite semantics are at-least-once, and the duplicate-pending check
// stops a retry from piling up records.
func (s *InviteService) CreateInvite(ctx context.Context, senderID string, req CreateInviteRequest) (*model.Invite, error) {
	recipient := strings.ToLower(strings.TrimSpace(req.RecipientEmail))
	if recipient == "" {
		return nil, common.Errorf("recipient email is required: %w", common.ErrBadRequest)
	}
	if !model.ValidCollaboratorRole(req.Role) {
		return nil, common.Errorf("role must be editor or viewer: %w", common.ErrValidation)
	}

	project, err := s.projectRepo.FindByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(senderID) {
		return nil, common.Errorf("only the project owner can send invitations: %w", common.ErrForbidden)
	}

	sender, err := s.userRepo.FindByID(ctx, senderID)
	if err != nil {
		return nil, common.Errorf("failed to load inviter: %w", err)
	}
	if strings.EqualFold(sender.Email, recipient) {
		return nil, common.ErrSelfInvite
	}

	// The already-collaborator check only applies when the recipient is a
	// registered user; redemption re-validates for invitees who sign up later.
	if existing, err := s.userRepo.FindByEmail(ctx, recipient); err == nil {
		if project.HasAccess(existing.ID) {
			return nil, common.ErrAlreadyCollaborator
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if _, err := s.inviteRepo.FindPending(ctx, req.ProjectID, recipient); err == nil {
		return nil, common.ErrDuplicatePending
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	token, err := model.NewInviteToken()
	if err != nil {
		return nil, common.Errorf("failed to mint invitation token: %w", err)
	}

	invite := &model.Invite{
		ID:             uuid.NewString(),
		ProjectID:      project.ID,
		SenderID:       senderID,
		RecipientEmail: recipient,
		Role:           req.Role,
		Token:          token,
		Status:         model.InviteStatusPending,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, common.Errorf("failed to create invitation: %w", err)
	}
	metrics.InvitationsTotal.WithLabelValues("created").Inc()

	link := s.frontendBaseURL + "/accept-invite?token=" + token
	if err := s.mailer.SendInvitation(ctx, recipient, sender.Name, project.Name, link); err != nil {
		log.Printf("WARN: invitation %s created but delivery failed: %v", invite.ID, err)
		metrics.InvitationsTotal.WithLabelValues("delivery_failed").Inc()
		return invite, common.ErrInviteDelivery
	}
	return invite, nil
}

// AcceptInvite redeems a single-use token for the authenticated user. The
// pending -> accepted transition is a compare-and-set, so a second redemption
// with the same token fails with ErrInvalidOrUsedToken. Expiry is evaluated
// here, against the validity window, rather than by a background sweep.
func (s *InviteService) AcceptInvite(ctx context.Context, userID, token string) (*model.Project, error) {
	if token == "" {
		return nil, common.ErrInvalidOrUsedToken
	}

	invite, err := s.inviteRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidOrUsedToken
		}
		return nil, err
	}
	if invite.Status != model.InviteStatusPending {
		return nil, common.ErrInvalidOrUsedToken
	}
	if invite.ExpiredAt(s.now().UTC(), s.validity) {
		if err := s.inviteRepo.UpdateStatus(ctx, invite.ID, model.InviteStatusExpired); err != nil {
			log.Printf("WARN: failed to mark invitation %s expired: %v", invite.ID, err)
		}
		metrics.InvitationsTotal.WithLabelValues("expired").Inc()
		return nil, common.ErrInvitationExpired
	}

	consumed, err := s.inviteRepo.ConsumePending(ctx, invite.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// Lost a race with another redemption of the same token.
		return nil, common.ErrInvalidOrUsedToken
	}

	project, err := s.projectRepo.FindByID(ctx, invite.ProjectID)
	if err != nil {
		return nil, err
	}
	// Redemption re-validates membership: for a user who joined by other
	// means since the invite was sent, AddCollaborator degrades to a role
	// update or a no-op instead of duplicating the record.
	if project.AddCollaborator(userID, invite.Role, s.now().UTC()) {
		if err := s.projectRepo.Update(ctx, project); err != nil {
			return nil, common.Errorf("failed to join project: %w", err)
		}
	}
	metrics.InvitationsTotal.WithLabelValues("accepted").Inc()
	return project, nil
}

// RevokeInvite cancels a pending invitation before acceptance. Owner only.
func (s *InviteService) RevokeInvite(ctx context.Context, userID, inviteID string) error {
	invite, err := s.inviteRepo.FindByID(ctx, inviteID)
	if err != nil {
		return err
	}
	project, err := s.projectRepo.FindByID(ctx, invite.ProjectID)
	if err != nil {
		return err
	}
	if !project.IsOwner(userID) {
		return common.Errorf("only the project owner can revoke invitations: %w", common.ErrForbidden)
	}
	if invite.Status != model.InviteStatusPending {
		return common.Errorf("only pending invitations can be revoked: %w", common.ErrConflict)
	}
	if err := s.inviteRepo.UpdateStatus(ctx, invite.ID, model.InviteStatusRevoked); err != nil {
		return err
	}
	metrics.InvitationsTotal.WithLabelValues("revoked").Inc()
	return nil
}

// ListProjectInvites returns all invitations for a project, any member may look.
func (s *InviteService) ListProjectInvites(ctx context.Context, userID, projectID string) ([]*model.Invite, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasAccess(userID) {
		return nil, common.Errorf("access denied: %w", common.ErrForbidden)
	}
	return s.inviteRepo.ListByProject(ctx, projectID)
}
