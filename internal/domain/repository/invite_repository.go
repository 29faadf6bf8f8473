package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codecollab/internal/common"
	"codecollab/internal/domain/model"
)

type InviteRepository interface {
	Create(ctx context.Context, invite *model.Invite) error
	FindByID(ctx context.Context, id string) (*model.Invite, error)
	FindByToken(ctx context.Context, token string) (*model.Invite, error)
	// FindPending returns the pending invite for (project, email), or
	// common.ErrNotFound. At most one can exist at a time.
	FindPending(ctx context.Context, projectID, recipientEmail string) (*model.Invite, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Invite, error)
	UpdateStatus(ctx context.Context, id string, status model.InviteStatus) error
	// ConsumePending transitions pending -> accepted and reports whether this
	// call won the transition. A compare-and-set on status makes redemption
	// exactly-once even under concurrent attempts with the same token.
	ConsumePending(ctx context.Context, id string) (bool, error)
}

type pgInviteRepository struct {
	db *sql.DB
}

func NewPgInviteRepository(db *sql.DB) InviteRepository {
	return &pgInviteRepository{db: db}
}

const inviteColumns = `id, project_id, sender_id, recipient_email, role, token, status, created_at, updated_at`

func (r *pgInviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	query := `INSERT INTO invites (id, project_id, sender_id, recipient_email, role, token, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		invite.ID, invite.ProjectID, invite.SenderID, invite.RecipientEmail,
		invite.Role, invite.Token, invite.Status,
	)
	if err != nil {
		return fmt.Errorf("pgInviteRepository.Create: %w", err)
	}
	return nil
}

func (r *pgInviteRepository) FindByID(ctx context.Context, id string) (*model.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1`
	return scanInvite(r.db.QueryRowContext(ctx, query, id), "FindByID")
}

func (r *pgInviteRepository) FindByToken(ctx context.Context, token string) (*model.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE token = $1`
	return scanInvite(r.db.QueryRowContext(ctx, query, token), "FindByToken")
}

func (r *pgInviteRepository) FindPending(ctx context.Context, projectID, recipientEmail string) (*model.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites
	          WHERE project_id = $1 AND recipient_email = $2 AND status = $3`
	return scanInvite(r.db.QueryRowContext(ctx, query, projectID, recipientEmail, model.InviteStatusPending), "FindPending")
}

func (r *pgInviteRepository) ListByProject(ctx context.Context, projectID string) ([]*model.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE project_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("pgInviteRepository.ListByProject: %w", err)
	}
	defer rows.Close()

	var invites []*model.Invite
	for rows.Next() {
		inv, err := scanInvite(rows, "ListByProject")
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgInviteRepository.ListByProject: %w", err)
	}
	return invites, nil
}

func (r *pgInviteRepository) UpdateStatus(ctx context.Context, id string, status model.InviteStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("pgInviteRepository.UpdateStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgInviteRepository) ConsumePending(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		id, model.InviteStatusAccepted, model.InviteStatusPending)
	if err != nil {
		return false, fmt.Errorf("pgInviteRepository.ConsumePending: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func scanInvite(row rowScanner, op string) (*model.Invite, error) {
	inv := &model.Invite{}
	err := row.Scan(
		&inv.ID, &inv.ProjectID, &inv.SenderID, &inv.RecipientEmail,
		&inv.Role, &inv.Token, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgInviteRepository.%s: %w", op, err)
	}
	return inv, nil
}
