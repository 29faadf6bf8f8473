package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusExpired  InviteStatus = "expired"
	InviteStatusRevoked  InviteStatus = "revoked"
)

// Invite is a pending offer to join a project at a given role. pending is the
// only non-terminal status: it moves to accepted via token redemption (exactly
// once), to revoked via an owner cancel, or to expired when redemption is
// attempted after the validity window.
type Invite struct {
	ID             string       `json:"id"`
	ProjectID      string       `json:"project_id"`
	SenderID       string       `json:"sender_id"`
	RecipientEmail string       `json:"recipient_email"`
	Role           Role         `json:"role"`
	Token          string       `json:"-"` // single-use credential, not exposed in listings
	Status         InviteStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ExpiredAt reports whether the invite is past its validity window at the
// given instant. Expiry is checked at redemption time, not by a background sweep.
func (i *Invite) ExpiredAt(now time.Time, validity time.Duration) bool {
	return now.After(i.CreatedAt.Add(validity))
}

// NewInviteToken mints a cryptographically random single-use token.
func NewInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
