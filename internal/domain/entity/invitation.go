package entity

import "time"

// Estados de una invitación.
const (
	InvitationPending   = "pending"
	InvitationSent      = "sent"
	InvitationAccepted  = "accepted"
	InvitationExpired   = "expired"
	InvitationCancelled = "cancelled"
)

// Invitation invitación a unirse a una empresa con un rol.
type Invitation struct {
	ID             string
	Email          string
	CompanyID      string
	RoleType       string
	InvitationCode string
	Status         string
	InvitedBy      string
	Message        string
	ExpiresAt      time.Time
	AcceptedAt     *time.Time
	AcceptedBy     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive pendiente o enviada y sin vencer.
func (i *Invitation) IsActive(now time.Time) bool {
	return (i.Status == InvitationPending || i.Status == InvitationSent) && now.Before(i.ExpiresAt)
}

// RefreshStatus marca como expirada una invitación pendiente/enviada ya vencida.
// Devuelve true si cambió el estado.
func (i *Invitation) RefreshStatus(now time.Time) bool {
	if (i.Status == InvitationPending || i.Status == InvitationSent) && !now.Before(i.ExpiresAt) {
		i.Status = InvitationExpired
		i.UpdatedAt = now
		return true
	}
	return false
}

// ActivityEntry registro de una acción administrativa.
type ActivityEntry struct {
	ID         string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
	CreatedAt  time.Time
}
