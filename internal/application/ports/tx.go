package ports

import (
	"context"

	"github.com/jhoicas/okr-api/internal/domain/repository"
)

// Repositories repositorios ligados a una misma transacción.
type Repositories struct {
	Profiles      repository.ProfileRepository
	Organizations repository.OrganizationRepository
	OKRs          repository.OKRRepository
	Sessions      repository.SessionRepository
	Progress      repository.ProgressRepository
	Invitations   repository.InvitationRepository
}

// TxRunner ejecuta fn dentro de una transacción. Si fn devuelve error se hace rollback
// de todas las escrituras; si no, commit.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
