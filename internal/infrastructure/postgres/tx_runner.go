package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/okr-api/internal/application/ports"
)

// DB lo que el Store necesita del pool: consultas, transacciones y ping.
type DB interface {
	Queryer
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store agrupa los repositorios PostgreSQL y ejecuta transacciones.
type Store struct {
	db DB
}

// Ensure Store implements ports.TxRunner.
var _ ports.TxRunner = (*Store)(nil)

// NewStore construye el store sobre el pool (o un mock compatible).
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Ping comprueba la conexión.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Repositories repositorios fuera de transacción.
func (s *Store) Repositories() ports.Repositories {
	return bind(s.db)
}

// Activity repositorio del registro de actividad.
func (s *Store) Activity() *ActivityRepo {
	return NewActivityRepository(s.db)
}

func bind(q Queryer) ports.Repositories {
	return ports.Repositories{
		Profiles:      NewProfileRepository(q),
		Organizations: NewOrganizationRepository(q),
		OKRs:          NewOKRRepository(q),
		Sessions:      NewSessionRepository(q),
		Progress:      NewProgressRepository(q),
		Invitations:   NewInvitationRepository(q),
	}
}

// WithinTx inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(repos ports.Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(bind(tx)); err != nil {
		done = true
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	done = true
	return nil
}
