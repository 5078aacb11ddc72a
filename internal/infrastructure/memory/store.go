// Package memory implementa los repositorios sobre mapas en memoria protegidos por
// un único RWMutex. Sirve en desarrollo (sin DATABASE_URL) y en tests; no comparte
// estado entre instancias.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/domain/entity"
)

type snapshot struct {
	profiles    map[string]*entity.Profile
	orgs        map[string]*entity.Organization
	members     map[string]map[string]*entity.OrganizationMember // orgID -> userID
	objectives  map[string]*entity.Objective
	keyResults  map[string]*entity.KeyResult
	sessions    map[string]*entity.OnboardingSession
	progress    map[string]map[int]*entity.OnboardingProgress // sessionID -> step
	invitations map[string]*entity.Invitation
	activity    []*entity.ActivityEntry
}

func newSnapshot() *snapshot {
	return &snapshot{
		profiles:    map[string]*entity.Profile{},
		orgs:        map[string]*entity.Organization{},
		members:     map[string]map[string]*entity.OrganizationMember{},
		objectives:  map[string]*entity.Objective{},
		keyResults:  map[string]*entity.KeyResult{},
		sessions:    map[string]*entity.OnboardingSession{},
		progress:    map[string]map[int]*entity.OnboardingProgress{},
		invitations: map[string]*entity.Invitation{},
	}
}

// clone copia profunda: la transacción trabaja sobre la copia y solo se publica al confirmar.
func (s *snapshot) clone() *snapshot {
	cp := newSnapshot()
	for k, v := range s.profiles {
		cp.profiles[k] = v.Clone()
	}
	for k, v := range s.orgs {
		cp.orgs[k] = v.Clone()
	}
	for org, users := range s.members {
		m := make(map[string]*entity.OrganizationMember, len(users))
		for u, v := range users {
			c := *v
			m[u] = &c
		}
		cp.members[org] = m
	}
	for k, v := range s.objectives {
		c := *v
		cp.objectives[k] = &c
	}
	for k, v := range s.keyResults {
		c := *v
		cp.keyResults[k] = &c
	}
	for k, v := range s.sessions {
		cp.sessions[k] = v.Clone()
	}
	for sid, steps := range s.progress {
		m := make(map[int]*entity.OnboardingProgress, len(steps))
		for n, v := range steps {
			m[n] = v.Clone()
		}
		cp.progress[sid] = m
	}
	for k, v := range s.invitations {
		c := *v
		cp.invitations[k] = &c
	}
	cp.activity = append(cp.activity, s.activity...)
	return cp
}

// source acceso al snapshot: con bloqueo (Store) o dentro de una transacción (txSource).
type source interface {
	read(fn func(*snapshot) error) error
	write(fn func(*snapshot) error) error
}

// Store almacén en memoria compartido por todos los repositorios.
type Store struct {
	mu   sync.RWMutex
	data *snapshot
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newSnapshot()}
}

func (s *Store) read(fn func(*snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *Store) write(fn func(*snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Ping siempre responde; existe para el endpoint /api/test-db.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Repositories repositorios ligados al almacén.
func (s *Store) Repositories() ports.Repositories {
	return bind(s)
}

func bind(src source) ports.Repositories {
	return ports.Repositories{
		Profiles:      &ProfileRepo{src: src},
		Organizations: &OrganizationRepo{src: src},
		OKRs:          &OKRRepo{src: src},
		Sessions:      &SessionRepo{src: src},
		Progress:      &ProgressRepo{src: src},
		Invitations:   &InvitationRepo{src: src},
	}
}

// Activity repositorio del registro de actividad.
func (s *Store) Activity() *ActivityRepo {
	return &ActivityRepo{src: s}
}

type txSource struct {
	data *snapshot
}

func (t *txSource) read(fn func(*snapshot) error) error  { return fn(t.data) }
func (t *txSource) write(fn func(*snapshot) error) error { return fn(t.data) }

// WithinTx ejecuta fn sobre una copia del almacén y la publica solo si fn no falla.
// Mantiene el bloqueo de escritura durante toda la transacción.
func (s *Store) WithinTx(ctx context.Context, fn func(repos ports.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &txSource{data: s.data.clone()}
	if err := fn(bind(tx)); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

var _ ports.TxRunner = (*Store)(nil)
