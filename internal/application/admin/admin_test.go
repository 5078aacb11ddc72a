package admin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/application/admin"
	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
	"github.com/jhoicas/okr-api/internal/infrastructure/fixtures"
	"github.com/jhoicas/okr-api/internal/infrastructure/memory"
)

// IDs de los datos de desarrollo embebidos.
const (
	acmeID    = "7b0a3c1e-2f4d-4e5a-9b6c-1d2e3f4a5b60"
	nubesID   = "9d8e7f60-5a4b-4c3d-8e2f-1a0b9c8d7e62"
	lauraID   = "0b9c6a40-1e2f-4a3b-8c4d-5e6f7a8b9c01" // corporativo, Acme
	andresID  = "1c0d9e20-3b4a-4f58-8d7c-6e5f4a3b2c02" // gerente, Acme
	sofiaID   = "3e2f1a40-5d6c-4b7a-9f0e-8a7b6c5d4e03" // gerente, Acme
	camiloID  = "4f3a2b50-6e7d-4c8b-8a1f-9b8c7d6e5f04" // empleado, Acme
	mateoID   = "6b5c4d70-8a9f-4e0d-8c3b-1d0e9f8a7b07" // empleado sin empresa
	missingID = "00000000-0000-0000-0000-00000000dead"
)

type env struct {
	store *memory.Store
	repos ports.Repositories
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	set, err := fixtures.Default()
	require.NoError(t, err)
	_, err = fixtures.Seed(context.Background(), store.Repositories(), set, time.Now())
	require.NoError(t, err)
	return &env{store: store, repos: store.Repositories()}
}

func (e *env) profile(t *testing.T, id string) *entity.Profile {
	t.Helper()
	p, err := e.repos.Profiles.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (e *env) users() *admin.UserUseCase {
	return admin.NewUserUseCase(e.repos.Profiles, e.repos.Organizations,
		admin.NewActivityLog(e.store.Activity(), zerolog.Nop()), zerolog.Nop())
}

func (e *env) invitations() *admin.InvitationUseCase {
	return admin.NewInvitationUseCase(e.repos, e.store, nil,
		admin.NewActivityLog(e.store.Activity(), zerolog.Nop()), nil, zerolog.Nop())
}

func TestUsers_ListPaginaConHasMore(t *testing.T) {
	e := newEnv(t)
	q := dto.UserListQuery{RoleType: entity.RoleGerente}
	q.Limit = 1

	resp, err := e.users().List(context.Background(), e.profile(t, lauraID), q)
	require.NoError(t, err)

	require.Len(t, resp.Users, 1)
	assert.Equal(t, 3, resp.Pagination.Total)
	assert.Equal(t, 1, resp.Pagination.Limit)
	assert.True(t, resp.Pagination.HasMore)
	assert.Equal(t, entity.RoleGerente, resp.Users[0].RoleType)
}

func TestUsers_ListLimitePorDefecto(t *testing.T) {
	e := newEnv(t)
	resp, err := e.users().List(context.Background(), e.profile(t, lauraID), dto.UserListQuery{})
	require.NoError(t, err)
	assert.Equal(t, dto.DefaultLimit, resp.Pagination.Limit)
	assert.Equal(t, 7, resp.Pagination.Total)
	assert.False(t, resp.Pagination.HasMore)
}

func TestUsers_GerenteLimitadoASuEmpresa(t *testing.T) {
	e := newEnv(t)
	uc := e.users()
	andres := e.profile(t, andresID)

	resp, err := uc.List(context.Background(), andres, dto.UserListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Pagination.Total)
	for _, u := range resp.Users {
		assert.Equal(t, acmeID, u.CompanyID)
	}

	_, err = uc.List(context.Background(), andres, dto.UserListQuery{CompanyID: nubesID})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUsers_UpdateRespetaJerarquia(t *testing.T) {
	e := newEnv(t)
	uc := e.users()
	andres := e.profile(t, andresID)
	gerente := entity.RoleGerente

	_, err := uc.Update(context.Background(), andres, camiloID, dto.UpdateUserRequest{RoleType: &gerente})
	assert.ErrorIs(t, err, domain.ErrForbidden, "un gerente no asigna su mismo nivel")

	_, err = uc.Update(context.Background(), andres, sofiaID, dto.UpdateUserRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden, "un gerente no administra a otro gerente")

	title := "Analista Senior"
	out, err := uc.Update(context.Background(), andres, camiloID, dto.UpdateUserRequest{JobTitle: &title})
	require.NoError(t, err)
	assert.Equal(t, title, out.JobTitle)

	out, err = uc.Update(context.Background(), e.profile(t, lauraID), camiloID, dto.UpdateUserRequest{RoleType: &gerente})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleGerente, out.RoleType)
}

func TestBatch_DeleteSinForceActionFallaPorUsuario(t *testing.T) {
	e := newEnv(t)
	req := dto.BatchUserRequest{UserIDs: []string{camiloID, andresID}, Action: dto.BatchDelete}

	resp, err := e.users().Batch(context.Background(), e.profile(t, lauraID), req)
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.False(t, r.Success)
		assert.Equal(t, admin.MsgDeleteRequiresForce, r.Message)
	}
	assert.Equal(t, dto.BatchSummary{Total: 2, Successful: 0, Failed: 2}, resp.Summary)
	assert.Equal(t, entity.UserStatusActive, e.profile(t, camiloID).Status, "nada se borra")
}

func TestBatch_ResultadosIndependientes(t *testing.T) {
	e := newEnv(t)
	laura := e.profile(t, lauraID)
	req := dto.BatchUserRequest{UserIDs: []string{camiloID, missingID, lauraID}, Action: dto.BatchDeactivate}

	resp, err := e.users().Batch(context.Background(), laura, req)
	require.NoError(t, err)

	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)
	assert.False(t, resp.Results[2].Success, "no se aplica sobre la propia cuenta")
	assert.Equal(t, dto.BatchSummary{Total: 3, Successful: 1, Failed: 2}, resp.Summary)
	assert.Equal(t, entity.UserStatusInactive, e.profile(t, camiloID).Status)
}

func TestBatch_DeleteConForceYResetPassword(t *testing.T) {
	e := newEnv(t)
	laura := e.profile(t, lauraID)
	before := e.profile(t, andresID).PasswordHash

	resp, err := e.users().Batch(context.Background(), laura, dto.BatchUserRequest{
		UserIDs: []string{andresID}, Action: dto.BatchResetPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.Successful)
	after := e.profile(t, andresID)
	assert.True(t, after.MustResetPassword)
	assert.NotEqual(t, before, after.PasswordHash)

	resp, err = e.users().Batch(context.Background(), laura, dto.BatchUserRequest{
		UserIDs: []string{camiloID}, Action: dto.BatchDelete, Options: dto.BatchOptions{ForceAction: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.Successful)
	assert.Equal(t, entity.UserStatusDeleted, e.profile(t, camiloID).Status)
}

func TestBatch_UpdateRoleSinRolNuevo(t *testing.T) {
	e := newEnv(t)
	resp, err := e.users().Batch(context.Background(), e.profile(t, lauraID), dto.BatchUserRequest{
		UserIDs: []string{camiloID}, Action: dto.BatchUpdateRole,
	})
	require.NoError(t, err)
	assert.False(t, resp.Results[0].Success)
	assert.Contains(t, resp.Results[0].Message, "newRole")
}

func TestInvitations_CreateDuplicadaDevuelveConflicto(t *testing.T) {
	e := newEnv(t)
	uc := e.invitations()
	laura := e.profile(t, lauraID)
	req := dto.CreateInvitationRequest{Email: "nueva@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleEmpleado}

	inv, err := uc.Create(context.Background(), laura, req)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationPending, inv.Status)
	assert.Len(t, inv.InvitationCode, 32)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), inv.ExpiresAt, time.Minute)

	req.Email = "NUEVA@acme-andina.co"
	_, err = uc.Create(context.Background(), laura, req)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.Create(context.Background(), laura, dto.CreateInvitationRequest{
		Email: "camilo@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleEmpleado,
	})
	assert.ErrorIs(t, err, domain.ErrConflict, "ya es miembro de la empresa")
}

// slowTx demora FindActive dentro de la transacción para abrir la ventana entre lectura e inserción.
type slowTx struct {
	store *memory.Store
}

func (s slowTx) WithinTx(ctx context.Context, fn func(repos ports.Repositories) error) error {
	return s.store.WithinTx(ctx, func(r ports.Repositories) error {
		r.Invitations = slowInvitations{r.Invitations}
		return fn(r)
	})
}

type slowInvitations struct {
	repository.InvitationRepository
}

func (s slowInvitations) FindActive(ctx context.Context, email, companyID string, now time.Time) (*entity.Invitation, error) {
	time.Sleep(50 * time.Millisecond)
	return s.InvitationRepository.FindActive(ctx, email, companyID, now)
}

func TestInvitations_CreateConcurrenteSoloUnaGana(t *testing.T) {
	e := newEnv(t)
	uc := admin.NewInvitationUseCase(e.repos, slowTx{e.store}, nil,
		admin.NewActivityLog(e.store.Activity(), zerolog.Nop()), nil, zerolog.Nop())
	laura := e.profile(t, lauraID)
	req := dto.CreateInvitationRequest{Email: "carrera@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleEmpleado}

	const n = 5
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Create(context.Background(), laura, req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, ok)

	list, total, err := e.repos.Invitations.List(context.Background(), repository.InvitationFilter{Email: req.Email})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestInvitations_CreateReemplazaVencida(t *testing.T) {
	e := newEnv(t)
	uc := e.invitations()
	laura := e.profile(t, lauraID)
	req := dto.CreateInvitationRequest{Email: "vencida@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleEmpleado}

	first, err := uc.Create(context.Background(), laura, req)
	require.NoError(t, err)
	stored, err := e.repos.Invitations.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	stored.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, e.repos.Invitations.Update(context.Background(), stored))

	second, err := uc.Create(context.Background(), laura, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	old, err := e.repos.Invitations.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationExpired, old.Status)
}

func TestInvitations_CreateRespetaRolYEmpresa(t *testing.T) {
	e := newEnv(t)
	uc := e.invitations()
	andres := e.profile(t, andresID)

	_, err := uc.Create(context.Background(), andres, dto.CreateInvitationRequest{
		Email: "x@acme-andina.co", CompanyID: acmeID, RoleType: entity.RoleGerente,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Create(context.Background(), andres, dto.CreateInvitationRequest{
		Email: "x@nubesdelsur.cl", CompanyID: nubesID, RoleType: entity.RoleEmpleado,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInvitations_AceptarAsignaEmpresaYRol(t *testing.T) {
	e := newEnv(t)
	uc := e.invitations()
	ctx := context.Background()
	inv, err := uc.Create(ctx, e.profile(t, lauraID), dto.CreateInvitationRequest{
		Email: "nuevo.usuario@gmail.com", CompanyID: acmeID, RoleType: entity.RoleGerente,
	})
	require.NoError(t, err)

	_, err = uc.Accept(ctx, e.profile(t, camiloID), inv.InvitationCode)
	assert.ErrorIs(t, err, domain.ErrForbidden, "el email debe coincidir")

	user, err := uc.Accept(ctx, e.profile(t, mateoID), inv.InvitationCode)
	require.NoError(t, err)
	assert.Equal(t, acmeID, user.CompanyID)
	assert.Equal(t, entity.RoleGerente, user.RoleType)

	got, err := uc.Get(ctx, e.profile(t, lauraID), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationAccepted, got.Status)

	_, err = uc.Accept(ctx, e.profile(t, mateoID), inv.InvitationCode)
	assert.ErrorIs(t, err, domain.ErrInvitationInvalid)

	_, err = uc.Cancel(ctx, e.profile(t, lauraID), inv.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestInvitations_VencidaSeReportaExpirada(t *testing.T) {
	e := newEnv(t)
	q := dto.InvitationListQuery{CompanyID: nubesID}

	resp, err := e.invitations().List(context.Background(), e.profile(t, lauraID), q)
	require.NoError(t, err)
	require.Len(t, resp.Invitations, 1)
	assert.Equal(t, entity.InvitationExpired, resp.Invitations[0].Status)

	_, err = e.invitations().Accept(context.Background(), e.profile(t, mateoID), "7a1d3b8f0c2e4d5b9f7a1c3e5b7d9f02")
	assert.True(t, errors.Is(err, domain.ErrInvitationInvalid) || errors.Is(err, domain.ErrForbidden))
}

func TestInvitations_ReenviarYCancelar(t *testing.T) {
	e := newEnv(t)
	uc := e.invitations()
	ctx := context.Background()
	laura := e.profile(t, lauraID)

	resent, err := uc.Resend(ctx, laura, "9e8f7a00-1d2c-4b3a-9f6e-4a3b2c1d0e10")
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationSent, resent.Status)
	assert.NotEqual(t, "7a1d3b8f0c2e4d5b9f7a1c3e5b7d9f02", resent.InvitationCode)
	assert.True(t, resent.ExpiresAt.After(time.Now()))

	cancelled, err := uc.Cancel(ctx, laura, resent.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationCancelled, cancelled.Status)

	_, err = uc.Resend(ctx, laura, resent.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// failingInvitations falla al calcular estadísticas.
type failingInvitations struct {
	repository.InvitationRepository
}

func (failingInvitations) Stats(context.Context, string, time.Time) (repository.InvitationStats, error) {
	return repository.InvitationStats{}, errors.New("timeout consultando invitaciones")
}

func TestDashboard_ResultadoParcial(t *testing.T) {
	e := newEnv(t)
	repos := e.repos
	repos.Invitations = failingInvitations{repos.Invitations}
	uc := admin.NewDashboardUseCase(repos, e.store.Activity(), nil, zerolog.Nop())

	summary, err := uc.Summary(context.Background(), e.profile(t, lauraID))
	require.NoError(t, err)

	assert.True(t, summary.Partial)
	assert.Nil(t, summary.Invitations)
	assert.Equal(t, admin.MsgSectionUnavailable, summary.Errors[dto.SectionInvitations])
	assert.NotContains(t, summary.Errors[dto.SectionInvitations], "timeout", "la causa interna no se expone")
	require.NotNil(t, summary.Users)
	assert.Equal(t, 7, summary.Users.Total)
	require.NotNil(t, summary.OKRs)
	assert.Equal(t, 2, summary.OKRs.Organizations)
	require.NotNil(t, summary.Onboarding)
	assert.Equal(t, "global", summary.Scope)
}

func TestDashboard_GerenteVeSoloSuEmpresa(t *testing.T) {
	e := newEnv(t)
	uc := admin.NewDashboardUseCase(e.repos, e.store.Activity(), nil, zerolog.Nop())

	summary, err := uc.Summary(context.Background(), e.profile(t, andresID))
	require.NoError(t, err)

	assert.False(t, summary.Partial)
	assert.Nil(t, summary.Errors)
	assert.Equal(t, acmeID, summary.Scope)
	assert.Equal(t, 4, summary.Users.Total)
	assert.Equal(t, 1, summary.Invitations.Pending)
	assert.Equal(t, 1, summary.OKRs.Organizations)
	assert.Nil(t, summary.Onboarding)
}

func TestActivityLog_RegistraAcciones(t *testing.T) {
	e := newEnv(t)
	log := admin.NewActivityLog(e.store.Activity(), zerolog.Nop())
	uc := admin.NewUserUseCase(e.repos.Profiles, e.repos.Organizations, log, zerolog.Nop())
	title := "Coordinador"

	_, err := uc.Update(context.Background(), e.profile(t, lauraID), camiloID, dto.UpdateUserRequest{JobTitle: &title})
	require.NoError(t, err)

	entries, err := log.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, admin.ActionUserUpdated, entries[0].Action)
	assert.Equal(t, camiloID, entries[0].TargetID)
	assert.Equal(t, lauraID, entries[0].ActorID)
}
