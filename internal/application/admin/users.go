package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

// UserUseCase administración de perfiles.
type UserUseCase struct {
	profiles repository.ProfileRepository
	orgs     repository.OrganizationRepository
	activity ports.ActivityLogger
	log      zerolog.Logger
	now      func() time.Time
}

// NewUserUseCase construye el caso de uso. activity puede ser nil.
func NewUserUseCase(
	profiles repository.ProfileRepository,
	orgs repository.OrganizationRepository,
	activity ports.ActivityLogger,
	log zerolog.Logger,
) *UserUseCase {
	if activity == nil {
		activity = nopActivity{}
	}
	return &UserUseCase{profiles: profiles, orgs: orgs, activity: activity, log: log, now: time.Now}
}

// scopeCompany empresa a la que queda limitado el llamante ("" = sin límite).
// Un no corporativo sin empresa no puede administrar a nadie.
func scopeCompany(caller *entity.Profile) (string, error) {
	if caller == nil {
		return "", domain.ErrUnauthorized
	}
	if caller.RoleType == entity.RoleCorporativo {
		return "", nil
	}
	if caller.CompanyID == "" {
		return "", fmt.Errorf("%w: el usuario no pertenece a ninguna empresa", domain.ErrForbidden)
	}
	return caller.CompanyID, nil
}

// List usuarios filtrados, ordenados y paginados.
func (uc *UserUseCase) List(ctx context.Context, caller *entity.Profile, q dto.UserListQuery) (*dto.UserListResponse, error) {
	scope, err := scopeCompany(caller)
	if err != nil {
		return nil, err
	}
	q.DefaultPage()
	companyID := q.CompanyID
	if scope != "" {
		if companyID != "" && companyID != scope {
			return nil, fmt.Errorf("%w: solo puede consultar usuarios de su empresa", domain.ErrForbidden)
		}
		companyID = scope
	}
	profiles, total, err := uc.profiles.List(ctx, repository.ProfileFilter{
		RoleType:  q.RoleType,
		CompanyID: companyID,
		Status:    q.Status,
		Search:    strings.TrimSpace(q.Search),
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listar usuarios: %w", err)
	}
	users := make([]dto.UserResponse, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, *ToUserResponse(p))
	}
	return &dto.UserListResponse{
		Users:      users,
		Pagination: dto.NewPagination(total, q.Limit, q.Offset),
	}, nil
}

// Get un usuario visible para el llamante.
func (uc *UserUseCase) Get(ctx context.Context, caller *entity.Profile, id string) (*dto.UserResponse, error) {
	p, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(p), nil
}

// load perfil por ID respetando el alcance del llamante.
func (uc *UserUseCase) load(ctx context.Context, caller *entity.Profile, id string) (*entity.Profile, error) {
	scope, err := scopeCompany(caller)
	if err != nil {
		return nil, err
	}
	p, err := uc.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrUserNotFound
	}
	if scope != "" && p.CompanyID != scope {
		return nil, fmt.Errorf("%w: el usuario pertenece a otra empresa", domain.ErrForbidden)
	}
	return p, nil
}

// Update modifica un perfil. Sobre sí mismo solo se cambian datos personales;
// sobre otros se exige CanManage y, para el rol nuevo, CanAssignRole.
func (uc *UserUseCase) Update(ctx context.Context, caller *entity.Profile, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	p, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	self := p.ID == caller.ID
	privileged := req.RoleType != nil || req.Status != nil || req.CompanyID != nil
	if self && privileged {
		return nil, fmt.Errorf("%w: no puede cambiar su propio rol, estado o empresa", domain.ErrForbidden)
	}
	if !self && !entity.CanManage(caller.RoleType, p.RoleType) {
		return nil, fmt.Errorf("%w: rol insuficiente para administrar a %s", domain.ErrForbidden, p.RoleType)
	}

	changes := map[string]any{}
	if req.FullName != nil {
		p.FullName = strings.TrimSpace(*req.FullName)
		changes["fullName"] = p.FullName
	}
	if req.JobTitle != nil {
		p.JobTitle = strings.TrimSpace(*req.JobTitle)
		changes["jobTitle"] = p.JobTitle
	}
	if req.Department != nil {
		p.Department = strings.TrimSpace(*req.Department)
		changes["department"] = p.Department
	}
	if req.RoleType != nil {
		if !entity.CanAssignRole(caller.RoleType, *req.RoleType) {
			return nil, fmt.Errorf("%w: no puede asignar el rol %s", domain.ErrForbidden, *req.RoleType)
		}
		p.RoleType = *req.RoleType
		changes["roleType"] = p.RoleType
	}
	if req.Status != nil {
		p.Status = *req.Status
		changes["status"] = p.Status
	}
	if req.CompanyID != nil && *req.CompanyID != p.CompanyID {
		if err := uc.moveToCompany(ctx, caller, p, *req.CompanyID); err != nil {
			return nil, err
		}
		changes["companyId"] = p.CompanyID
	}
	p.UpdatedAt = uc.now()
	if err := uc.profiles.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("actualizar usuario: %w", err)
	}
	uc.activity.Record(ctx, caller.ID, ActionUserUpdated, "user", p.ID, changes)
	return ToUserResponse(p), nil
}

// moveToCompany reasigna la empresa (solo corporativo) y registra la membresía.
func (uc *UserUseCase) moveToCompany(ctx context.Context, caller, p *entity.Profile, companyID string) error {
	if caller.RoleType != entity.RoleCorporativo {
		return fmt.Errorf("%w: solo un corporativo puede cambiar la empresa de un usuario", domain.ErrForbidden)
	}
	if companyID == "" {
		p.CompanyID = ""
		return nil
	}
	org, err := uc.orgs.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if org == nil {
		return fmt.Errorf("%w: empresa %s", domain.ErrNotFound, companyID)
	}
	if err := uc.orgs.AddMember(ctx, &entity.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         p.ID,
		Role:           entity.MemberMember,
		JoinedAt:       uc.now(),
	}); err != nil {
		return fmt.Errorf("agregar miembro: %w", err)
	}
	p.CompanyID = org.ID
	return nil
}

// ToUserResponse convierte un perfil a su DTO (sin hash de contraseña).
func ToUserResponse(p *entity.Profile) *dto.UserResponse {
	if p == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:                p.ID,
		Email:             p.Email,
		FullName:          p.FullName,
		RoleType:          p.RoleType,
		CompanyID:         p.CompanyID,
		Status:            p.Status,
		JobTitle:          p.JobTitle,
		Department:        p.Department,
		MustResetPassword: p.MustResetPassword,
		LastLoginAt:       p.LastLoginAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
