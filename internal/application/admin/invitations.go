package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

const defaultInvitationDays = 7

// InvitationUseCase ciclo de vida de las invitaciones.
type InvitationUseCase struct {
	invitations repository.InvitationRepository
	tx          ports.TxRunner
	events      ports.EventPublisher
	activity    ports.ActivityLogger
	metrics     ports.Metrics
	log         zerolog.Logger
	now         func() time.Time
}

// NewInvitationUseCase construye el caso de uso. events, activity y metrics pueden ser nil.
func NewInvitationUseCase(
	repos ports.Repositories,
	tx ports.TxRunner,
	events ports.EventPublisher,
	activity ports.ActivityLogger,
	metrics ports.Metrics,
	log zerolog.Logger,
) *InvitationUseCase {
	if activity == nil {
		activity = nopActivity{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &InvitationUseCase{
		invitations: repos.Invitations,
		tx:          tx,
		events:      events,
		activity:    activity,
		metrics:     metrics,
		log:         log,
		now:         time.Now,
	}
}

// newCode código de invitación opaco (32 hex).
func newCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Create registra una invitación. Conflicto si ya hay una activa para (email, empresa)
// o si el email ya es miembro de la empresa.
func (uc *InvitationUseCase) Create(ctx context.Context, caller *entity.Profile, req dto.CreateInvitationRequest) (*dto.InvitationResponse, error) {
	scope, err := scopeCompany(caller)
	if err != nil {
		return nil, err
	}
	if scope != "" && req.CompanyID != scope {
		return nil, fmt.Errorf("%w: solo puede invitar a su propia empresa", domain.ErrForbidden)
	}
	if !entity.CanAssignRole(caller.RoleType, req.RoleType) {
		return nil, fmt.Errorf("%w: no puede invitar con el rol %s", domain.ErrForbidden, req.RoleType)
	}
	if uc.tx == nil {
		return nil, fmt.Errorf("invitaciones: sin TxRunner configurado")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	now := uc.now()
	days := req.ExpiresInDays
	if days <= 0 {
		days = defaultInvitationDays
	}
	inv := &entity.Invitation{
		ID:             uuid.New().String(),
		Email:          email,
		CompanyID:      req.CompanyID,
		RoleType:       req.RoleType,
		InvitationCode: newCode(),
		Status:         entity.InvitationPending,
		InvitedBy:      caller.ID,
		Message:        strings.TrimSpace(req.Message),
		ExpiresAt:      now.AddDate(0, 0, days),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Comprobación e inserción en la misma transacción: dos altas simultáneas
	// para (email, empresa) no pueden pasar ambas.
	err = uc.tx.WithinTx(ctx, func(r ports.Repositories) error {
		org, err := r.Organizations.GetByID(ctx, req.CompanyID)
		if err != nil {
			return err
		}
		if org == nil {
			return fmt.Errorf("%w: empresa %s", domain.ErrNotFound, req.CompanyID)
		}
		member, err := r.Profiles.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if member != nil && member.CompanyID == req.CompanyID {
			return fmt.Errorf("%w: %s ya pertenece a la empresa", domain.ErrConflict, email)
		}
		if _, err := r.Invitations.ExpireOverdue(ctx, email, req.CompanyID, now); err != nil {
			return err
		}
		active, err := r.Invitations.FindActive(ctx, email, req.CompanyID, now)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("%w: ya existe una invitación activa para %s", domain.ErrConflict, email)
		}
		if err := r.Invitations.Create(ctx, inv); err != nil {
			return fmt.Errorf("crear invitación: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.InvitationCreated()
	uc.activity.Record(ctx, caller.ID, ActionInvitationCreated, "invitation", inv.ID, map[string]any{
		"email": inv.Email, "companyId": inv.CompanyID, "roleType": inv.RoleType,
	})
	uc.publish(ctx, ports.EventInvitationCreated, map[string]any{
		"invitation_id": inv.ID, "company_id": inv.CompanyID, "role_type": inv.RoleType,
	})
	return toInvitationResponse(inv), nil
}

// List invitaciones filtradas; las vencidas se reportan como expired.
func (uc *InvitationUseCase) List(ctx context.Context, caller *entity.Profile, q dto.InvitationListQuery) (*dto.InvitationListResponse, error) {
	scope, err := scopeCompany(caller)
	if err != nil {
		return nil, err
	}
	q.DefaultPage()
	companyID := q.CompanyID
	if scope != "" {
		if companyID != "" && companyID != scope {
			return nil, fmt.Errorf("%w: solo puede consultar invitaciones de su empresa", domain.ErrForbidden)
		}
		companyID = scope
	}
	items, total, err := uc.invitations.List(ctx, repository.InvitationFilter{
		Status:    q.Status,
		CompanyID: companyID,
		RoleType:  q.RoleType,
		Email:     strings.ToLower(strings.TrimSpace(q.Email)),
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listar invitaciones: %w", err)
	}
	now := uc.now()
	out := make([]dto.InvitationResponse, 0, len(items))
	for _, inv := range items {
		inv.RefreshStatus(now)
		out = append(out, *toInvitationResponse(inv))
	}
	return &dto.InvitationListResponse{
		Invitations: out,
		Pagination:  dto.NewPagination(total, q.Limit, q.Offset),
	}, nil
}

// Get una invitación visible para el llamante.
func (uc *InvitationUseCase) Get(ctx context.Context, caller *entity.Profile, id string) (*dto.InvitationResponse, error) {
	inv, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toInvitationResponse(inv), nil
}

func (uc *InvitationUseCase) load(ctx context.Context, caller *entity.Profile, id string) (*entity.Invitation, error) {
	scope, err := scopeCompany(caller)
	if err != nil {
		return nil, err
	}
	inv, err := uc.invitations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: invitación %s", domain.ErrNotFound, id)
	}
	if scope != "" && inv.CompanyID != scope {
		return nil, fmt.Errorf("%w: la invitación pertenece a otra empresa", domain.ErrForbidden)
	}
	inv.RefreshStatus(uc.now())
	return inv, nil
}

// Resend genera un código y vencimiento nuevos y marca la invitación como enviada.
// Aceptadas y canceladas no se reenvían.
func (uc *InvitationUseCase) Resend(ctx context.Context, caller *entity.Profile, id string) (*dto.InvitationResponse, error) {
	inv, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == entity.InvitationAccepted || inv.Status == entity.InvitationCancelled {
		return nil, fmt.Errorf("%w: la invitación está %s", domain.ErrConflict, inv.Status)
	}
	now := uc.now()
	inv.InvitationCode = newCode()
	inv.Status = entity.InvitationSent
	inv.ExpiresAt = now.AddDate(0, 0, defaultInvitationDays)
	inv.UpdatedAt = now
	if err := uc.invitations.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("reenviar invitación: %w", err)
	}
	uc.activity.Record(ctx, caller.ID, ActionInvitationResent, "invitation", inv.ID, nil)
	return toInvitationResponse(inv), nil
}

// Cancel anula una invitación no aceptada.
func (uc *InvitationUseCase) Cancel(ctx context.Context, caller *entity.Profile, id string) (*dto.InvitationResponse, error) {
	inv, err := uc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == entity.InvitationAccepted {
		return nil, fmt.Errorf("%w: la invitación ya fue aceptada", domain.ErrConflict)
	}
	if inv.Status != entity.InvitationCancelled {
		inv.Status = entity.InvitationCancelled
		inv.UpdatedAt = uc.now()
		if err := uc.invitations.Update(ctx, inv); err != nil {
			return nil, fmt.Errorf("cancelar invitación: %w", err)
		}
		uc.activity.Record(ctx, caller.ID, ActionInvitationCancelled, "invitation", inv.ID, nil)
	}
	return toInvitationResponse(inv), nil
}

// Accept aplica la invitación al perfil del llamante en una transacción:
// rol, empresa, membresía y estado accepted.
func (uc *InvitationUseCase) Accept(ctx context.Context, caller *entity.Profile, code string) (*dto.UserResponse, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if uc.tx == nil {
		return nil, fmt.Errorf("invitaciones: sin TxRunner configurado")
	}
	now := uc.now()
	var updated *entity.Profile
	var accepted *entity.Invitation
	err := uc.tx.WithinTx(ctx, func(r ports.Repositories) error {
		inv, err := r.Invitations.GetByCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrInvitationInvalid
		}
		if inv.RefreshStatus(now) {
			if err := r.Invitations.Update(ctx, inv); err != nil {
				return err
			}
		}
		if !inv.IsActive(now) {
			return fmt.Errorf("%w: estado %s", domain.ErrInvitationInvalid, inv.Status)
		}
		if !strings.EqualFold(inv.Email, caller.Email) {
			return fmt.Errorf("%w: la invitación es para otro email", domain.ErrForbidden)
		}
		p, err := r.Profiles.GetByID(ctx, caller.ID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrUserNotFound
		}
		p.RoleType = inv.RoleType
		p.CompanyID = inv.CompanyID
		p.UpdatedAt = now
		if err := r.Profiles.Update(ctx, p); err != nil {
			return err
		}
		if err := r.Organizations.AddMember(ctx, &entity.OrganizationMember{
			OrganizationID: inv.CompanyID,
			UserID:         p.ID,
			Role:           entity.MemberMember,
			JoinedAt:       now,
		}); err != nil {
			return err
		}
		inv.Status = entity.InvitationAccepted
		inv.AcceptedAt = &now
		inv.AcceptedBy = p.ID
		inv.UpdatedAt = now
		if err := r.Invitations.Update(ctx, inv); err != nil {
			return err
		}
		updated, accepted = p, inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.activity.Record(ctx, caller.ID, ActionInvitationAccepted, "invitation", accepted.ID, map[string]any{
		"companyId": accepted.CompanyID, "roleType": accepted.RoleType,
	})
	uc.publish(ctx, ports.EventInvitationAccepted, map[string]any{
		"invitation_id": accepted.ID, "company_id": accepted.CompanyID, "user_id": updated.ID,
	})
	return ToUserResponse(updated), nil
}

func (uc *InvitationUseCase) publish(ctx context.Context, event string, payload any) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event, payload); err != nil {
		uc.log.Warn().Err(err).Str("event", event).Msg("no se pudo publicar el evento")
	}
}

func toInvitationResponse(inv *entity.Invitation) *dto.InvitationResponse {
	return &dto.InvitationResponse{
		ID:             inv.ID,
		Email:          inv.Email,
		CompanyID:      inv.CompanyID,
		RoleType:       inv.RoleType,
		InvitationCode: inv.InvitationCode,
		Status:         inv.Status,
		InvitedBy:      inv.InvitedBy,
		Message:        inv.Message,
		ExpiresAt:      inv.ExpiresAt,
		AcceptedAt:     inv.AcceptedAt,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}
