package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
)

// Mensajes por usuario de la operación en lote (contrato de la API).
const (
	MsgDeleteRequiresForce = "User deletion requires forceAction flag"
	msgUserNotFound        = "User not found"
	msgSelf                = "Cannot apply batch actions to your own account"
	msgForbidden           = "Insufficient permissions for this user"
	msgMissingRole         = "options.newRole is required for update_role"
	msgMissingCompany      = "options.newCompanyId is required for transfer_company"
)

// Batch aplica la acción a cada usuario por separado. Los fallos no revierten
// los éxitos previos; cada uno queda en su resultado.
func (uc *UserUseCase) Batch(ctx context.Context, caller *entity.Profile, req dto.BatchUserRequest) (*dto.BatchUserResponse, error) {
	if _, err := scopeCompany(caller); err != nil {
		return nil, err
	}
	resp := &dto.BatchUserResponse{
		Results: make([]dto.BatchItemResult, 0, len(req.UserIDs)),
		Summary: dto.BatchSummary{Total: len(req.UserIDs)},
	}
	for _, id := range req.UserIDs {
		msg, err := uc.batchOne(ctx, caller, id, req)
		item := dto.BatchItemResult{UserID: id, Success: err == nil, Message: msg}
		if err != nil {
			item.Message = batchMessage(err)
			resp.Summary.Failed++
			uc.log.Debug().Err(err).Str("user_id", id).Str("action", req.Action).Msg("acción de lote fallida")
		} else {
			resp.Summary.Successful++
		}
		resp.Results = append(resp.Results, item)
	}
	uc.activity.Record(ctx, caller.ID, ActionUserBatch, "user", "", map[string]any{
		"action":     req.Action,
		"total":      resp.Summary.Total,
		"successful": resp.Summary.Successful,
		"failed":     resp.Summary.Failed,
		"reason":     req.Options.Reason,
	})
	return resp, nil
}

// batchError error con el mensaje que se devuelve al cliente.
type batchError struct {
	msg   string
	cause error
}

func (e *batchError) Error() string { return e.msg }
func (e *batchError) Unwrap() error { return e.cause }

func failItem(msg string, cause error) error { return &batchError{msg: msg, cause: cause} }

func batchMessage(err error) string {
	var be *batchError
	if errors.As(err, &be) {
		return be.msg
	}
	return "Operation failed"
}

func (uc *UserUseCase) batchOne(ctx context.Context, caller *entity.Profile, id string, req dto.BatchUserRequest) (string, error) {
	if req.Action == dto.BatchDelete && !req.Options.ForceAction {
		return "", failItem(MsgDeleteRequiresForce, domain.ErrInvalidInput)
	}
	if id == caller.ID {
		return "", failItem(msgSelf, domain.ErrForbidden)
	}
	p, err := uc.load(ctx, caller, id)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "", failItem(msgUserNotFound, err)
	case errors.Is(err, domain.ErrForbidden):
		return "", failItem(msgForbidden, err)
	case err != nil:
		return "", err
	}
	if !entity.CanManage(caller.RoleType, p.RoleType) {
		return "", failItem(msgForbidden, domain.ErrForbidden)
	}

	var msg string
	switch req.Action {
	case dto.BatchActivate:
		p.Status = entity.UserStatusActive
		msg = "User activated"
	case dto.BatchDeactivate:
		p.Status = entity.UserStatusInactive
		msg = "User deactivated"
	case dto.BatchDelete:
		p.Status = entity.UserStatusDeleted
		msg = "User deleted"
	case dto.BatchUpdateRole:
		if req.Options.NewRole == "" {
			return "", failItem(msgMissingRole, domain.ErrInvalidInput)
		}
		if !entity.CanAssignRole(caller.RoleType, req.Options.NewRole) {
			return "", failItem(fmt.Sprintf("Cannot assign role %s", req.Options.NewRole), domain.ErrForbidden)
		}
		p.RoleType = req.Options.NewRole
		msg = "Role updated to " + p.RoleType
	case dto.BatchTransferCompany:
		if req.Options.NewCompanyID == "" {
			return "", failItem(msgMissingCompany, domain.ErrInvalidInput)
		}
		if err := uc.moveToCompany(ctx, caller, p, req.Options.NewCompanyID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", failItem("Company not found", err)
			}
			if errors.Is(err, domain.ErrForbidden) {
				return "", failItem(msgForbidden, err)
			}
			return "", err
		}
		msg = "User transferred to company " + p.CompanyID
	case dto.BatchResetPassword:
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		p.PasswordHash = string(hash)
		p.MustResetPassword = true
		msg = "Password reset; user must set a new password"
	default:
		return "", failItem("Unsupported action "+req.Action, domain.ErrInvalidInput)
	}
	p.UpdatedAt = uc.now()
	if err := uc.profiles.Update(ctx, p); err != nil {
		return "", err
	}
	return msg, nil
}
