package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/okr-api/internal/domain"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

var _ repository.InvitationRepository = (*InvitationRepo)(nil)

// InvitationRepo invitaciones sobre PostgreSQL.
type InvitationRepo struct {
	db Queryer
}

// NewInvitationRepository construye el repositorio.
func NewInvitationRepository(db Queryer) *InvitationRepo {
	return &InvitationRepo{db: db}
}

// openInvitationIndex índice único parcial: una invitación pending/sent por (email, empresa).
const openInvitationIndex = "invitations_open_email_company_uniq"

const invitationColumns = `id, email, company_id, role_type, invitation_code, status, invited_by, message,
	expires_at, accepted_at, COALESCE(accepted_by, ''), created_at, updated_at`

func scanInvitation(row rowScanner) (*entity.Invitation, error) {
	var i entity.Invitation
	if err := row.Scan(&i.ID, &i.Email, &i.CompanyID, &i.RoleType, &i.InvitationCode, &i.Status, &i.InvitedBy,
		&i.Message, &i.ExpiresAt, &i.AcceptedAt, &i.AcceptedBy, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserta la invitación; código duplicado: ErrDuplicate; otra pending/sent
// para (email, empresa): ErrConflict.
func (r *InvitationRepo) Create(ctx context.Context, inv *entity.Invitation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO invitations (id, email, company_id, role_type, invitation_code, status, invited_by, message,
			expires_at, accepted_at, accepted_by, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		inv.ID, inv.Email, inv.CompanyID, inv.RoleType, inv.InvitationCode, inv.Status, inv.InvitedBy, inv.Message,
		inv.ExpiresAt, inv.AcceptedAt, nullable(inv.AcceptedBy), inv.CreatedAt, inv.UpdatedAt,
	)
	return translateOpenClash("insert invitation", err)
}

// translateOpenClash la violación del índice de invitaciones abiertas es un conflicto de negocio.
func translateOpenClash(op string, err error) error {
	if isConstraintViolation(err, openInvitationIndex) {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return translate(op, err)
}

func (r *InvitationRepo) get(ctx context.Context, where string, arg any) (*entity.Invitation, error) {
	inv, err := scanInvitation(r.db.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// GetByID obtiene una invitación.
func (r *InvitationRepo) GetByID(ctx context.Context, id string) (*entity.Invitation, error) {
	return r.get(ctx, "id = $1", id)
}

// GetByCode obtiene una invitación por su código.
func (r *InvitationRepo) GetByCode(ctx context.Context, code string) (*entity.Invitation, error) {
	return r.get(ctx, "invitation_code = $1", code)
}

// Update reemplaza estado, código y vencimiento.
func (r *InvitationRepo) Update(ctx context.Context, inv *entity.Invitation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invitations
		   SET role_type = $2, invitation_code = $3, status = $4, message = $5, expires_at = $6,
		       accepted_at = $7, accepted_by = $8, updated_at = $9
		 WHERE id = $1`,
		inv.ID, inv.RoleType, inv.InvitationCode, inv.Status, inv.Message, inv.ExpiresAt,
		inv.AcceptedAt, nullable(inv.AcceptedBy), inv.UpdatedAt,
	)
	if err != nil {
		return translateOpenClash("update invitation", err)
	}
	return expectOne(tag, nil, "update invitation")
}

// List invitaciones filtradas, la más reciente primero.
func (r *InvitationRepo) List(ctx context.Context, f repository.InvitationFilter) ([]*entity.Invitation, int, error) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.CompanyID != "" {
		add("company_id = $%d", f.CompanyID)
	}
	if f.RoleType != "" {
		add("role_type = $%d", f.RoleType)
	}
	if f.Email != "" {
		add("email = lower($%d)", f.Email)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invitations`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invitations: %w", err)
	}
	query := `SELECT ` + invitationColumns + ` FROM invitations` + where + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()
	out := []*entity.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FindActive invitación pending/sent sin vencer para (email, companyID).
func (r *InvitationRepo) FindActive(ctx context.Context, email, companyID string, now time.Time) (*entity.Invitation, error) {
	inv, err := scanInvitation(r.db.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations
		WHERE email = lower($1) AND company_id = $2 AND status IN ('pending', 'sent') AND expires_at > $3
		ORDER BY created_at DESC LIMIT 1`, email, companyID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active invitation: %w", err)
	}
	return inv, nil
}

// ExpireOverdue marca como expired las pending/sent vencidas de (email, companyID).
func (r *InvitationRepo) ExpireOverdue(ctx context.Context, email, companyID string, now time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invitations SET status = 'expired', updated_at = $3
		 WHERE email = lower($1) AND company_id = $2 AND status IN ('pending', 'sent') AND expires_at <= $3`,
		email, companyID, now)
	if err != nil {
		return 0, fmt.Errorf("expire invitations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Stats conteo por estado; pending/sent vencidas cuentan como expired.
func (r *InvitationRepo) Stats(ctx context.Context, companyID string, now time.Time) (repository.InvitationStats, error) {
	st := repository.InvitationStats{ByStatus: map[string]int{}}
	rows, err := r.db.Query(ctx, `
		SELECT CASE WHEN status IN ('pending', 'sent') AND expires_at <= $2 THEN 'expired' ELSE status END AS st,
		       COUNT(*)
		  FROM invitations
		 WHERE ($1 = '' OR company_id = $1)
		 GROUP BY st`, companyID, now)
	if err != nil {
		return st, fmt.Errorf("invitation stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return st, err
		}
		st.Total += n
		st.ByStatus[status] += n
	}
	return st, rows.Err()
}
