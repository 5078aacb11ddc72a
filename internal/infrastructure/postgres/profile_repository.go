package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo implementación del puerto ProfileRepository sobre PostgreSQL.
type ProfileRepo struct {
	db Queryer
}

// NewProfileRepository construye el adaptador de persistencia para perfiles.
func NewProfileRepository(db Queryer) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, email, full_name, role_type, COALESCE(company_id, ''), status, job_title, department,
	preferences, password_hash, must_reset_password, last_login_at, created_at, updated_at`

// columnas de orden permitidas (evita inyección en ORDER BY).
var profileSortColumns = map[string]string{
	repository.SortByCreatedAt:   "created_at",
	repository.SortByEmail:       "email",
	repository.SortByFullName:    "full_name",
	repository.SortByRoleType:    "role_type",
	repository.SortByLastLoginAt: "last_login_at",
}

func scanProfile(row rowScanner) (*entity.Profile, error) {
	var p entity.Profile
	var prefs []byte
	if err := row.Scan(
		&p.ID, &p.Email, &p.FullName, &p.RoleType, &p.CompanyID, &p.Status, &p.JobTitle, &p.Department,
		&prefs, &p.PasswordHash, &p.MustResetPassword, &p.LastLoginAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m, err := decodeMap(prefs)
	if err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	p.Preferences = m
	return &p, nil
}

// Create persiste un nuevo perfil. Email duplicado: ErrDuplicate.
func (r *ProfileRepo) Create(ctx context.Context, p *entity.Profile) error {
	prefs, err := jsonOrEmpty(p.Preferences)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO profiles (id, email, full_name, role_type, company_id, status, job_title, department,
			preferences, password_hash, must_reset_password, last_login_at, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Email, p.FullName, p.RoleType, nullable(p.CompanyID), p.Status, p.JobTitle, p.Department,
		prefs, p.PasswordHash, p.MustResetPassword, p.LastLoginAt, p.CreatedAt, p.UpdatedAt,
	)
	return translate("insert profile", err)
}

// GetByID obtiene un perfil por ID.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetByEmail obtiene un perfil por email sin distinguir mayúsculas.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

// Update reemplaza los campos editables del perfil.
func (r *ProfileRepo) Update(ctx context.Context, p *entity.Profile) error {
	prefs, err := jsonOrEmpty(p.Preferences)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		   SET full_name = $2, role_type = $3, company_id = $4, status = $5, job_title = $6, department = $7,
		       preferences = $8, password_hash = $9, must_reset_password = $10, last_login_at = $11, updated_at = $12
		 WHERE id = $1`,
		p.ID, p.FullName, p.RoleType, nullable(p.CompanyID), p.Status, p.JobTitle, p.Department,
		prefs, p.PasswordHash, p.MustResetPassword, p.LastLoginAt, p.UpdatedAt,
	)
	return expectOne(tag, err, "update profile")
}

// Delete borrado físico; la acción de lote "delete" usa borrado lógico vía Update.
func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	return expectOne(tag, err, "delete profile")
}

// profileWhere arma el WHERE del listado con argumentos posicionales.
func profileWhere(f repository.ProfileFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.RoleType != "" {
		add("role_type = $%d", f.RoleType)
	}
	if f.CompanyID != "" {
		add("company_id = $%d", f.CompanyID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		args = append(args, pattern)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(lower(email) LIKE $%d OR lower(full_name) LIKE $%d)", n, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List devuelve la página pedida y el total filtrado.
func (r *ProfileRepo) List(ctx context.Context, f repository.ProfileFilter) ([]*entity.Profile, int, error) {
	where, args := profileWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	col, ok := profileSortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}
	query := `SELECT ` + profileColumns + ` FROM profiles` + where +
		fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id ASC", col, dir)
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
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()
	out := []*entity.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Stats conteos por rol y estado; companyID vacío = todos.
func (r *ProfileRepo) Stats(ctx context.Context, companyID string) (repository.ProfileStats, error) {
	st := repository.ProfileStats{ByRole: map[string]int{}, ByStatus: map[string]int{}}
	rows, err := r.db.Query(ctx, `
		SELECT role_type, status, COUNT(*)
		  FROM profiles
		 WHERE ($1 = '' OR company_id = $1)
		 GROUP BY role_type, status`, companyID)
	if err != nil {
		return st, fmt.Errorf("profile stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role, status string
		var n int
		if err := rows.Scan(&role, &status, &n); err != nil {
			return st, err
		}
		st.Total += n
		st.ByRole[role] += n
		st.ByStatus[status] += n
		if status == entity.UserStatusActive {
			st.Active += n
		}
	}
	return st, rows.Err()
}
