package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

// OrganizationRepo organizaciones y membresías sobre PostgreSQL.
type OrganizationRepo struct {
	db Queryer
}

// NewOrganizationRepository construye el repositorio.
func NewOrganizationRepository(db Queryer) *OrganizationRepo {
	return &OrganizationRepo{db: db}
}

const organizationColumns = `id, name, slug, industry, size, employee_count, website, country, description,
	insights, team_structure, owner_id, created_at, updated_at`

func scanOrganization(row rowScanner) (*entity.Organization, error) {
	var o entity.Organization
	if err := row.Scan(
		&o.ID, &o.Name, &o.Slug, &o.Industry, &o.Size, &o.EmployeeCount, &o.Website, &o.Country, &o.Description,
		&o.Insights, &o.TeamStructure, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func teamStructure(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}

// Create inserta la organización. Slug duplicado: ErrDuplicate.
func (r *OrganizationRepo) Create(ctx context.Context, o *entity.Organization) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO organizations (id, name, slug, industry, size, employee_count, website, country, description,
			insights, team_structure, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.Name, o.Slug, o.Industry, o.Size, o.EmployeeCount, o.Website, o.Country, o.Description,
		o.Insights, teamStructure(o.TeamStructure), o.OwnerID, o.CreatedAt, o.UpdatedAt,
	)
	return translate("insert organization", err)
}

func (r *OrganizationRepo) get(ctx context.Context, where string, arg any) (*entity.Organization, error) {
	o, err := scanOrganization(r.db.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}

// GetByID obtiene una organización por ID.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	return r.get(ctx, "id = $1", id)
}

// GetBySlug obtiene una organización por slug.
func (r *OrganizationRepo) GetBySlug(ctx context.Context, slug string) (*entity.Organization, error) {
	return r.get(ctx, "slug = $1", slug)
}

// Update reemplaza los datos de la organización.
func (r *OrganizationRepo) Update(ctx context.Context, o *entity.Organization) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE organizations
		   SET name = $2, slug = $3, industry = $4, size = $5, employee_count = $6, website = $7, country = $8,
		       description = $9, insights = $10, team_structure = $11, updated_at = $12
		 WHERE id = $1`,
		o.ID, o.Name, o.Slug, o.Industry, o.Size, o.EmployeeCount, o.Website, o.Country,
		o.Description, o.Insights, teamStructure(o.TeamStructure), o.UpdatedAt,
	)
	return expectOne(tag, err, "update organization")
}

// AddMember es idempotente; organización o usuario inexistente: ErrNotFound.
func (r *OrganizationRepo) AddMember(ctx context.Context, m *entity.OrganizationMember) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, user_id) DO NOTHING`,
		m.OrganizationID, m.UserID, m.Role, m.JoinedAt,
	)
	return translate("add member", err)
}

// ListMembers miembros por fecha de ingreso.
func (r *OrganizationRepo) ListMembers(ctx context.Context, organizationID string) ([]*entity.OrganizationMember, error) {
	rows, err := r.db.Query(ctx, `
		SELECT organization_id, user_id, role, joined_at
		  FROM organization_members
		 WHERE organization_id = $1
		 ORDER BY joined_at, user_id`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	out := []*entity.OrganizationMember{}
	for rows.Next() {
		var m entity.OrganizationMember
		if err := rows.Scan(&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Count total de organizaciones.
func (r *OrganizationRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count organizations: %w", err)
	}
	return n, nil
}
