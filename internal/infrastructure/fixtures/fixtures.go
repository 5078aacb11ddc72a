// Package fixtures carga los datos de desarrollo embebidos (YAML) y los siembra
// a través de los repositorios, de modo que sirven igual para memoria y Postgres.
package fixtures

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/domain/entity"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Set contenido del archivo de fixtures.
type Set struct {
	Organizations []Organization `yaml:"organizations"`
	Profiles      []Profile      `yaml:"profiles"`
	Invitations   []Invitation   `yaml:"invitations"`
}

// Organization organización de desarrollo.
type Organization struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Slug          string `yaml:"slug"`
	Industry      string `yaml:"industry"`
	Size          string `yaml:"size"`
	EmployeeCount int    `yaml:"employee_count"`
	Website       string `yaml:"website"`
	Country       string `yaml:"country"`
	OwnerID       string `yaml:"owner_id"`
}

// Profile usuario de desarrollo. Password en claro; se guarda su hash bcrypt.
type Profile struct {
	ID         string `yaml:"id"`
	Email      string `yaml:"email"`
	FullName   string `yaml:"full_name"`
	RoleType   string `yaml:"role_type"`
	CompanyID  string `yaml:"company_id"`
	Status     string `yaml:"status"`
	JobTitle   string `yaml:"job_title"`
	Department string `yaml:"department"`
	Password   string `yaml:"password"`
}

// Invitation invitación de desarrollo; ExpiresInDays es relativo al momento de sembrar.
type Invitation struct {
	ID             string `yaml:"id"`
	Email          string `yaml:"email"`
	CompanyID      string `yaml:"company_id"`
	RoleType       string `yaml:"role_type"`
	InvitationCode string `yaml:"invitation_code"`
	Status         string `yaml:"status"`
	InvitedBy      string `yaml:"invited_by"`
	Message        string `yaml:"message"`
	ExpiresInDays  int    `yaml:"expires_in_days"`
}

// Default fixtures embebidos en el binario.
func Default() (*Set, error) {
	return Parse(defaultFixtures)
}

// Parse decodifica y valida un archivo de fixtures.
func Parse(raw []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("fixtures: yaml: %w", err)
	}
	for _, p := range set.Profiles {
		if p.ID == "" || p.Email == "" {
			return nil, fmt.Errorf("fixtures: perfil sin id o email")
		}
		if !entity.IsValidRole(p.RoleType) {
			return nil, fmt.Errorf("fixtures: rol %q inválido para %s", p.RoleType, p.Email)
		}
	}
	return &set, nil
}

// Result conteo de registros insertados (los existentes se omiten).
type Result struct {
	Organizations int
	Profiles      int
	Invitations   int
}

// Seed inserta los fixtures que no existan. Es idempotente.
func Seed(ctx context.Context, repos ports.Repositories, set *Set, now time.Time) (Result, error) {
	var res Result
	// los perfiles van primero: organizations.owner_id los referencia
	for _, f := range set.Profiles {
		existing, err := repos.Profiles.GetByID(ctx, f.ID)
		if err != nil {
			return res, err
		}
		if existing != nil {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), bcrypt.DefaultCost)
		if err != nil {
			return res, err
		}
		status := f.Status
		if status == "" {
			status = entity.UserStatusActive
		}
		p := &entity.Profile{
			ID:           f.ID,
			Email:        strings.ToLower(f.Email),
			FullName:     f.FullName,
			RoleType:     f.RoleType,
			Status:       status,
			JobTitle:     f.JobTitle,
			Department:   f.Department,
			PasswordHash: string(hash),
			Preferences:  map[string]any{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repos.Profiles.Create(ctx, p); err != nil {
			return res, fmt.Errorf("fixtures: perfil %s: %w", f.Email, err)
		}
		res.Profiles++
	}
	for _, f := range set.Organizations {
		existing, err := repos.Organizations.GetByID(ctx, f.ID)
		if err != nil {
			return res, err
		}
		if existing == nil {
			o := &entity.Organization{
				ID:            f.ID,
				Name:          f.Name,
				Slug:          f.Slug,
				Industry:      f.Industry,
				Size:          f.Size,
				EmployeeCount: f.EmployeeCount,
				Website:       f.Website,
				Country:       f.Country,
				TeamStructure: []byte("{}"),
				OwnerID:       f.OwnerID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := repos.Organizations.Create(ctx, o); err != nil {
				return res, fmt.Errorf("fixtures: organización %s: %w", f.Slug, err)
			}
			res.Organizations++
		}
		if f.OwnerID != "" {
			if err := repos.Organizations.AddMember(ctx, &entity.OrganizationMember{
				OrganizationID: f.ID, UserID: f.OwnerID, Role: entity.MemberOwner, JoinedAt: now,
			}); err != nil {
				return res, err
			}
		}
	}
	// company_id se asigna cuando la organización ya existe
	for _, f := range set.Profiles {
		if f.CompanyID == "" {
			continue
		}
		p, err := repos.Profiles.GetByID(ctx, f.ID)
		if err != nil {
			return res, err
		}
		if p == nil || p.CompanyID != "" {
			continue
		}
		p.CompanyID = f.CompanyID
		if err := repos.Profiles.Update(ctx, p); err != nil {
			return res, err
		}
		if err := repos.Organizations.AddMember(ctx, &entity.OrganizationMember{
			OrganizationID: f.CompanyID, UserID: f.ID, Role: entity.MemberMember, JoinedAt: now,
		}); err != nil {
			return res, err
		}
	}
	for _, f := range set.Invitations {
		existing, err := repos.Invitations.GetByID(ctx, f.ID)
		if err != nil {
			return res, err
		}
		if existing != nil {
			continue
		}
		inv := &entity.Invitation{
			ID:             f.ID,
			Email:          strings.ToLower(f.Email),
			CompanyID:      f.CompanyID,
			RoleType:       f.RoleType,
			InvitationCode: f.InvitationCode,
			Status:         f.Status,
			InvitedBy:      f.InvitedBy,
			Message:        f.Message,
			ExpiresAt:      now.AddDate(0, 0, f.ExpiresInDays),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repos.Invitations.Create(ctx, inv); err != nil {
			return res, fmt.Errorf("fixtures: invitación %s: %w", f.Email, err)
		}
		res.Invitations++
	}
	return res, nil
}
