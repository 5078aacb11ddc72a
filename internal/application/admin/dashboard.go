package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/internal/domain/entity"
	"github.com/jhoicas/okr-api/internal/domain/repository"
)

const (
	dashboardActivity = 10
	scopeGlobal       = "global"
)

// MsgSectionUnavailable texto de Errors para una sección que falló; la causa solo va al log.
const MsgSectionUnavailable = "no se pudo cargar la sección"

// ErrDashboardUnavailable ninguna sección del dashboard pudo calcularse.
var ErrDashboardUnavailable = errors.New("dashboard: ninguna sección disponible")

// DashboardUseCase resumen administrativo.
//
// Las secciones se consultan en paralelo y cada una se resuelve por separado:
// una sección que falla queda en nil y marcada en Errors, el resto se devuelve.
type DashboardUseCase struct {
	profiles    repository.ProfileRepository
	invitations repository.InvitationRepository
	sessions    repository.SessionRepository
	okrs        repository.OKRRepository
	orgs        repository.OrganizationRepository
	activity    repository.ActivityRepository
	reports     ports.ReportGenerator
	log         zerolog.Logger
	now         func() time.Time
}

// NewDashboardUseCase construye el caso de uso. activity y reports pueden ser nil.
func NewDashboardUseCase(
	repos ports.Repositories,
	activity repository.ActivityRepository,
	reports ports.ReportGenerator,
	log zerolog.Logger,
) *DashboardUseCase {
	return &DashboardUseCase{
		profiles:    repos.Profiles,
		invitations: repos.Invitations,
		sessions:    repos.Sessions,
		okrs:        repos.OKRs,
		orgs:        repos.Organizations,
		activity:    activity,
		reports:     reports,
		log:         log,
		now:         time.Now,
	}
}

type sectionResult[T any] struct {
	data T
	err  error
}

// fetch ejecuta fn en una goroutine y entrega el resultado por un canal con buffer.
func fetch[T any](fn func() (T, error)) <-chan sectionResult[T] {
	ch := make(chan sectionResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				ch <- sectionResult[T]{zero, fmt.Errorf("panic: %v", r)}
			}
		}()
		data, err := fn()
		ch <- sectionResult[T]{data, err}
	}()
	return ch
}

// Summary construye el dashboard. Los corporativos ven datos globales (incluida la
// actividad y el onboarding); el resto, solo su empresa.
func (uc *DashboardUseCase) Summary(ctx context.Context, caller *entity.Profile) (*dto.DashboardSummary, error) {
	scope, err := scopeCompany(caller)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	global := scope == ""

	usersCh := fetch(func() (*dto.UserSection, error) { return uc.userSection(ctx, scope) })
	invCh := fetch(func() (*dto.InvitationSection, error) { return uc.invitationSection(ctx, scope, now) })
	okrCh := fetch(func() (*dto.OKRSection, error) { return uc.okrSection(ctx, scope) })
	var onbCh <-chan sectionResult[*dto.OnboardingSection]
	var actCh <-chan sectionResult[[]dto.ActivityResponse]
	if global {
		onbCh = fetch(func() (*dto.OnboardingSection, error) { return uc.onboardingSection(ctx) })
		if uc.activity != nil {
			actCh = fetch(func() ([]dto.ActivityResponse, error) {
				entries, err := uc.activity.ListRecent(ctx, dashboardActivity)
				if err != nil {
					return nil, err
				}
				return toActivityResponses(entries), nil
			})
		}
	}

	summary := &dto.DashboardSummary{
		RecentActivity: []dto.ActivityResponse{},
		Errors:         map[string]string{},
		GeneratedAt:    now,
		Scope:          scopeGlobal,
	}
	if !global {
		summary.Scope = scope
	}
	requested := 3

	fail := func(section string, err error) {
		uc.log.Error().Err(err).Str("section", section).Msg("sección del dashboard falló")
		summary.Errors[section] = MsgSectionUnavailable
	}
	if r := <-usersCh; r.err != nil {
		fail(dto.SectionUsers, r.err)
	} else {
		summary.Users = r.data
	}
	if r := <-invCh; r.err != nil {
		fail(dto.SectionInvitations, r.err)
	} else {
		summary.Invitations = r.data
	}
	if r := <-okrCh; r.err != nil {
		fail(dto.SectionOKRs, r.err)
	} else {
		summary.OKRs = r.data
	}
	if onbCh != nil {
		requested++
		if r := <-onbCh; r.err != nil {
			fail(dto.SectionOnboarding, r.err)
		} else {
			summary.Onboarding = r.data
		}
	}
	if actCh != nil {
		requested++
		if r := <-actCh; r.err != nil {
			fail(dto.SectionActivity, r.err)
		} else {
			summary.RecentActivity = r.data
		}
	}

	if len(summary.Errors) == requested {
		return nil, ErrDashboardUnavailable
	}
	if len(summary.Errors) > 0 {
		summary.Partial = true
	} else {
		summary.Errors = nil
	}
	return summary, nil
}

// Report renderiza el resumen como PDF.
func (uc *DashboardUseCase) Report(ctx context.Context, caller *entity.Profile) ([]byte, error) {
	if uc.reports == nil {
		return nil, errors.New("dashboard: generador de reportes no configurado")
	}
	summary, err := uc.Summary(ctx, caller)
	if err != nil {
		return nil, err
	}
	return uc.reports.GenerateDashboardReport(ctx, summary)
}

func (uc *DashboardUseCase) userSection(ctx context.Context, companyID string) (*dto.UserSection, error) {
	st, err := uc.profiles.Stats(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &dto.UserSection{Total: st.Total, Active: st.Active, ByRole: st.ByRole, ByStatus: st.ByStatus}, nil
}

func (uc *DashboardUseCase) invitationSection(ctx context.Context, companyID string, now time.Time) (*dto.InvitationSection, error) {
	st, err := uc.invitations.Stats(ctx, companyID, now)
	if err != nil {
		return nil, err
	}
	accepted := st.ByStatus[entity.InvitationAccepted]
	return &dto.InvitationSection{
		Total:          st.Total,
		Pending:        st.ByStatus[entity.InvitationPending] + st.ByStatus[entity.InvitationSent],
		Accepted:       accepted,
		ByStatus:       st.ByStatus,
		AcceptanceRate: percent(accepted, st.Total),
	}, nil
}

func (uc *DashboardUseCase) onboardingSection(ctx context.Context) (*dto.OnboardingSection, error) {
	st, err := uc.sessions.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.OnboardingSection{
		Total:             st.Total,
		InProgress:        st.InProgress,
		Completed:         st.Completed,
		Expired:           st.Expired,
		AverageCompletion: st.AverageCompletion.Round(2),
		CompletionRate:    percent(st.Completed, st.Total),
	}, nil
}

func (uc *DashboardUseCase) okrSection(ctx context.Context, companyID string) (*dto.OKRSection, error) {
	st, err := uc.okrs.Stats(ctx, companyID)
	if err != nil {
		return nil, err
	}
	orgs := 0
	if companyID == "" {
		if orgs, err = uc.orgs.Count(ctx); err != nil {
			return nil, err
		}
	} else {
		org, err := uc.orgs.GetByID(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if org != nil {
			orgs = 1
		}
	}
	return &dto.OKRSection{
		Organizations:   orgs,
		Objectives:      st.Objectives,
		KeyResults:      st.KeyResults,
		AverageProgress: st.AverageProgress.Round(2),
	}, nil
}

// percent part/total*100 con 2 decimales; 0 si total es 0.
func percent(part, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(total))).Round(2)
}
