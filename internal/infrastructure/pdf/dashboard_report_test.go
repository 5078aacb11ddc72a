package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/infrastructure/pdf"
)

func TestGenerateDashboardReport_Global(t *testing.T) {
	s := &dto.DashboardSummary{
		Users:       &dto.UserSection{Total: 7, Active: 6, ByRole: map[string]int{"gerente": 2, "empleado": 4, "corporativo": 1}},
		Invitations: &dto.InvitationSection{Total: 4, Pending: 2, AcceptanceRate: decimal.NewFromInt(25), ByStatus: map[string]int{"pending": 2}},
		Onboarding:  &dto.OnboardingSection{Total: 3, Completed: 1, AverageCompletion: decimal.NewFromInt(60)},
		OKRs:        &dto.OKRSection{Objectives: 3, KeyResults: 8, AverageProgress: decimal.RequireFromString("42.5")},
		RecentActivity: []dto.ActivityResponse{
			{Action: "invitation.created", TargetType: "invitation", TargetID: "inv-1", CreatedAt: time.Now()},
		},
		GeneratedAt: time.Now(),
		Scope:       "global",
	}

	out, err := pdf.NewMarotoReportGenerator("okr-api").GenerateDashboardReport(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateDashboardReport_Parcial(t *testing.T) {
	s := &dto.DashboardSummary{
		Users:       &dto.UserSection{Total: 4},
		Errors:      map[string]string{"invitations": "no disponible"},
		Partial:     true,
		GeneratedAt: time.Now(),
		Scope:       "company-1",
	}
	out, err := pdf.NewMarotoReportGenerator("okr-api").GenerateDashboardReport(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateDashboardReport_Nil(t *testing.T) {
	_, err := pdf.NewMarotoReportGenerator("okr-api").GenerateDashboardReport(context.Background(), nil)
	assert.Error(t, err)
}
