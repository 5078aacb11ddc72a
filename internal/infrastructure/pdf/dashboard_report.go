// Package pdf genera el reporte PDF del dashboard administrativo.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + alcance   │  Fecha de generación          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  KPIs: Usuarios | Invitaciones | Onboarding | OKR           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESGLOSES: por rol, por estado                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ACTIVIDAD RECIENTE (solo alcance global)                   │
//	│  SECCIONES NO DISPONIBLES (datos parciales)                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/ports"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorAlert   = &props.Color{Red: 180, Green: 40, Blue: 40}
)

// maxActivityRows filas de actividad incluidas en el reporte.
const maxActivityRows = 15

// MarotoReportGenerator implementa ports.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct {
	appName string
}

var _ ports.ReportGenerator = (*MarotoReportGenerator)(nil)

// NewMarotoReportGenerator construye el generador; appName aparece como autor del documento.
func NewMarotoReportGenerator(appName string) *MarotoReportGenerator {
	return &MarotoReportGenerator{appName: appName}
}

// GenerateDashboardReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateDashboardReport(ctx context.Context, s *dto.DashboardSummary) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("pdf: resumen vacío")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Dashboard administrativo OKR", true).
		WithAuthor(g.appName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(kpiRows(s)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if s.Users != nil {
		m.AddRows(breakdownRows("Usuarios por rol", s.Users.ByRole)...)
		m.AddRows(breakdownRows("Usuarios por estado", s.Users.ByStatus)...)
	}
	if s.Invitations != nil {
		m.AddRows(breakdownRows("Invitaciones por estado", s.Invitations.ByStatus)...)
	}
	if len(s.RecentActivity) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(activityRows(s.RecentActivity)...)
	}
	if len(s.Errors) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(errorRows(s.Errors)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(s *dto.DashboardSummary) core.Row {
	scope := "Alcance: global"
	if s.Scope != "global" {
		scope = "Alcance: empresa " + s.Scope
	}
	return row.New(18).Add(
		col.New(8).Add(
			text.New("DASHBOARD ADMINISTRATIVO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(scope, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Generado", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(s.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 9, Align: align.Right, Top: 7,
			}),
		),
	)
}

// kpiRows: cabecera azul y una fila de cifras por sección.
func kpiRows(s *dto.DashboardSummary) []core.Row {
	h := func(label string) core.Col {
		return col.New(3).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Center, Color: colorWhite, Top: 2,
		}))
	}
	header := row.New(8).Add(h("Usuarios"), h("Invitaciones"), h("Onboarding"), h("OKR"))
	header.WithStyle(&props.Cell{BackgroundColor: colorPrimary})

	v := func(lines ...string) core.Col {
		c := col.New(3)
		for i, l := range lines {
			c.Add(text.New(l, props.Text{Size: 8, Align: align.Center, Top: float64(1 + i*5)}))
		}
		return c
	}
	na := v("No disponible")

	users, invites, onboarding, okrs := na, na, na, na
	if u := s.Users; u != nil {
		users = v(fmt.Sprintf("Total: %d", u.Total), fmt.Sprintf("Activos: %d", u.Active))
	}
	if i := s.Invitations; i != nil {
		invites = v(fmt.Sprintf("Total: %d", i.Total), fmt.Sprintf("Pendientes: %d", i.Pending),
			"Aceptación: "+i.AcceptanceRate.StringFixed(1)+"%")
	}
	if o := s.Onboarding; o != nil {
		onboarding = v(fmt.Sprintf("Completados: %d/%d", o.Completed, o.Total),
			fmt.Sprintf("En curso: %d", o.InProgress),
			"Avance medio: "+o.AverageCompletion.StringFixed(1)+"%")
	} else if s.Scope != "global" {
		onboarding = v("Solo alcance global")
	}
	if k := s.OKRs; k != nil {
		okrs = v(fmt.Sprintf("Objetivos: %d", k.Objectives), fmt.Sprintf("KR: %d", k.KeyResults),
			"Progreso: "+k.AverageProgress.StringFixed(1)+"%")
	}
	return []core.Row{header, row.New(17).Add(users, invites, onboarding, okrs)}
}

// breakdownRows: tabla de dos columnas con las claves ordenadas.
func breakdownRows(title string, counts map[string]int) []core.Row {
	if len(counts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := []core.Row{row.New(7).Add(col.New(12).Add(text.New(title, props.Text{
		Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2,
	})))}
	for _, k := range keys {
		rows = append(rows, row.New(5).Add(
			col.New(6).Add(text.New(k, props.Text{Size: 8, Left: 4, Top: 1})),
			col.New(2).Add(text.New(fmt.Sprint(counts[k]), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(4),
		))
	}
	return rows
}

func activityRows(entries []dto.ActivityResponse) []core.Row {
	rows := []core.Row{row.New(7).Add(col.New(12).Add(text.New("Actividad reciente", props.Text{
		Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2,
	})))}
	if len(entries) > maxActivityRows {
		entries = entries[:maxActivityRows]
	}
	for _, e := range entries {
		rows = append(rows, row.New(5).Add(
			col.New(3).Add(text.New(e.CreatedAt.Format("02/01 15:04"), props.Text{Size: 7, Color: colorGray, Top: 1})),
			col.New(3).Add(text.New(e.Action, props.Text{Size: 7, Top: 1})),
			col.New(6).Add(text.New(e.TargetType+" "+e.TargetID, props.Text{Size: 7, Top: 1, Color: colorGray})),
		))
	}
	return rows
}

func errorRows(errs map[string]string) []core.Row {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := []core.Row{row.New(7).Add(col.New(12).Add(text.New("Secciones no disponibles (datos parciales)", props.Text{
		Style: fontstyle.Bold, Size: 9, Color: colorAlert, Top: 2,
	})))}
	for _, k := range keys {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(k+": "+errs[k], props.Text{Size: 7, Color: colorGray, Left: 4, Top: 1}),
		)))
	}
	return rows
}
