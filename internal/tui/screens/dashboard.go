package screens

import (
	"database/sql"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/defectscope/internal/config"
	"github.com/emilianohg/defectscope/internal/models"
	"github.com/emilianohg/defectscope/internal/queries"
	"github.com/emilianohg/defectscope/internal/repository"
)

// Dashboard shows the case-strength picture for one vehicle: complaint
// and recall volume, severity signals, most-reported components and the
// monthly filing trend.
type Dashboard struct {
	db     *sql.DB
	cfg    *config.Config
	width  int
	height int

	vehicleID int64

	vehicle        *models.Vehicle
	complaintCount int
	recallCount    int
	severity       *queries.SeveritySummary
	topComponents  []queries.ComponentCount
	trend          []queries.MonthCount
	loading        bool
	err            error
}

func NewDashboard(db *sql.DB, cfg *config.Config) *Dashboard {
	return &Dashboard{
		db:      db,
		cfg:     cfg,
		loading: true,
	}
}

func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

func (d *Dashboard) SetVehicle(vehicleID int64) {
	d.vehicleID = vehicleID
}

type dashboardDataMsg struct {
	vehicle        *models.Vehicle
	complaintCount int
	recallCount    int
	severity       *queries.SeveritySummary
	topComponents  []queries.ComponentCount
	trend          []queries.MonthCount
	err            error
}

func (d *Dashboard) Init() tea.Cmd {
	d.loading = true
	return d.loadData
}

func (d *Dashboard) loadData() tea.Msg {
	vehicleRepo := repository.NewVehicleRepo(d.db)
	q := queries.New(d.db)

	vehicle, err := vehicleRepo.GetByID(d.vehicleID)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	if vehicle == nil {
		return dashboardDataMsg{err: fmt.Errorf("vehicle not found; ingest it first")}
	}

	complaintCount, err := q.ComplaintCount(d.vehicleID)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	recallCount, err := q.RecallCount(d.vehicleID)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	severity, err := q.Severity(d.vehicleID)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	topComponents, err := q.TopComponents(d.vehicleID, d.cfg.TopComponents)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	trend, err := q.ComplaintsOverTime(d.vehicleID)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	return dashboardDataMsg{
		vehicle:        vehicle,
		complaintCount: complaintCount,
		recallCount:    recallCount,
		severity:       severity,
		topComponents:  topComponents,
		trend:          trend,
	}
}

func (d *Dashboard) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.loading = false
		d.err = msg.err
		d.vehicle = msg.vehicle
		d.complaintCount = msg.complaintCount
		d.recallCount = msg.recallCount
		d.severity = msg.severity
		d.topComponents = msg.topComponents
		d.trend = msg.trend
		return nil

	case RefreshMsg:
		return d.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			return Navigate("search")
		case "r":
			return Navigate("recalls")
		case "q", "esc":
			return Navigate("lookup")
		}
	}

	return nil
}

func (d *Dashboard) View() string {
	var b strings.Builder

	if d.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if d.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", d.err)))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[q] Back"))
		return b.String()
	}

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%d %s %s",
		d.vehicle.Year, d.vehicle.Make, d.vehicle.Model)))
	b.WriteString("\n")

	statsContent := fmt.Sprintf(
		"Complaints: %s\nRecalls:    %s",
		WarningStyle.Render(fmt.Sprintf("%d", d.complaintCount)),
		WarningStyle.Render(fmt.Sprintf("%d", d.recallCount)),
	)
	b.WriteString(BoxStyle.Render(statsContent))
	b.WriteString("\n\n")

	severityContent := fmt.Sprintf(
		"Crashes: %d   Fires: %d   Injuries: %d   Deaths: %d",
		d.severity.Crashes, d.severity.Fires, d.severity.Injuries, d.severity.Deaths,
	)
	b.WriteString(SubtitleStyle.Render("Severity signals"))
	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(severityContent))
	b.WriteString("\n\n")

	if len(d.topComponents) > 0 {
		b.WriteString(SubtitleStyle.Render("Top reported components"))
		b.WriteString("\n")
		for _, cc := range d.topComponents {
			b.WriteString(fmt.Sprintf("  %4d  %s\n", cc.Count, NormalStyle.Render(truncate(cc.Components, d.width-10))))
		}
		b.WriteString("\n")
	}

	if len(d.trend) > 0 {
		b.WriteString(SubtitleStyle.Render("Complaints per month"))
		b.WriteString("\n")
		max := 0
		for _, mc := range d.trend {
			if mc.Count > max {
				max = mc.Count
			}
		}
		for _, mc := range d.trend {
			bar := barWidth(mc.Count, max, 40)
			b.WriteString(fmt.Sprintf("  %s %4d %s\n",
				DimStyle.Render(mc.Month), mc.Count,
				SelectedStyle.Render(strings.Repeat("▇", bar))))
		}
	} else {
		b.WriteString(DimStyle.Render("No dated complaints to chart."))
		b.WriteString("\n")
	}

	help := "[s] Symptom search  [r] Recalls  [q] Back to lookup"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}

func barWidth(count, max, limit int) int {
	if max == 0 {
		return 0
	}
	w := count * limit / max
	if w == 0 {
		w = 1
	}
	return w
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
