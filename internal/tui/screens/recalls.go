package screens

import (
	"database/sql"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/defectscope/internal/models"
	"github.com/emilianohg/defectscope/internal/repository"
)

// Recalls lists the recall campaigns cached for one vehicle, newest
// report first, with the full text of the selected campaign expanded.
type Recalls struct {
	db     *sql.DB
	width  int
	height int

	vehicleID int64

	vehicle *models.Vehicle
	recalls []models.Recall
	cursor  int
	loading bool
	err     error
}

func NewRecalls(db *sql.DB) *Recalls {
	return &Recalls{
		db:      db,
		loading: true,
	}
}

func (r *Recalls) SetSize(width, height int) {
	r.width = width
	r.height = height
}

func (r *Recalls) SetVehicle(vehicleID int64) {
	r.vehicleID = vehicleID
	r.cursor = 0
}

type recallsDataMsg struct {
	vehicle *models.Vehicle
	recalls []models.Recall
	err     error
}

func (r *Recalls) Init() tea.Cmd {
	r.loading = true
	return r.loadData
}

func (r *Recalls) loadData() tea.Msg {
	vehicleRepo := repository.NewVehicleRepo(r.db)
	recallRepo := repository.NewRecallRepo(r.db)

	vehicle, err := vehicleRepo.GetByID(r.vehicleID)
	if err != nil {
		return recallsDataMsg{err: err}
	}

	recalls, err := recallRepo.GetByVehicleID(r.vehicleID)
	if err != nil {
		return recallsDataMsg{err: err}
	}

	return recallsDataMsg{vehicle: vehicle, recalls: recalls}
}

func (r *Recalls) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case recallsDataMsg:
		r.loading = false
		r.err = msg.err
		r.vehicle = msg.vehicle
		r.recalls = msg.recalls
		if r.cursor >= len(r.recalls) {
			r.cursor = 0
		}
		return nil

	case RefreshMsg:
		return r.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if r.cursor > 0 {
				r.cursor--
			}
		case "down", "j":
			if r.cursor < len(r.recalls)-1 {
				r.cursor++
			}
		case "q", "esc":
			return Navigate("dashboard")
		}
	}

	return nil
}

func (r *Recalls) View() string {
	var b strings.Builder

	if r.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if r.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", r.err)))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[q] Back"))
		return b.String()
	}

	if r.vehicle != nil {
		b.WriteString(TitleStyle.Render(fmt.Sprintf("Recalls — %d %s %s",
			r.vehicle.Year, r.vehicle.Make, r.vehicle.Model)))
		b.WriteString("\n")
	}

	if len(r.recalls) == 0 {
		b.WriteString(DimStyle.Render("No recall campaigns cached for this vehicle."))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[q] Back"))
		return b.String()
	}

	for i, rec := range r.recalls {
		date := "(no date)"
		if rec.ReportReceivedDate != nil {
			date = rec.ReportReceivedDate.Format("2006-01-02")
		}
		component := ""
		if rec.Component != nil {
			component = *rec.Component
		}
		line := fmt.Sprintf("%s  %s  %s", rec.CampaignNumber, date, component)

		if i == r.cursor {
			b.WriteString(SelectedStyle.Render("> " + truncate(line, r.width-4)))
		} else {
			b.WriteString(NormalStyle.Render("  " + truncate(line, r.width-4)))
		}
		b.WriteString("\n")
	}

	// Detail panel for the selected campaign
	sel := r.recalls[r.cursor]
	var detail strings.Builder
	if sel.Summary != nil {
		detail.WriteString("Summary: " + *sel.Summary + "\n")
	}
	if sel.Consequence != nil {
		detail.WriteString("Consequence: " + *sel.Consequence + "\n")
	}
	if sel.Remedy != nil {
		detail.WriteString("Remedy: " + *sel.Remedy + "\n")
	}
	if sel.Notes != nil {
		detail.WriteString("Notes: " + *sel.Notes + "\n")
	}
	if detail.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(r.width - 4).Render(strings.TrimRight(detail.String(), "\n")))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("[↑/↓] Select  [q] Back to dashboard"))

	return b.String()
}
