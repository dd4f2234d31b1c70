package screens

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/defectscope/internal/ingest"
	"github.com/emilianohg/defectscope/internal/models"
	"github.com/emilianohg/defectscope/internal/repository"
)

type lookupMode int

const (
	lookupModeTriple lookupMode = iota
	lookupModeVIN
)

// Lookup is the entry screen: pick a vehicle by make/model/year or VIN,
// ingest it, then jump to its dashboard. Previously ingested vehicles
// are listed for direct selection without a new fetch.
type Lookup struct {
	db       *sql.DB
	pipeline *ingest.Pipeline
	width    int
	height   int

	mode   lookupMode
	inputs []textinput.Model
	focus  int

	vehicles []models.Vehicle
	cursor   int

	ingesting bool
	message   string
	err       error
}

func NewLookup(db *sql.DB, pipeline *ingest.Pipeline) *Lookup {
	l := &Lookup{
		db:       db,
		pipeline: pipeline,
	}
	l.buildInputs()
	return l
}

func (l *Lookup) SetSize(width, height int) {
	l.width = width
	l.height = height
}

func (l *Lookup) buildInputs() {
	if l.mode == lookupModeVIN {
		vin := textinput.New()
		vin.Placeholder = "VIN (17 characters)"
		vin.CharLimit = 17
		vin.Width = 30
		l.inputs = []textinput.Model{vin}
	} else {
		make := textinput.New()
		make.Placeholder = "Make (e.g. HONDA)"
		make.CharLimit = 50
		make.Width = 30

		model := textinput.New()
		model.Placeholder = "Model (e.g. ACCORD)"
		model.CharLimit = 50
		model.Width = 30

		year := textinput.New()
		year.Placeholder = "Year (e.g. 2021)"
		year.CharLimit = 4
		year.Width = 30

		l.inputs = []textinput.Model{make, model, year}
	}
	l.focus = 0
	l.inputs[0].Focus()
}

type lookupDataMsg struct {
	vehicles []models.Vehicle
	err      error
}

type ingestDoneMsg struct {
	result *ingest.Result
	err    error
}

func (l *Lookup) Init() tea.Cmd {
	l.ingesting = false
	l.message = ""
	return l.loadData
}

func (l *Lookup) loadData() tea.Msg {
	vehicleRepo := repository.NewVehicleRepo(l.db)
	vehicles, err := vehicleRepo.GetAll()
	return lookupDataMsg{vehicles: vehicles, err: err}
}

func (l *Lookup) runIngest() tea.Cmd {
	mode := l.mode
	values := make([]string, len(l.inputs))
	for i, in := range l.inputs {
		values[i] = strings.TrimSpace(in.Value())
	}

	return func() tea.Msg {
		ctx := context.Background()

		if mode == lookupModeVIN {
			_, result, err := l.pipeline.IngestVIN(ctx, values[0])
			return ingestDoneMsg{result: result, err: err}
		}

		year, err := strconv.Atoi(values[2])
		if err != nil {
			return ingestDoneMsg{err: fmt.Errorf("year must be a number")}
		}
		if values[0] == "" || values[1] == "" {
			return ingestDoneMsg{err: fmt.Errorf("make and model are required")}
		}

		result, err := l.pipeline.Ingest(ctx, values[0], values[1], year)
		return ingestDoneMsg{result: result, err: err}
	}
}

func (l *Lookup) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case lookupDataMsg:
		l.err = msg.err
		l.vehicles = msg.vehicles
		if l.cursor >= len(l.vehicles) {
			l.cursor = 0
		}
		return nil

	case ingestDoneMsg:
		l.ingesting = false
		if msg.err != nil {
			l.err = msg.err
			return nil
		}
		l.err = nil
		l.message = fmt.Sprintf("%d new complaints, %d new recalls",
			msg.result.NewComplaints, msg.result.NewRecalls)
		return NavigateWithVehicle("dashboard", msg.result.Vehicle.ID)

	case RefreshMsg:
		return l.Init()

	case tea.KeyMsg:
		if l.ingesting {
			return nil
		}

		switch msg.String() {
		case "ctrl+t":
			if l.mode == lookupModeVIN {
				l.mode = lookupModeTriple
			} else {
				l.mode = lookupModeVIN
			}
			l.buildInputs()
			return textinput.Blink

		case "tab", "down":
			return l.moveFocus(1)

		case "shift+tab", "up":
			return l.moveFocus(-1)

		case "enter":
			if l.focus < len(l.inputs) {
				l.ingesting = true
				l.err = nil
				l.message = ""
				return l.runIngest()
			}
			if len(l.vehicles) > 0 {
				return NavigateWithVehicle("dashboard", l.vehicles[l.cursor].ID)
			}
			return nil
		}
	}

	// Forward everything else to the focused input
	if l.focus < len(l.inputs) {
		var cmd tea.Cmd
		l.inputs[l.focus], cmd = l.inputs[l.focus].Update(msg)
		return cmd
	}

	return nil
}

// moveFocus cycles through the text inputs and then the cached vehicle
// list.
func (l *Lookup) moveFocus(delta int) tea.Cmd {
	// While on the vehicle list, up/down move the list cursor until it
	// runs off the top back into the form.
	if l.focus == len(l.inputs) {
		next := l.cursor + delta
		if next >= 0 && next < len(l.vehicles) {
			l.cursor = next
			return nil
		}
		if next >= len(l.vehicles) {
			return nil
		}
	}

	positions := len(l.inputs)
	if len(l.vehicles) > 0 {
		positions++
	}

	l.focus = (l.focus + delta + positions) % positions
	for i := range l.inputs {
		if i == l.focus {
			l.inputs[i].Focus()
		} else {
			l.inputs[i].Blur()
		}
	}
	if l.focus == len(l.inputs) {
		l.cursor = 0
	}
	return textinput.Blink
}

func (l *Lookup) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("DEFECTSCOPE"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Vehicle Defect Pattern Intelligence"))
	b.WriteString("\n\n")

	if l.mode == lookupModeVIN {
		b.WriteString(SubtitleStyle.Render("Lookup by VIN"))
	} else {
		b.WriteString(SubtitleStyle.Render("Lookup by Make / Model / Year"))
	}
	b.WriteString("\n")

	for i := range l.inputs {
		b.WriteString(l.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")

	if l.ingesting {
		b.WriteString(WarningStyle.Render("Fetching complaints and recalls from NHTSA..."))
		b.WriteString("\n")
	}
	if l.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", l.err)))
		b.WriteString("\n")
	}
	if l.message != "" {
		b.WriteString(SuccessStyle.Render(l.message))
		b.WriteString("\n")
	}

	if len(l.vehicles) > 0 {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("Cached vehicles"))
		b.WriteString("\n")
		for i, v := range l.vehicles {
			line := fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
			if l.focus == len(l.inputs) && i == l.cursor {
				b.WriteString(SelectedStyle.Render("> " + line))
			} else {
				b.WriteString(NormalStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString("\n")
		b.WriteString(DimStyle.Render("No vehicles cached yet. Enter one above and press enter."))
		b.WriteString("\n")
	}

	help := "[enter] Ingest/select  [tab] Next field  [ctrl+t] Toggle VIN mode  [q] Quit"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}
