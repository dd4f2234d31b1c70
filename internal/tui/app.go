package tui

import (
	"database/sql"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/defectscope/internal/config"
	"github.com/emilianohg/defectscope/internal/ingest"
	"github.com/emilianohg/defectscope/internal/nhtsa"
	"github.com/emilianohg/defectscope/internal/tui/screens"
)

type Screen int

const (
	ScreenLookup Screen = iota
	ScreenDashboard
	ScreenRecalls
	ScreenSearch
)

type App struct {
	db            *sql.DB
	cfg           *config.Config
	currentScreen Screen
	width         int
	height        int

	// Screen models
	lookup    *screens.Lookup
	dashboard *screens.Dashboard
	recalls   *screens.Recalls
	search    *screens.Search

	// Navigation context
	selectedVehicleID *int64
}

func NewApp(db *sql.DB, cfg *config.Config) *App {
	return &App{
		db:            db,
		cfg:           cfg,
		currentScreen: ScreenLookup,
	}
}

func (a *App) Init() tea.Cmd {
	pipeline := ingest.NewWithDB(a.db, nhtsa.NewClient(a.cfg))

	a.lookup = screens.NewLookup(a.db, pipeline)
	a.dashboard = screens.NewDashboard(a.db, a.cfg)
	a.recalls = screens.NewRecalls(a.db)
	a.search = screens.NewSearch(a.db, a.cfg)

	return a.lookup.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.currentScreen == ScreenLookup {
				return a, tea.Quit
			}
			// Let individual screens handle 'q' for going back
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.lookup.SetSize(msg.Width, msg.Height)
		a.dashboard.SetSize(msg.Width, msg.Height)
		a.recalls.SetSize(msg.Width, msg.Height)
		a.search.SetSize(msg.Width, msg.Height)

	case screens.NavigateMsg:
		return a.handleNavigation(msg)
	}

	// Update current screen
	var cmd tea.Cmd
	switch a.currentScreen {
	case ScreenLookup:
		cmd = a.lookup.Update(msg)
	case ScreenDashboard:
		cmd = a.dashboard.Update(msg)
	case ScreenRecalls:
		cmd = a.recalls.Update(msg)
	case ScreenSearch:
		cmd = a.search.Update(msg)
	}

	return a, cmd
}

func (a *App) handleNavigation(msg screens.NavigateMsg) (tea.Model, tea.Cmd) {
	if msg.VehicleID != nil {
		a.selectedVehicleID = msg.VehicleID
	}

	switch msg.Screen {
	case "lookup":
		a.currentScreen = ScreenLookup
		return a, a.lookup.Init()
	case "dashboard":
		a.currentScreen = ScreenDashboard
		if a.selectedVehicleID != nil {
			a.dashboard.SetVehicle(*a.selectedVehicleID)
		}
		return a, a.dashboard.Init()
	case "recalls":
		a.currentScreen = ScreenRecalls
		if a.selectedVehicleID != nil {
			a.recalls.SetVehicle(*a.selectedVehicleID)
		}
		return a, a.recalls.Init()
	case "search":
		a.currentScreen = ScreenSearch
		if a.selectedVehicleID != nil {
			a.search.SetVehicle(*a.selectedVehicleID)
		}
		return a, a.search.Init()
	}
	return a, nil
}

func (a *App) View() string {
	var content string

	switch a.currentScreen {
	case ScreenLookup:
		content = a.lookup.View()
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenRecalls:
		content = a.recalls.View()
	case ScreenSearch:
		content = a.search.View()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		Render(content)
}

func Run(db *sql.DB, cfg *config.Config) error {
	app := NewApp(db, cfg)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
