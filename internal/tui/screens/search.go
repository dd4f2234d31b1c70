package screens

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/defectscope/internal/config"
	"github.com/emilianohg/defectscope/internal/queries"
)

// Search runs symptom text searches over a vehicle's complaint
// summaries and components ("transmission slipping", "stalling", ...).
type Search struct {
	db     *sql.DB
	cfg    *config.Config
	width  int
	height int

	vehicleID int64

	input    textinput.Model
	hits     []queries.SymptomHit
	searched bool
	err      error
}

func NewSearch(db *sql.DB, cfg *config.Config) *Search {
	ti := textinput.New()
	ti.Placeholder = "Symptom text (e.g. transmission)"
	ti.CharLimit = 100
	ti.Width = 40

	return &Search{
		db:    db,
		cfg:   cfg,
		input: ti,
	}
}

func (s *Search) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s *Search) SetVehicle(vehicleID int64) {
	s.vehicleID = vehicleID
	s.hits = nil
	s.searched = false
	s.input.SetValue("")
}

type searchDataMsg struct {
	hits []queries.SymptomHit
	err  error
}

func (s *Search) Init() tea.Cmd {
	s.input.Focus()
	return textinput.Blink
}

func (s *Search) runSearch() tea.Cmd {
	text := strings.TrimSpace(s.input.Value())
	return func() tea.Msg {
		q := queries.New(s.db)
		hits, err := q.SearchBySymptom(s.vehicleID, text, s.cfg.SearchLimit)
		return searchDataMsg{hits: hits, err: err}
	}
}

func (s *Search) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case searchDataMsg:
		s.searched = true
		s.err = msg.err
		s.hits = msg.hits
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if strings.TrimSpace(s.input.Value()) != "" {
				return s.runSearch()
			}
			return nil
		case "esc":
			return Navigate("dashboard")
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (s *Search) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Symptom Search"))
	b.WriteString("\n")
	b.WriteString(s.input.View())
	b.WriteString("\n\n")

	if s.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", s.err)))
		b.WriteString("\n")
	}

	if s.searched {
		if len(s.hits) == 0 {
			b.WriteString(DimStyle.Render("No complaints match."))
			b.WriteString("\n")
		} else {
			b.WriteString(SubtitleStyle.Render(fmt.Sprintf("%d matching complaints", len(s.hits))))
			b.WriteString("\n")
			for _, h := range s.hits {
				date := "(no date)"
				if h.DateComplaintFiled != nil {
					date = h.DateComplaintFiled.Format("2006-01-02")
				}
				summary := ""
				if h.Summary != nil {
					summary = *h.Summary
				}
				line := fmt.Sprintf("%s  %s  %s", h.ODINumber, date, summary)
				b.WriteString(NormalStyle.Render(truncate(line, s.width-2)))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString(HelpStyle.Render("[enter] Search  [esc] Back to dashboard"))

	return b.String()
}
