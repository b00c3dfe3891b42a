// Package tui is the interactive terminal front end over a session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"animesearch/internal/session"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
)

type screen int

const (
	searchScreen screen = iota
	detailScreen
)

// changedMsg is delivered whenever the session reports a view change.
type changedMsg struct{}

type model struct {
	ctx  context.Context
	sess *session.Session
	keys keymap

	input   textinput.Model
	spinner spinner.Model

	screen   screen
	cursor   int
	detailID int
	view     session.View
	width    int
}

func newModel(ctx context.Context, sess *session.Session) *model {
	input := textinput.New()
	input.Placeholder = "Search anime..."
	input.Prompt = "🔍 "
	input.CharLimit = 100
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	return &model{
		ctx:     ctx,
		sess:    sess,
		keys:    newKeymap(),
		input:   input,
		spinner: sp,
		view:    sess.View(),
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// run performs a blocking session intent off the update loop. Results reach
// the model through the change channel.
func (m *model) run(fn func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		fn(ctx)
		return nil
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForChange(m.sess.Changes()))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case changedMsg:
		m.view = m.sess.View()
		m.clampCursor()
		return m, waitForChange(m.sess.Changes())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if m.screen == detailScreen {
			return m.updateDetail(msg)
		}
		return m.updateSearch(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.back) {
		m.screen = searchScreen
	}
	return m, nil
}

func (m *model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	suggestions := m.view.Suggestions

	switch {
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.down):
		if m.cursor < len(suggestions)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.complete):
		if rec, err := lo.Nth(suggestions, m.cursor); err == nil {
			m.input.SetValue(rec.Title)
			m.input.CursorEnd()
			m.cursor = 0
			m.sess.SelectSuggestion(rec.Title)
		}
		return m, nil

	case key.Matches(msg, m.keys.open):
		if rec, err := lo.Nth(suggestions, m.cursor); err == nil {
			m.screen = detailScreen
			m.detailID = rec.ID
			id := rec.ID
			return m, m.run(func(ctx context.Context) {
				_ = m.sess.NavigateToDetail(ctx, id)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.more):
		return m, m.run(func(ctx context.Context) {
			_, _ = m.sess.LoadMore(ctx)
		})

	case key.Matches(msg, m.keys.reset):
		m.input.SetValue("")
		m.cursor = 0
		m.sess.SetQuery("")
		m.sess.Reset()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.cursor = 0
		m.sess.SetQuery(after)
	}
	return m, cmd
}

func (m *model) clampCursor() {
	if n := len(m.view.Suggestions); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Anime Search"))
	b.WriteString("\n\n")

	if m.screen == detailScreen {
		b.WriteString(m.detailView())
		b.WriteString("\n\n" + m.help(m.keys.detailHelp()))
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.searchView())
	b.WriteString("\n\n" + m.help(m.keys.searchHelp()))
	return b.String()
}

func (m *model) searchView() string {
	st := m.view.State
	var b strings.Builder

	if st.Loading {
		b.WriteString(m.spinner.View() + " Loading...\n")
	}
	if st.Error != "" {
		b.WriteString(errorStyle.Render(st.Error) + "\n")
	}

	blank := strings.TrimSpace(m.view.Query) == ""
	switch {
	case blank:
		b.WriteString(boldStyle.Render("Trending Anime Recommendations") + "\n")
	default:
		b.WriteString(boldStyle.Render(fmt.Sprintf("Results (page %d)", max(st.CurrentPage, 1))) + "\n")
	}

	if len(m.view.Suggestions) == 0 {
		if !st.Loading && !blank {
			b.WriteString(faintStyle.Render("No results found."))
		}
		return b.String()
	}

	b.WriteString(List(m.view.Suggestions, m.cursor))
	if !blank && st.HasMore {
		b.WriteString("\n" + faintStyle.Render("ctrl+n for more results"))
	}
	return b.String()
}

func (m *model) detailView() string {
	st := m.view.State
	if st.Selected != nil && st.Selected.ID == m.detailID {
		return Detail(*st.Selected, m.width)
	}
	if st.Loading {
		return m.spinner.View() + " Loading details..."
	}
	if st.Error != "" {
		return errorStyle.Render(st.Error)
	}
	return faintStyle.Render("No details available.")
}

func (m *model) help(bindings []key.Binding) string {
	parts := lo.Map(bindings, func(b key.Binding, _ int) string {
		h := b.Help()
		return h.Key + " " + h.Desc
	})
	return faintStyle.Render(strings.Join(parts, " • "))
}

// Run drives sess in the terminal until the user quits or ctx is done.
func Run(ctx context.Context, sess *session.Session) error {
	p := tea.NewProgram(newModel(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
