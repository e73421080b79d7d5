package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/desertthunder/roastx/internal/wizard"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MenuView ViewState = iota
	PartnerView
	SlideView
	HistoryView
)

const (
	msgUnknownUser  = "Username does not exist. Please retype it."
	msgCheckFailed  = "An error occurred. Please try again."
	msgStartFailed  = "Could not create the roast. Slides will keep loading."
	msgNoHistory    = "No roasts yet."
	guestName       = "Guest"
	loadingMenuText = "Checking your session..."
)

// Options wires a [Model] to its collaborators.
type Options struct {
	Service services.RoastService
	Session *models.Session
	Store   models.SessionStore // optional; the session is saved after each change
	Records models.RecordLog    // optional
	Logger  *log.Logger         // file logger, never stdout
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	svc     services.RoastService
	wizard  *wizard.Wizard
	sess    *models.Session
	store   models.SessionStore
	logger  *log.Logger
	width   int
	height  int
	ready   bool
	user    string
	partner textinput.Model
	history list.Model
	hasList bool
	current wizard.View
	loading bool
	spinner spinner.Model
	popup   string
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	sess := opts.Session
	if sess == nil {
		sess = models.NewSession(0)
	}

	wiz := wizard.New(opts.Service, logger)
	if opts.Records != nil {
		wiz.WithRecordLog(opts.Records)
	}

	input := textinput.New()
	input.Placeholder = "Enter Friend's Username"
	input.CharLimit = 150

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:     ctx,
		view:    MenuView,
		svc:     opts.Service,
		wizard:  wiz,
		sess:    sess,
		store:   opts.Store,
		logger:  logger,
		partner: input,
		spinner: sp,
		loading: true,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Err is the fatal error that ended the program, if any.
func (m *Model) Err() error { return m.err }

// Init checks the remote session and fetches the username.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchUser())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.hasList {
			m.history.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.err != nil {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.view {
		case MenuView:
			return m.handleMenuKeys(msg)
		case PartnerView:
			return m.handlePartnerKeys(msg)
		case SlideView:
			return m.handleSlideKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == HistoryView && m.hasList {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgUserLoaded:
		data := msg.data.(userLoaded)
		m.loading = false
		switch {
		case data.err != nil:
			m.err = fmt.Errorf("failed to check session: %w", data.err)
			return m, nil
		case !data.authenticated:
			m.err = fmt.Errorf("%w: run `roastx auth login` first", shared.ErrNotAuthenticated)
			return m, nil
		}
		m.showMenu(data.username)
		return m, nil

	case MsgPartnerChecked:
		data := msg.data.(partnerChecked)
		m.loading = false
		switch {
		case data.err != nil:
			m.logger.Warn("username check failed", "username", data.partner, "error", data.err)
			m.popup = msgCheckFailed
			return m, nil
		case !data.exists:
			m.popup = msgUnknownUser
			return m, nil
		}
		m.partner.Blur()
		m.sess.SetDuo(data.partner)
		return m, m.startRecord()

	case MsgRecordStarted:
		data := msg.data.(recordStarted)
		if data.err != nil {
			m.logger.Warn("record creation failed", "duo", m.sess.IsDuo(), "error", data.err)
			m.popup = msgStartFailed
		}
		m.persist()
		return m, m.showSlide(wizard.Title)

	case MsgSlideLoaded:
		view := msg.data.(wizard.View)
		if m.view != SlideView || view.Slide != m.current.Slide {
			return m, nil
		}
		m.current = view
		m.loading = false
		m.persist()
		return m, nil

	case MsgHistoryLoaded:
		data := msg.data.(historyLoaded)
		m.loading = false
		if data.err != nil {
			m.logger.Warn("failed to fetch history", "error", data.err)
			m.loading = true
			return m, nil
		}
		m.history = list.New(historyItems(data.entries), list.NewDefaultDelegate(), 0, 0)
		m.history.Title = "Past Roasts"
		m.history.SetSize(max(m.width-4, 20), max(m.height-6, 10))
		m.hasList = true
		if len(data.entries) == 0 {
			m.popup = msgNoHistory
		}
		return m, nil
	}
	return m, nil
}

// showMenu is the dashboard: it marks the active record pending.
func (m *Model) showMenu(username string) {
	if username != "" {
		m.user = username
		m.sess.Set(models.KeyUser1, username)
	}
	m.view = MenuView
	m.ready = true
	m.loading = false
	m.sess.ResetRecord()
	m.persist()
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.ready || m.loading {
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.left):
		m.shiftRange(-1)
	case key.Matches(msg, m.keys.right):
		m.shiftRange(1)
	case key.Matches(msg, m.keys.enter):
		m.popup = ""
		m.sess.SetSolo()
		return m, m.startRecord()
	case key.Matches(msg, m.keys.duo):
		m.popup = ""
		m.view = PartnerView
		m.partner.SetValue("")
		return m, m.partner.Focus()
	case key.Matches(msg, m.keys.history):
		m.popup = ""
		m.view = HistoryView
		m.loading = true
		m.hasList = false
		return m, tea.Batch(m.spinner.Tick, m.fetchHistory())
	}
	return m, nil
}

func (m *Model) shiftRange(delta int) {
	tr := models.TimeRange(int(m.sess.TimeRange()) + delta)
	if !tr.Valid() {
		return
	}
	m.sess.SetTimeRange(tr)
	m.persist()
}

func (m *Model) handlePartnerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.partner.Blur()
		m.popup = ""
		m.view = MenuView
		return m, nil
	case tea.KeyEnter:
		if m.loading {
			return m, nil
		}
		name := strings.TrimSpace(m.partner.Value())
		if name == "" {
			return m, nil
		}
		m.popup = ""
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.checkPartner(name))
	}

	var cmd tea.Cmd
	m.partner, cmd = m.partner.Update(msg)
	return m, cmd
}

func (m *Model) handleSlideKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.popup = ""
		m.showMenu("")
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.popup = ""
		next := m.current.Next()
		if next == wizard.Dashboard {
			m.showMenu("")
			return m, nil
		}
		return m, m.showSlide(next)
	}
	return m, nil
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.hasList && m.history.FilterState() == list.Filtering
	if !filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.popup = ""
			m.loading = false
			m.view = MenuView
			return m, nil
		case key.Matches(msg, m.keys.enter) && m.hasList:
			if item, ok := m.history.SelectedItem().(historyItem); ok {
				m.popup = ""
				m.replay(item.entry)
				return m, m.showSlide(wizard.Artists)
			}
		}
	}

	if !m.hasList {
		return m, nil
	}
	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// replay points the session at a past record.
func (m *Model) replay(h models.HistoryEntry) {
	m.sess.Set(models.KeyRecordID, h.ID)
	m.sess.Delete(models.KeyArtistsList)
	m.sess.Delete(models.KeyTracksList)
	m.sess.SetTimeRange(h.TimeRange)
	if h.Duo {
		m.sess.SetDuo(h.Partner)
	} else {
		m.sess.SetSolo()
	}
	m.persist()
}

func (m *Model) showSlide(s wizard.Slide) tea.Cmd {
	m.view = SlideView
	m.current = wizard.View{Slide: s, TimeRange: m.sess.TimeRange(), Duo: m.sess.IsDuo(), Loading: s != wizard.Title}
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.loadSlide(s))
}

func (m *Model) persist() {
	if m.store == nil || !m.sess.Dirty() {
		return
	}
	if err := m.store.Save(m.sess); err != nil {
		m.logger.Warn("failed to save session", "session", m.sess.ID(), "error", err)
	}
}

func (m *Model) fetchUser() tea.Cmd {
	return func() tea.Msg {
		ok, err := m.svc.IsAuthenticated(m.ctx, m.sess)
		if err != nil || !ok {
			return userLoadedMsg("", ok, err)
		}
		name, err := m.svc.Username(m.ctx, m.sess)
		if err != nil {
			m.logger.Warn("failed to fetch username", "error", err)
		}
		return userLoadedMsg(name, true, nil)
	}
}

func (m *Model) checkPartner(name string) tea.Cmd {
	return func() tea.Msg {
		exists, err := m.svc.UsernameExists(m.ctx, m.sess, name)
		return partnerCheckedMsg(name, exists, err)
	}
}

// startRecord marks the record pending and creates a fresh one.
func (m *Model) startRecord() tea.Cmd {
	m.sess.ResetRecord()
	m.loading = true
	m.persist()
	return func() tea.Msg {
		id, err := m.wizard.Start(m.ctx, m.sess, m.sess)
		return recordStartedMsg(id, err)
	}
}

func (m *Model) loadSlide(s wizard.Slide) tea.Cmd {
	return func() tea.Msg {
		return slideLoadedMsg(m.wizard.Load(m.ctx, s, m.sess, m.sess))
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.svc.History(m.ctx, m.sess)
		return historyLoadedMsg(entries, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case MenuView:
		body = m.renderMenu()
	case PartnerView:
		body = m.renderPartner()
	case SlideView:
		body = m.renderSlide()
	case HistoryView:
		body = m.renderHistory()
	}

	if m.popup != "" {
		body = fmt.Sprintf("%s\n\n%s", body, styles.warn.Render(m.popup))
	}
	return body
}

func (m *Model) renderMenu() string {
	if !m.ready {
		return fmt.Sprintf("%s %s", m.spinner.View(), loadingMenuText)
	}

	name := m.user
	if name == "" {
		name = guestName
	}
	title := styles.title.Render(fmt.Sprintf("%s again? Yikes", name))

	selected := m.sess.TimeRange()
	ranges := make([]string, 0, 3)
	for _, tr := range models.TimeRanges() {
		if tr == selected {
			ranges = append(ranges, styles.checked.Render("(•) "+tr.String()))
		} else {
			ranges = append(ranges, "( ) "+tr.String())
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.left, m.keys.right, m.keys.enter, m.keys.duo, m.keys.history, m.keys.quit})
	return fmt.Sprintf("%s\nChoose a time range:\n%s\n\n%s", title, strings.Join(ranges, "   "), helpView)
}

func (m *Model) renderPartner() string {
	title := styles.title.Render("Duo Roast")
	status := ""
	if m.loading {
		status = fmt.Sprintf("\n%s Checking username...", m.spinner.View())
	}
	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "generate duo roast"))
	helpView := m.help.ShortHelpView([]key.Binding{submit, m.keys.back})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, m.partner.View(), status, helpView)
}

func (m *Model) renderHistory() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	if !m.hasList {
		return fmt.Sprintf("%s\n%s Loading history...\n\n%s", styles.title.Render("Past Roasts"), m.spinner.View(), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.history.View(), helpView)
}

func (m *Model) renderSlide() string {
	v := m.current
	title := styles.title.Render(v.Heading())

	var body string
	switch {
	case v.Slide == wizard.Title:
		body = v.TimeRange.String()
		if v.Duo && v.Partner != "" {
			body += " with " + v.Partner
		}
	case v.Loading:
		body = fmt.Sprintf("%s %s", m.spinner.View(), v.LoadingText())
	case v.Slide == wizard.Genres:
		body = m.renderGenres(v)
	case v.Slide == wizard.Quirky:
		body = m.renderQuirky(v)
	case v.Slide == wizard.Summary:
		body = m.renderSummary(v)
	default:
		body = renderRanking(v.Ranking)
	}

	nextLabel := "next"
	if v.Next() == wizard.Dashboard {
		nextLabel = "dashboard"
	}
	next := key.NewBinding(key.WithKeys("n"), key.WithHelp("n", nextLabel))
	helpView := m.help.ShortHelpView([]key.Binding{next, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

func renderEntry(e models.Entry) string {
	lines := []string{styles.ok.Render(fmt.Sprintf("#%d %s", e.Rank, e.Name))}
	if e.Artist != "" {
		lines = append(lines, e.Artist)
	}
	if e.Desc != "" {
		lines = append(lines, styles.help.Render(e.Desc))
	}
	return styles.card.Render(strings.Join(lines, "\n"))
}

func renderSide(s models.Side) string {
	if s.Sub != "" {
		return s.Name + "\n" + styles.help.Render(s.Sub)
	}
	return s.Name
}

func renderComparison(c models.Comparison) string {
	row := lipgloss.JoinHorizontal(lipgloss.Center, renderSide(c.Left), "   vs   ", renderSide(c.Right))
	lines := []string{styles.ok.Render(fmt.Sprintf("#%d", c.Rank)), row}
	if c.Desc != "" {
		lines = append(lines, styles.help.Render(c.Desc))
	}
	return styles.card.Render(strings.Join(lines, "\n"))
}

func renderRanking(r models.Ranking) string {
	var parts []string
	if r.Duo() {
		for _, c := range r.Comparisons {
			parts = append(parts, renderComparison(c))
		}
	} else {
		for _, e := range r.Entries {
			parts = append(parts, renderEntry(e))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderGenres(v wizard.View) string {
	g := v.Genres
	var out string
	if v.Duo {
		them := v.Partner
		if them == "" {
			them = "them"
		}
		out = fmt.Sprintf("you: %s\n%s: %s", strings.Join(g.Genres, ", "), them, strings.Join(g.Partner, ", "))
	} else {
		out = strings.Join(g.Genres, ", ")
	}
	if g.Desc != "" {
		out += "\n\n" + m.wrap(g.Desc)
	}
	return out
}

func (m *Model) renderQuirky(v wizard.View) string {
	q := v.Quirky
	var out string
	switch {
	case v.Duo && q.Comparison != nil:
		out = renderComparison(*q.Comparison)
	case q.Entry != nil:
		out = renderEntry(*q.Entry)
	}
	if q.Desc != "" {
		out += "\n" + m.wrap(q.Desc)
	}
	return out
}

func summarySide(s models.Summary) string {
	lines := []string{
		"Artists: " + strings.Join(s.Artists, ", "),
		"Tracks:  " + strings.Join(s.Tracks, ", "),
		"Genres:  " + strings.Join(s.Genres, ", "),
	}
	if s.Quirky != "" {
		lines = append(lines, "Quirky:  "+s.Quirky)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSummary(v wizard.View) string {
	s := v.Summary
	out := summarySide(s)
	if s.Partner != nil {
		out = lipgloss.JoinHorizontal(lipgloss.Top, styles.card.Render(out), " ", styles.card.Render(summarySide(*s.Partner)))
	}
	if s.Narrative != "" {
		out += "\n\n" + m.wrap(s.Narrative)
	}
	return out
}

func (m *Model) wrap(s string) string {
	if m.width <= 8 {
		return s
	}
	return lipgloss.NewStyle().Width(m.width - 4).Render(s)
}
