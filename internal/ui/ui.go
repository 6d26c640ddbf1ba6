package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quirxsama/latte-sub000/internal/compatibility"
	"github.com/quirxsama/latte-sub000/internal/formatter"
	"github.com/quirxsama/latte-sub000/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	FriendListView
	DetailView
	RequestListView
	ConfirmRemoveView
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	backend     Backend
	width       int
	height      int
	viewer      *models.User
	friends     map[int64]*models.User
	friendList  list.Model
	requestList list.Model
	selected    *friendItem
	status      string
	err         error
	help        help.Model
	keys        keyMap
	now         func() time.Time
}

// NewModel creates a new TUI model reading from backend.
func NewModel(ctx context.Context, backend Backend) *Model {
	return &Model{
		ctx:         ctx,
		view:        LoadingView,
		backend:     backend,
		friends:     map[int64]*models.User{},
		friendList:  newList("Friends by compatibility", nil),
		requestList: newList("Friend requests", nil),
		help:        help.New(),
		keys:        newKeyMap(),
		now:         time.Now,
	}
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	return l
}

// Init loads the viewer's friends and requests.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.friendList.SetSize(msg.Width-4, msg.Height-8)
		m.requestList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && !m.filtering() {
			return m, tea.Quit
		}
		switch m.view {
		case FriendListView:
			return m.handleFriendListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case RequestListView:
			return m.handleRequestListKeys(msg)
		case ConfirmRemoveView:
			return m.handleConfirmKeys(msg)
		}
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgLoaded:
			data := msg.data.(struct {
				snapshot *Snapshot
				err      error
			})
			if data.err != nil {
				m.err = data.err
				return m, nil
			}
			m.apply(data.snapshot)
			return m, nil

		case MsgActionDone:
			data := msg.data.(struct {
				action  Action
				subject string
				err     error
			})
			if data.err != nil {
				m.status = styles.err.Render(fmt.Sprintf("%s failed: %v", data.action, data.err))
				return m, nil
			}
			m.status = styles.ok.Render(actionStatus(data.action, data.subject))
			return m, m.load()
		}
	}

	return m.updateLists(msg)
}

// apply replaces the displayed data with snapshot, keeping the current view when possible.
func (m *Model) apply(s *Snapshot) {
	m.viewer = s.Viewer
	m.friends = make(map[int64]*models.User, len(s.Friends))
	for _, f := range s.Friends {
		m.friends[f.ID] = f
	}

	matches := compatibility.Rank(s.Viewer.MusicStats, compatibility.Comparable(s.Friends))
	friendItems := make([]list.Item, len(matches))
	for i, match := range matches {
		friendItems[i] = friendItem{rank: i + 1, match: match}
	}
	m.friendList.SetItems(friendItems)
	m.friendList.Title = fmt.Sprintf("%s's friends by compatibility", s.Viewer.DisplayName)

	requestItems := make([]list.Item, len(s.Pending))
	for i, req := range s.Pending {
		requestItems[i] = requestItem{request: req}
	}
	m.requestList.SetItems(requestItems)
	m.requestList.Title = fmt.Sprintf("Friend requests (%d)", len(s.Pending))

	if m.view == LoadingView || m.view == DetailView || m.view == ConfirmRemoveView {
		m.view = FriendListView
		m.selected = nil
	}
}

func (m *Model) filtering() bool {
	switch m.view {
	case FriendListView:
		return m.friendList.FilterState() == list.Filtering
	case RequestListView:
		return m.requestList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) handleFriendListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering() {
		var cmd tea.Cmd
		m.friendList, cmd = m.friendList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.friendList.SelectedItem().(friendItem); ok {
			m.selected = &item
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.friendList.SelectedItem().(friendItem); ok {
			m.selected = &item
			m.view = ConfirmRemoveView
		}
		return m, nil
	case key.Matches(msg, m.keys.requests):
		m.view = RequestListView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.load()
	}

	var cmd tea.Cmd
	m.friendList, cmd = m.friendList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = FriendListView
		m.selected = nil
	case key.Matches(msg, m.keys.remove):
		m.view = ConfirmRemoveView
	}
	return m, nil
}

func (m *Model) handleRequestListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering() {
		var cmd tea.Cmd
		m.requestList, cmd = m.requestList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.requests):
		m.view = FriendListView
		return m, nil
	case key.Matches(msg, m.keys.accept):
		if item, ok := m.requestList.SelectedItem().(requestItem); ok {
			return m, m.respond(ActionAccept, item.request)
		}
		return m, nil
	case key.Matches(msg, m.keys.decline):
		if item, ok := m.requestList.SelectedItem().(requestItem); ok {
			return m, m.respond(ActionDecline, item.request)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.load()
	}

	var cmd tea.Cmd
	m.requestList, cmd = m.requestList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		if m.selected == nil {
			m.view = FriendListView
			return m, nil
		}
		return m, m.remove(m.selected.match.User)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = FriendListView
		m.selected = nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case FriendListView:
		m.friendList, cmd = m.friendList.Update(msg)
	case RequestListView:
		m.requestList, cmd = m.requestList.Update(msg)
	}
	return m, cmd
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.backend.Load(m.ctx)
		return loadedMsg(snapshot, err)
	}
}

func (m *Model) respond(action Action, req models.PendingRequest) tea.Cmd {
	return func() tea.Msg {
		var err error
		if action == ActionAccept {
			err = m.backend.Accept(m.ctx, req.ID)
		} else {
			err = m.backend.Decline(m.ctx, req.ID)
		}
		return actionDoneMsg(action, req.Sender.DisplayName, err)
	}
}

func (m *Model) remove(friend models.UserSummary) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(ActionRemove, friend.DisplayName, m.backend.Remove(m.ctx, friend.ID))
	}
}

func actionStatus(action Action, subject string) string {
	switch action {
	case ActionAccept:
		return fmt.Sprintf("✓ You and %s are now friends", subject)
	case ActionDecline:
		return fmt.Sprintf("Declined request from %s", subject)
	case ActionRemove:
		return fmt.Sprintf("Removed %s from your friends", subject)
	}
	return ""
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return styles.help.Render("Loading friends...")
	case FriendListView:
		return m.renderFriendList()
	case DetailView:
		return m.renderDetail()
	case RequestListView:
		return m.renderRequestList()
	case ConfirmRemoveView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) withStatus(body string) string {
	if m.status == "" {
		return body
	}
	return fmt.Sprintf("%s\n%s", body, m.status)
}

func (m *Model) renderFriendList() string {
	if len(m.friendList.Items()) == 0 {
		empty := styles.title.Render("No friends to compare yet") +
			"\n" + styles.help.Render("Send a request with `latte friends send` or check pending requests.")
		return m.withStatus(fmt.Sprintf("%s\n\n%s", empty, m.help.ShortHelpView([]key.Binding{m.keys.requests, m.keys.refresh, m.keys.quit})))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.remove, m.keys.requests, m.keys.quit}
	return m.withStatus(fmt.Sprintf("%s\n\n%s", m.friendList.View(), m.help.ShortHelpView(helpKeys)))
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	friend, ok := m.friends[m.selected.match.User.ID]
	if !ok {
		return styles.warn.Render("Friend no longer available\n\nPress esc to go back")
	}

	report := formatter.NewReport(m.viewer, friend, m.now())
	body, err := formatter.ReportToText(report)
	if err != nil {
		return styles.err.Render(err.Error())
	}

	score := styles.score.BorderForeground(scoreColor(report.Result.Compatibility)).
		Render(styles.As(fmt.Sprintf("%d%%", report.Result.Compatibility), scoreColor(report.Result.Compatibility)))

	helpKeys := []key.Binding{m.keys.back, m.keys.remove, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s\n%s",
		styles.title.Render(fmt.Sprintf("You & %s", friend.DisplayName)),
		score,
		strings.TrimRight(string(body), "\n"),
		m.help.ShortHelpView(helpKeys),
	)
}

func (m *Model) renderRequestList() string {
	helpKeys := []key.Binding{m.keys.accept, m.keys.decline, m.keys.back, m.keys.quit}
	return m.withStatus(fmt.Sprintf("%s\n\n%s", m.requestList.View(), m.help.ShortHelpView(helpKeys)))
}

func (m *Model) renderConfirm() string {
	if m.selected == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Remove %s from your friends?", m.selected.match.User.DisplayName))
	info := styles.warn.Render("You will need to send a new request to compare again.")

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.help.ShortHelpView(helpKeys))
}
