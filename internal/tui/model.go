// Package tui is the interactive editor. It renders the controller's tree
// and routes every change through the session.Controller.
package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lc/nwconf/internal/backup"
	"github.com/lc/nwconf/internal/log"
	"github.com/lc/nwconf/internal/model"
	"github.com/lc/nwconf/internal/session"
)

type mode int

const (
	modeBrowse mode = iota
	modeEditText
	modeEditColor
	modePromptBackup
	modeConfirmReload
	modeConfirmDiscard
	modeConfirmQuit
	modePickSnapshot
	modeConfirmRestore
)

// SnapshotLister lists the snapshots offered by the restore picker.
type SnapshotLister interface {
	List(dir string) ([]backup.Snapshot, error)
}

// Model is the bubbletea model of the editor.
type Model struct {
	ctrl    *session.Controller
	answers *Answers
	lister  SnapshotLister

	mode   mode
	rows   []model.Node
	cursor int
	offset int
	width  int
	height int

	input    textinput.Model
	editRef  model.Ref
	channels model.Channels
	channel  model.Channel

	pendingKind session.DocKind
	snaps       []backup.Snapshot
	snapCursor  int

	// message is a one-line notice shown above the status, cleared on the next key.
	message string
}

// New returns the editor model. answers must be the Prompter ctrl was
// built with.
func New(ctrl *session.Controller, answers *Answers, lister SnapshotLister) *Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40
	m := &Model{
		ctrl:    ctrl,
		answers: answers,
		lister:  lister,
		input:   ti,
		height:  24,
		width:   80,
	}
	m.refresh()
	return m
}

// Run starts the editor on the terminal.
func Run(ctrl *session.Controller, answers *Answers, lister SnapshotLister) error {
	_, err := tea.NewProgram(New(ctrl, answers, lister), tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.message = ""
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeEditText:
			return m.updateEditText(msg)
		case modeEditColor:
			return m.updateEditColor(msg)
		case modePromptBackup:
			return m.updatePromptBackup(msg)
		case modeConfirmReload, modeConfirmDiscard, modeConfirmQuit, modeConfirmRestore:
			return m.updateConfirm(msg)
		case modePickSnapshot:
			return m.updatePickSnapshot(msg)
		}
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		if m.ctrl.HasPendingWrites() {
			m.mode = modeConfirmQuit
			return m, nil
		}
		return m, tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.move(-m.pageSize())
	case "pgdown":
		m.move(m.pageSize())
	case "1":
		m.startLoad(session.KindRebindings)
	case "2":
		m.startLoad(session.KindUserSettings)
	case "ctrl+s":
		m.report(m.ctrl.Save())
		m.refresh()
	case "ctrl+r":
		if m.ctrl.State() != session.Unloaded {
			m.mode = modeConfirmReload
		}
	case "b":
		snap, err := m.ctrl.Backup()
		if err == nil {
			m.message = "Backup: " + snap.Name
		}
		m.report(err)
	case "r":
		m.openSnapshotPicker()
	case " ":
		m.toggle()
	case "enter":
		m.startEdit()
	}
	return m, nil
}

func (m *Model) updateEditText(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.mode = modeBrowse
		return m, nil
	case "enter":
		m.input.Blur()
		m.mode = modeBrowse
		m.report(m.ctrl.ApplyTextEdit(m.editRef, m.input.Value()))
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateEditColor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	steps := 0
	switch msg.String() {
	case "esc", "enter":
		m.mode = modeBrowse
		return m, nil
	case "tab":
		m.channel = m.channel.Next()
	case "shift+tab":
		m.channel = (m.channel + 3) % 4
	case "right", "l", "+":
		steps = 1
	case "left", "h", "-":
		steps = -1
	case "shift+right", "L":
		steps = m.bigStep()
	case "shift+left", "H":
		steps = -m.bigStep()
	}
	if steps != 0 {
		next := m.channels.Step(m.channel, steps)
		if next != m.channels {
			m.channels = next
			m.report(m.ctrl.ApplyColorEdit(m.editRef, next.RGBA()))
			m.refresh()
		}
	}
	return m, nil
}

// bigStep is 10 for R, G and B, and 0.25 for alpha.
func (m *Model) bigStep() int {
	if m.channel == model.ChannelA {
		return 5
	}
	return 10
}

// startLoad asks before a new load drops unsaved changes.
func (m *Model) startLoad(kind session.DocKind) {
	m.pendingKind = kind
	if m.ctrl.HasPendingWrites() {
		m.mode = modeConfirmDiscard
		return
	}
	m.mode = modePromptBackup
}

func (m *Model) updatePromptBackup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.answers.Decision = session.BackupAndLoad
	case "n":
		m.answers.Decision = session.LoadWithoutBackup
	case "esc", "c":
		m.answers.Decision = session.AbortLoad
	default:
		return m, nil
	}
	m.mode = modeBrowse
	res, err := m.ctrl.Load(m.pendingKind)
	m.answers.reset()
	if err == nil && res.Snapshot != nil {
		m.message = "Backup: " + res.Snapshot.Name
	}
	if !errors.Is(err, session.ErrCancelled) {
		m.report(err)
	}
	m.cursor, m.offset = 0, 0
	m.refresh()
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	yes := false
	switch msg.String() {
	case "y":
		yes = true
	case "n", "esc":
	default:
		return m, nil
	}
	current := m.mode
	m.mode = modeBrowse
	switch current {
	case modeConfirmQuit:
		if yes {
			return m, tea.Quit
		}
	case modeConfirmDiscard:
		if yes {
			m.mode = modePromptBackup
		}
	case modeConfirmReload:
		if yes {
			m.report(m.ctrl.DiscardAndReload())
			m.refresh()
		}
	case modeConfirmRestore:
		m.answers.Confirm = yes
		m.answers.Snapshot = m.snaps[m.snapCursor].Path
		err := m.ctrl.Restore("")
		m.answers.reset()
		if !errors.Is(err, session.ErrCancelled) {
			m.report(err)
		}
		m.cursor, m.offset = 0, 0
		m.refresh()
	}
	return m, nil
}

func (m *Model) updatePickSnapshot(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.snapCursor > 0 {
			m.snapCursor--
		}
	case "down", "j":
		if m.snapCursor < len(m.snaps)-1 {
			m.snapCursor++
		}
	case "enter":
		m.mode = modeConfirmRestore
	case "esc", "q":
		m.mode = modeBrowse
	}
	return m, nil
}

func (m *Model) openSnapshotPicker() {
	dir := m.ctrl.ConfigDir()
	if dir == "" {
		m.report(session.ErrNoConfigDir)
		return
	}
	snaps, err := m.lister.List(dir)
	if err != nil {
		m.report(err)
		return
	}
	if len(snaps) == 0 {
		m.message = "No backups found next to " + dir
		return
	}
	m.snaps = snaps
	m.snapCursor = 0
	m.mode = modePickSnapshot
}

func (m *Model) startEdit() {
	n, ok := m.current()
	if !ok {
		return
	}
	ref, _ := m.ctrl.Tree().Ref(n.ID)
	switch n.Kind {
	case model.KindRebind, model.KindSetting:
		m.editRef = ref
		m.input.SetValue(n.Value)
		m.input.CursorEnd()
		m.input.Focus()
		m.mode = modeEditText
	case model.KindColor:
		m.editRef = ref
		m.channels = model.ChannelsOf(n.Color)
		m.channel = model.ChannelR
		m.mode = modeEditColor
	case model.KindGroup, model.KindStructural:
		m.toggle()
	}
}

func (m *Model) toggle() {
	n, ok := m.current()
	if !ok || len(n.Children) == 0 {
		return
	}
	ref, _ := m.ctrl.Tree().Ref(n.ID)
	m.ctrl.Tree().SetExpanded(ref, !n.Expanded)
	m.refresh()
}

func (m *Model) current() (model.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return model.Node{}, false
	}
	return m.rows[m.cursor], true
}

// refresh rebuilds the visible rows from the controller's tree.
func (m *Model) refresh() {
	m.rows = m.rows[:0]
	m.ctrl.Tree().Walk(func(n model.Node) bool {
		m.rows = append(m.rows, n)
		return n.Expanded
	})
	m.clampScroll()
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.clampScroll()
}

func (m *Model) pageSize() int {
	return max(1, m.height-chromeLines)
}

func (m *Model) clampScroll() {
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	m.offset = max(0, m.offset)
}

// report logs err and shows a short notice. The controller has already
// set the status line.
func (m *Model) report(err error) {
	if err == nil {
		return
	}
	log.Debugf("tui: %v", err)
	m.message = fmt.Sprintf("Error: %v", err)
}
