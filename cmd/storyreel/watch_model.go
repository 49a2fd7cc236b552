package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"storyreel/internal/api"
	"storyreel/internal/clip"
	"storyreel/internal/reel"
)

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	watchMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	watchErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	watchOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	watchWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	watchPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	watchSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

type sessionChangedMsg struct{}

type playbackDoneMsg struct {
	err error
}

type regeneratedMsg struct {
	result savedResult
	err    error
}

// reelSubmitter resubmits frames for a fresh reel.
type reelSubmitter interface {
	Submit(ctx context.Context, frames []string) (api.SubmitResponse, error)
}

// watchModel renders a reel session: the ordered clip list, per-clip status,
// and combined playback controls.
type watchModel struct {
	ctx      context.Context
	session  *reel.Session
	playback *reel.Playback

	// submitter and resultPath are optional; without a submitter the
	// regenerate key is disabled.
	submitter    reelSubmitter
	resultPath   string
	regenerating bool

	spinner spinner.Model
	cursor  int
	width   int
	notice  string
	err     error
}

func newWatchModel(ctx context.Context, session *reel.Session, playback *reel.Playback) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = watchWarnStyle
	return watchModel{
		ctx:      ctx,
		session:  session,
		playback: playback,
		spinner:  sp,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForChange(m.session.Changed()))
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return sessionChangedMsg{}
	}
}

func playReel(ctx context.Context, playback *reel.Playback) tea.Cmd {
	return func() tea.Msg {
		return playbackDoneMsg{err: playback.Start(ctx)}
	}
}

// regenerate submits frames again and saves the new result when a path is set.
func regenerate(ctx context.Context, submitter reelSubmitter, frames []string, path string) tea.Cmd {
	return func() tea.Msg {
		resp, err := submitter.Submit(ctx, frames)
		if err != nil {
			return regeneratedMsg{err: err}
		}
		result := savedResult{SubmitResponse: resp, SubmittedAt: time.Now()}
		if path != "" {
			if err := saveResult(path, result); err != nil {
				return regeneratedMsg{result: result, err: err}
			}
		}
		return regeneratedMsg{result: result}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case sessionChangedMsg:
		return m, waitForChange(m.session.Changed())
	case playbackDoneMsg:
		if errors.Is(msg.err, reel.ErrStopped) {
			return m, nil
		}
		m.err = nil
		switch {
		case errors.Is(msg.err, reel.ErrNotReady):
			m.notice = "Reel is not ready yet"
		case msg.err != nil:
			m.err = fmt.Errorf("playback: %w", msg.err)
		default:
			m.notice = "Playback finished"
		}
		return m, nil
	case regeneratedMsg:
		m.regenerating = false
		if msg.err != nil && len(msg.result.Frames) == 0 {
			m.err = fmt.Errorf("regenerate: %w", msg.err)
			return m, nil
		}
		m.playback.Stop()
		m.session.Load(msg.result.Frames, msg.result.StoryRaw, msg.result.SubmittedAt)
		m.cursor = 0
		m.err = nil
		m.notice = fmt.Sprintf("Regenerated %d clips", len(msg.result.Frames))
		if msg.err != nil {
			m.err = fmt.Errorf("regenerate: %w", msg.err)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.session.Order())
	switch msg.String() {
	case "ctrl+c", "q":
		m.playback.Stop()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < count-1 {
			m.cursor++
		}
	case "shift+up", "K":
		if m.session.Move(m.cursor, m.cursor-1) {
			m.cursor--
			m.notice = ""
		}
	case "shift+down", "J":
		if m.session.Move(m.cursor, m.cursor+1) {
			m.cursor++
			m.notice = ""
		}
	case "enter", "p":
		if !m.playback.Ready() {
			m.notice = "Reel is not ready yet"
			return m, nil
		}
		m.notice = "Playing"
		m.err = nil
		return m, playReel(m.ctx, m.playback)
	case "s":
		m.playback.Stop()
		m.notice = "Stopped"
	case "r":
		if m.submitter == nil || m.regenerating {
			return m, nil
		}
		frames := make([]string, 0, count)
		for _, plan := range m.session.Plans() {
			frames = append(frames, plan.FrameURL)
		}
		if len(frames) == 0 {
			return m, nil
		}
		m.regenerating = true
		m.err = nil
		m.notice = "Regenerating"
		return m, regenerate(m.ctx, m.submitter, frames, m.resultPath)
	}
	return m, nil
}

func (m watchModel) View() string {
	ordered := m.session.Ordered()
	summary := clip.Summarize(ordered)
	position, playing := m.playback.Position()

	counts := fmt.Sprintf("%d/%d ready, %d pending, %d failed", summary.Ready, summary.Total, summary.Pending, summary.Failed)
	if take := m.session.Generation(); take > 1 {
		counts = fmt.Sprintf("take %d  %s", take, counts)
	}
	header := watchTitleStyle.Render("storyreel") + "  " + watchMutedStyle.Render(counts)

	var rows []string
	for i, plan := range ordered {
		marker := "  "
		if playing && i == position {
			marker = "▶ "
		}
		line := fmt.Sprintf("%s%d. %s  %s", marker, i+1, m.statusBadge(plan), truncate(plan.VideoClip, 70))
		if plan.Error != "" {
			line += "  " + watchErrorStyle.Render(truncate(plan.Error, 60))
		}
		if i == m.cursor {
			line = watchSelStyle.Render(line)
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		rows = append(rows, watchMutedStyle.Render("No clips"))
	}

	panel := watchPanelStyle
	if m.width > 4 {
		panel = panel.Width(m.width - 4)
	}

	footer := watchMutedStyle.Render("↑/↓ select  K/J move  enter play  s stop  r regenerate  q quit")
	parts := []string{header, panel.Render(strings.Join(rows, "\n"))}
	if m.err != nil {
		parts = append(parts, watchErrorStyle.Render(m.err.Error()))
	} else if m.notice != "" {
		parts = append(parts, watchOKStyle.Render(m.notice))
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m watchModel) statusBadge(plan clip.Plan) string {
	switch {
	case plan.Ready():
		return watchOKStyle.Render("ready     ")
	case plan.Failed():
		return watchErrorStyle.Render("failed    ")
	case plan.Pending():
		return m.spinner.View() + watchWarnStyle.Render(fmt.Sprintf(" %-8s", plan.Status))
	default:
		return watchMutedStyle.Render(fmt.Sprintf("%-10s", plan.Status))
	}
}
