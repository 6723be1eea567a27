package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/quran-radio/internal/player"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/radio"
	"github.com/rivo/tview"
)

// ElementStatus reports the load and retry state of the audio element.
type ElementStatus interface {
	State() player.PlayerState
	GetRetryInfo() (current, max int)
}

type StatusRenderer struct {
	element       ElementStatus
	isMuted       bool
	animFrame     int
	maxAnimFrame  int
	tickCount     int
	ticksPerFrame int

	primaryColor string
}

func NewStatusRenderer(e ElementStatus) *StatusRenderer {
	return &StatusRenderer{
		element:       e,
		maxAnimFrame:  4,
		ticksPerFrame: 8, // Slow down animation (8 ticks per frame)
	}
}

func (s *StatusRenderer) SetMuted(muted bool) {
	s.isMuted = muted
}

func (s *StatusRenderer) SetPrimaryColor(color string) {
	s.primaryColor = color
}

func (s *StatusRenderer) AdvanceAnimation() {
	s.tickCount++
	if s.tickCount >= s.ticksPerFrame {
		s.tickCount = 0
		s.animFrame = (s.animFrame + 1) % s.maxAnimFrame
	}
}

// Render describes the playback state in one line. The controller snapshot
// decides the coarse state; the element refines a running track into
// buffering or retrying.
func (s *StatusRenderer) Render(state radio.State) string {
	switch {
	case len(state.Playlist) == 0:
		return s.renderIdle()
	case len(state.Errors) >= len(state.Playlist):
		return s.renderError(state)
	case state.Blocked:
		return s.renderBlocked()
	case !state.IsPlaying:
		return s.renderPaused(state)
	}

	if s.element != nil {
		switch s.element.State() {
		case player.StateLoading:
			return s.renderBuffering()
		case player.StateRetrying:
			return s.renderRetrying()
		}
	}
	return s.renderPlaying(state)
}

func (s *StatusRenderer) renderIdle() string {
	if s.isMuted {
		return "○ IDLE │ [red]MUTED[-] │ Select a station"
	}
	return "○ IDLE │ Select a station"
}

func (s *StatusRenderer) renderBuffering() string {
	circles := []string{"◐", "◓", "◑", "◒"}
	return fmt.Sprintf("%s BUFFERING", circles[s.animFrame])
}

func (s *StatusRenderer) renderBlocked() string {
	return "⊘ BLOCKED │ Press Space to start"
}

func (s *StatusRenderer) renderPlaying(state radio.State) string {
	dots := []string{"●", "◉", "○", "◉"}
	dot := dots[s.animFrame]

	if s.primaryColor != "" {
		dot = fmt.Sprintf("[%s]%s[-]", s.primaryColor, dot)
	}

	parts := []string{dot + " PLAYING"}
	if s.isMuted {
		parts = append(parts, "[red]MUTED[-]")
	}
	parts = append(parts, trackPosition(state), formatDuration(state.CurrentTime))
	parts = append(parts, streamInfo(state)...)

	return joinParts(parts)
}

func (s *StatusRenderer) renderPaused(state radio.State) string {
	parts := []string{PauseIcon + " PAUSED"}

	if s.isMuted {
		parts = append(parts, "[red]MUTED[-]")
	}
	parts = append(parts, trackPosition(state))
	parts = append(parts, streamInfo(state)...)

	return joinParts(parts)
}

func (s *StatusRenderer) renderRetrying() string {
	current, max := s.element.GetRetryInfo()
	return fmt.Sprintf("↻ RETRY %d/%d", current, max)
}

func (s *StatusRenderer) renderError(state radio.State) string {
	errMsg := state.LastError
	if errMsg == "" {
		errMsg = "ERROR"
	}
	return fmt.Sprintf("✗ %s │ all %d tracks failed", errMsg, len(state.Playlist))
}

func trackPosition(state radio.State) string {
	return fmt.Sprintf("%d/%d", state.TrackIndex+1, len(state.Playlist))
}

func streamInfo(state radio.State) []string {
	var parts []string
	if q := qualityShort(state.Quality); q != "" {
		parts = append(parts, fmt.Sprintf("MP3 %s %dk", q, state.Quality.Bitrate()))
	}
	var modes []string
	if state.Loop {
		modes = append(modes, "LOOP")
	}
	if state.Shuffle {
		modes = append(modes, "SHUF")
	}
	if len(modes) > 0 {
		parts = append(parts, strings.Join(modes, " "))
	}
	return parts
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, sec := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}

func qualityShort(q quran.Quality) string {
	switch q {
	case quran.QualityHigh:
		return "HQ"
	case quran.QualityLow:
		return "LQ"
	default:
		return ""
	}
}

func joinParts(parts []string) string {
	return strings.Join(parts, " │ ")
}

func (ui *UI) getPlaybackHint(keyColor string) string {
	state := ui.ctrl.State()

	switch {
	case len(state.Playlist) == 0:
		return fmt.Sprintf("[%s]Space[-] play", keyColor)
	case state.IsPlaying:
		return fmt.Sprintf("[%s]Space[-] pause  [%s]n/p[-] track", keyColor, keyColor)
	default:
		return fmt.Sprintf("[%s]Space[-] resume  [%s]n/p[-] track", keyColor, keyColor)
	}
}

func (ui *UI) getHelpText() string {
	keyColor := ui.colors.helpHotkey.String()
	playbackHint := ui.getPlaybackHint(keyColor)

	muteText := "mute"
	if ui.isMuted {
		muteText = "unmute"
	}

	return fmt.Sprintf(" %s  [%s]+/-[-] vol  [%s]m[-] %s  [%s]?[-] help  [%s]q[-] quit ",
		playbackHint, keyColor, keyColor, muteText, keyColor, keyColor)
}

func (ui *UI) handleFooterResize(width int) {
	isWide := width >= FooterBreakpoint
	wasWide := ui.lastFooterWidth >= FooterBreakpoint

	if ui.lastFooterWidth > 0 && isWide != wasWide && ui.contentLayout != nil {
		newHeight := FooterHeightWide
		if !isWide {
			newHeight = FooterHeightNarrow
		}
		ui.contentLayout.ResizeItem(ui.helpPanel, newHeight, 0)
	}
	ui.lastFooterWidth = width
}

func (ui *UI) drawWideFooter(screen tcell.Screen, x, y, width, height int, helpText, statusText string) {
	helpWidth := width / 2
	statusWidth := width - helpWidth

	for row := y; row < y+height; row++ {
		for col := x; col < x+helpWidth; col++ {
			screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.helpBackground))
		}
	}

	for row := y; row < y+height; row++ {
		for col := x + helpWidth; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.background))
		}
	}

	centerY := y + height/2
	tview.Print(screen, helpText, x, centerY, helpWidth, tview.AlignCenter, ui.colors.helpForeground)
	tview.Print(screen, statusText, x+helpWidth, centerY, statusWidth-2, tview.AlignRight, ui.colors.foreground)
}

func (ui *UI) drawNarrowFooter(screen tcell.Screen, x, y, width, height int, helpText, statusText string) {
	helpHeight := height / 2
	if helpHeight < 1 {
		helpHeight = 1
	}
	statusHeight := height - helpHeight
	helpBoxEnd := y + helpHeight

	for row := y; row < helpBoxEnd; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.helpBackground))
		}
	}

	for row := helpBoxEnd; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.background))
		}
	}

	helpTextY := y + helpHeight/2
	tview.Print(screen, helpText, x, helpTextY, width, tview.AlignCenter, ui.colors.helpForeground)

	if statusHeight > 0 {
		statusTextY := helpBoxEnd + statusHeight/2
		tview.Print(screen, statusText, x, statusTextY, width-2, tview.AlignRight, ui.colors.foreground)
	}
}

func (ui *UI) createFooter() *tview.Box {
	box := tview.NewBox().SetBackgroundColor(ui.colors.background)

	box.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		ui.handleFooterResize(width)

		helpText := ui.getHelpText()
		statusText := " " + ui.statusRenderer.Render(ui.ctrl.State()) + " "

		isWide := width >= FooterBreakpoint
		usedHeight := height
		if isWide && height > FooterHeightWide {
			usedHeight = FooterHeightWide
		}

		if isWide {
			ui.drawWideFooter(screen, x, y, width, usedHeight, helpText, statusText)
		} else {
			ui.drawNarrowFooter(screen, x, y, width, height, helpText, statusText)
		}

		return x, y, width, height
	})

	return box
}
