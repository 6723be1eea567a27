package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/rivo/tview"
)

// errorHints maps substrings of low-level errors to messages shown to the
// listener. The first match wins.
var errorHints = []struct {
	needles []string
	message string
}{
	{[]string{"no such host"}, "Unable to connect to server.\nPlease check your internet connection."},
	{[]string{"connection refused"}, "Connection refused by server.\nThe service may be temporarily unavailable."},
	{[]string{"timeout", "deadline exceeded"}, "Connection timed out.\nPlease check your internet connection."},
	{[]string{"network is unreachable", "network read error"}, "Network is unreachable.\nPlease check your internet connection."},
	{[]string{"status 401"}, "Stream access denied (401)."},
	{[]string{"status 403"}, "Stream access forbidden (403)."},
	{[]string{"status 404"}, "Recitation not found (404)."},
	{[]string{"no playable surahs"}, "This reciter has no audio for the station's surahs."},
	{[]string{"no audio source"}, "No working audio source was found."},
}

const maxErrorLength = 100

func friendlyErrorMessage(errStr string) string {
	for _, hint := range errorHints {
		for _, needle := range hint.needles {
			if strings.Contains(errStr, needle) {
				return hint.message
			}
		}
	}

	if before, _, found := strings.Cut(errStr, ": dial"); found && before != "" {
		return before
	}
	if len(errStr) > maxErrorLength {
		return errStr[:maxErrorLength] + "..."
	}
	return errStr
}

func (ui *UI) showError(err error) {
	if err == nil {
		return
	}
	ui.showPlaybackErrorModal(friendlyErrorMessage(err.Error()))
}

const (
	modalPage      = "modal"
	errorModalPage = "error-modal"
	closeHint      = "[::d]Press any key to close[::-]"
)

// modalOptions describes a centered dialog layered over the main view.
type modalOptions struct {
	page     string
	title    string
	body     string
	hint     string
	align    int
	width    int
	height   int
	alert    bool
	spacious bool
	// onKey handles a key press and reports whether it closes the dialog.
	// A nil onKey closes on any key.
	onKey func(event *tcell.EventKey) bool
}

func (ui *UI) textBlock(text string, align int, bg tcell.Color) *tview.TextView {
	view := tview.NewTextView().
		SetTextAlign(align).
		SetDynamicColors(true).
		SetWordWrap(true).
		SetText(text)
	view.SetTextColor(ui.colors.foreground)
	view.SetBackgroundColor(bg)
	return view
}

func (ui *UI) openModal(opts modalOptions) {
	hint := ui.textBlock(opts.hint, tview.AlignCenter, ui.colors.modalBackground)
	hint.SetTextColor(tcell.ColorDarkGray)

	gap := 0
	if opts.spacious {
		gap = 2
	}
	body := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.textBlock(opts.body, opts.align, ui.colors.modalBackground), 0, 1, false).
		AddItem(nil, gap, 0, false).
		AddItem(hint, 1, 0, false).
		AddItem(nil, 1, 0, false)
	body.SetBackgroundColor(ui.colors.modalBackground)

	border := ui.colors.borders
	if opts.alert {
		border = ui.colors.highlight
	}
	frame := tview.NewFrame(body)
	if opts.spacious {
		frame.SetBorders(1, 0, 1, 1, 2, 2)
	} else {
		frame.SetBorders(0, 0, 1, 1, 1, 1)
	}
	frame.SetBorder(true).
		SetBorderColor(border).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(" " + opts.title + " ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignCenter)

	overlay := centered(frame, opts.width, opts.height)
	overlay.SetBackgroundColor(ui.colors.background)

	overlay.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if opts.onKey != nil && !opts.onKey(event) {
			return event
		}
		ui.pages.RemovePage(opts.page)
		ui.app.SetFocus(ui.stationList)
		return nil
	})

	ui.pages.AddPage(opts.page, overlay, true, true)
	ui.app.SetFocus(overlay)
}

// centered places p in the middle of the screen at a fixed size.
func centered(p tview.Primitive, width, height int) *tview.Flex {
	column := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(p, height, 0, true).
		AddItem(nil, 0, 1, false)
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(column, width, 0, true).
		AddItem(nil, 0, 1, false)
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

func (ui *UI) showPlaybackErrorModal(message string) {
	ui.openModal(modalOptions{
		page:   errorModalPage,
		title:  "Error",
		body:   "\n[::b]Playback Error[::-]\n\n" + message,
		hint:   "[::d]Press [::b]R[::d] to retry  •  Press [::b]Esc[::d] to dismiss[::-]",
		align:  tview.AlignCenter,
		width:  50,
		height: min(10+max(lineCount(message)-2, 0), 15),
		alert:  true,
		onKey: func(event *tcell.EventKey) bool {
			switch event.Key() {
			case tcell.KeyEscape, tcell.KeyEnter:
				return true
			case tcell.KeyRune:
				if event.Rune() == 'r' || event.Rune() == 'R' {
					if ui.playingIndex >= 0 {
						ui.onStationSelected(ui.playingIndex)
					}
					return true
				}
			}
			return false
		},
	})
}

func (ui *UI) showHelpModal() {
	k := func(key string) string {
		return fmt.Sprintf("[%s]%s[-]", ui.colors.helpHotkey.String(), key)
	}
	section := func(name string) string {
		return fmt.Sprintf("[%s]%s[-]", ui.colors.helpHotkey.String(), name)
	}

	configPath, _ := config.GetConfigPath()

	lines := []string{
		"[::b]KEYBOARD SHORTCUTS[::-]",
		"",
		section("PLAYBACK"),
		"  " + k("Enter") + "      Play selected station",
		"  " + k("Space") + "      Play / Pause",
		"  " + k("n") + " / " + k("p") + "      Next / previous surah",
		"  " + k("l") + "          Toggle loop",
		"  " + k("s") + "          Toggle shuffle",
		"  " + k("c") + "          Switch audio quality",
		"",
		section("VOLUME"),
		"  " + k("+") + " / " + k("-") + "      Volume up / down",
		"  " + k("←") + " / " + k("→") + "      Volume down / up",
		"  " + k("m") + "          Mute / Unmute",
		"",
		section("STATIONS"),
		"  " + k("↑") + " / " + k("↓") + "      Navigate list",
		"  " + k("<") + " / " + k(">") + "      Previous / next station",
		"  " + k("r") + "          Random station",
		"  " + k("f") + "          Toggle favorite",
		"",
		section("LIBRARY"),
		"  " + k("b") + "          Bookmark current surah",
		"  " + k("B") + "          Show bookmarks",
		"  " + k("h") + "          Recently played",
		"",
		section("APPLICATION"),
		"  " + k("?") + "          Show this help",
		"  " + k("a") + "          About " + config.AppName,
		"  " + k("q") + " / " + k("Esc") + "    Quit",
		"",
		section("CONFIG") + ": " + configPath,
	}

	ui.showInfoModal("Help", strings.Join(lines, "\n"))
}

// showBookmarksModal lists saved bookmarks in surah order.
func (ui *UI) showBookmarksModal() {
	if ui.library == nil {
		ui.showInfoModal("Bookmarks", "The library is not available.")
		return
	}
	bookmarks, err := ui.library.Bookmarks()
	if err != nil {
		ui.showError(err)
		return
	}
	if len(bookmarks) == 0 {
		ui.showInfoModal("Bookmarks", "No bookmarks yet.\nPress [::b]b[::-] while a surah plays to add one.")
		return
	}

	lines := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		line := fmt.Sprintf("[%s]★[-] %s", ui.colors.highlight.String(), tview.Escape(b.Track.DisplayTitle()))
		if b.Note != "" {
			line += " [::d]" + tview.Escape(b.Note) + "[::-]"
		}
		lines = append(lines, line)
	}
	ui.showInfoModal(fmt.Sprintf("Bookmarks (%d)", len(bookmarks)), strings.Join(lines, "\n"))
}

const historyModalSize = 20

// showHistoryModal lists the most recently played tracks.
func (ui *UI) showHistoryModal() {
	if ui.library == nil {
		ui.showInfoModal("Recently Played", "The library is not available.")
		return
	}
	plays, err := ui.library.Recent(historyModalSize)
	if err != nil {
		ui.showError(err)
		return
	}
	if len(plays) == 0 {
		ui.showInfoModal("Recently Played", "Nothing played yet.")
		return
	}

	lines := make([]string, 0, len(plays))
	for _, p := range plays {
		lines = append(lines, fmt.Sprintf("[::d]%s[::-] %s",
			p.PlayedAt.Format(time.Kitchen), tview.Escape(p.Track.DisplayTitle())))
	}
	ui.showInfoModal("Recently Played", strings.Join(lines, "\n"))
}

func (ui *UI) showAboutModal() {
	const linkColor, dimColor = "skyblue", "gray"

	about := strings.Join([]string{
		"[::b]" + config.AppName + "[::-]",
		fmt.Sprintf("[%s]%s[-]", dimColor, config.AppTagline),
		"",
		"Version: " + config.AppVersion,
		fmt.Sprintf("Project: [%s:::%s]%s[-:::-]", linkColor, config.AppProjectURL, config.AppProjectShort),
		"License: MIT",
		"",
		strings.Repeat("─", 43),
		"",
		fmt.Sprintf("[%s]Recitations and text from[-]", dimColor),
		"[::b]quran.com[::-] and [::b]alquran.cloud[::-]",
	}, "\n")

	ui.openModal(modalOptions{
		page:     modalPage,
		title:    "About",
		body:     "\n" + about,
		hint:     closeHint,
		align:    tview.AlignLeft,
		width:    50,
		height:   20,
		spacious: true,
	})
}

func (ui *UI) showInfoModal(title, message string) {
	ui.openModal(modalOptions{
		page:     modalPage,
		title:    title,
		body:     "\n" + message,
		hint:     closeHint,
		align:    tview.AlignLeft,
		width:    45,
		height:   min(lineCount(message)+10, 38),
		spacious: true,
	})
}

// showInitialErrorScreen replaces the whole screen when the catalog could not
// be loaded at startup.
func (ui *UI) showInitialErrorScreen(title, message string, onRetry, onQuit func()) {
	body := ui.textBlock(fmt.Sprintf("[::b]%s[::-]\n\n%s", title, message), tview.AlignCenter, ui.colors.modalBackground)
	keys := ui.textBlock("[::d]Press [::b]R[::d] to retry  •  Press [::b]Q[::d] to quit[::-]", tview.AlignCenter, ui.colors.background)

	frame := tview.NewFrame(body).SetBorders(2, 2, 2, 2, 2, 2)
	frame.SetBorder(true).
		SetBorderColor(ui.colors.highlight).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(" Connection Error ").
		SetTitleColor(ui.colors.highlight)

	screen := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(centered(frame, 60, 10), 0, 1, true).
		AddItem(keys, 2, 0, false)
	screen.SetBackgroundColor(ui.colors.background)

	call := func(fn func()) *tcell.EventKey {
		if fn != nil {
			fn()
		}
		return nil
	}
	screen.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			return call(onQuit)
		}
		if event.Key() != tcell.KeyRune {
			return event
		}
		switch event.Rune() {
		case 'r', 'R':
			return call(onRetry)
		case 'q', 'Q':
			return call(onQuit)
		}
		return event
	})

	ui.app.SetRoot(screen, true)
	ui.app.SetFocus(screen)
}

func (ui *UI) handleInitialError(err error) {
	retry := func() {
		ui.app.SetRoot(ui.loadingScreen, true)
		go func() {
			if err := ui.fetchStationsAndInitUI(); err != nil {
				ui.app.QueueUpdateDraw(func() { ui.handleInitialError(err) })
			}
		}()
	}
	ui.showInitialErrorScreen("Unable to Load Reciters", friendlyErrorMessage(err.Error()), retry, ui.app.Stop)
}
