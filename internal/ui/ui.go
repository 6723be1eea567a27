package ui

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/radio"
	"github.com/glebovdev/quran-radio/internal/service"
	"github.com/glebovdev/quran-radio/internal/store"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	VolumeStep            = 5
	HeaderHeight          = 3
	FooterHeightWide      = 3 // Wide: 1 row with padding (top + text + bottom)
	FooterHeightNarrow    = 6 // Narrow: 2 rows × 3 lines each
	PlayerPanelHeight     = 12
	TrackListWidth        = 38
	FooterBreakpoint      = 130 // Width threshold for responsive footer
	MinLoadingDisplayTime = 1200 * time.Millisecond
	MinStatusDisplayTime  = 300 * time.Millisecond
	PlaylistFetchTimeout  = 30 * time.Second
	RefreshInterval       = 30 * time.Minute
)

// PauseIcon uses platform-specific character (Windows renders ⏸ as emoji)
var PauseIcon = func() string {
	if runtime.GOOS == "windows" {
		return "❚❚"
	}
	return "⏸"
}()

// VolumeControl is the output whose gain the volume keys adjust.
type VolumeControl interface {
	SetVolume(volumePercent int)
}

type UI struct {
	app               *tview.Application
	stationService    *service.StationService
	ctrl              *radio.Controller
	element           ElementStatus
	volume            VolumeControl
	library           *store.Store
	currentStation    *quran.Station
	stationList       *tview.Table
	helpPanel         *tview.Box
	contentLayout     *tview.Flex
	playerPanel       *tview.Flex
	currentTrackView  *tview.TextView
	flagsView         *tview.TextView
	trackList         *tview.Table
	volumeView        *tview.Flex
	volumeText        *tview.TextView
	mainLayout        *tview.Flex
	loadingScreen     *tview.Flex
	loadingText       *tview.TextView
	progressBar       *tview.TextView
	pages             *tview.Pages
	stopUpdates       chan struct{}
	playingIndex      int
	playingStationID  string
	selectedStationID string
	currentVolume     int
	isMuted           bool
	config            *config.Config
	startRandom       bool
	lastFooterWidth   int // Track width to detect layout changes
	mu                sync.Mutex
	watchOnce         sync.Once
	bindings          map[rune]func()
	animationFrame    int
	playingSpinner    *PlayingSpinner
	statusRenderer    *StatusRenderer
	colors            palette
}

// Options wires the UI to the playback stack. Library and Volume may be nil.
type Options struct {
	Config      *config.Config
	Stations    *service.StationService
	Controller  *radio.Controller
	Element     ElementStatus
	Volume      VolumeControl
	Library     *store.Store
	StartRandom bool
}

func NewUI(opts Options) *UI {
	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load config, using defaults")
		}
	}

	ui := &UI{
		app:            tview.NewApplication(),
		ctrl:           opts.Controller,
		element:        opts.Element,
		volume:         opts.Volume,
		library:        opts.Library,
		stationService: opts.Stations,
		stopUpdates:    make(chan struct{}),
		playingIndex:   -1,
		currentVolume:  cfg.Volume,
		isMuted:        false,
		config:         cfg,
		startRandom:    opts.StartRandom,
		colors:         newPalette(cfg.Theme),
	}

	ui.setVolume(cfg.Volume)
	log.Debug().Int("volume", cfg.Volume).Msg("Volume restored from config")

	ui.statusRenderer = NewStatusRenderer(opts.Element)
	ui.statusRenderer.SetPrimaryColor(ui.colors.highlight.String())

	return ui
}

func (ui *UI) setVolume(percent int) {
	if ui.volume != nil {
		ui.volume.SetVolume(percent)
	}
}

func (ui *UI) SaveConfig() {
	ui.mu.Lock()
	if !ui.isMuted {
		ui.config.Volume = ui.currentVolume
	}
	if ui.currentStation != nil {
		ui.config.LastStation = ui.currentStation.ID
	}
	ui.mu.Unlock()

	if err := ui.config.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save config")
	}
}

func (ui *UI) safeCloseChannel() {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if ui.stopUpdates != nil {
		select {
		case <-ui.stopUpdates:
			// Already closed
		default:
			close(ui.stopUpdates)
		}
		ui.stopUpdates = nil
	}
}

func (ui *UI) recreateStopChannel() {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.stopUpdates = make(chan struct{})
}

func (ui *UI) stopChannel() chan struct{} {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.stopUpdates
}

func (ui *UI) stop() {
	ui.stationService.StopPeriodicRefresh()
	if err := ui.ctrl.Pause(); err != nil && !errors.Is(err, radio.ErrStopped) {
		log.Debug().Err(err).Msg("Failed to pause before exit")
	}
	ui.safeCloseChannel()
	ui.SaveConfig()
	ui.app.Stop()
}

// Shutdown stops the UI gracefully from external callers (e.g., signal handlers).
func (ui *UI) Shutdown() {
	ui.app.QueueUpdateDraw(func() {
		ui.stop()
	})
}

func (ui *UI) Run() error {
	ui.setupLoadingScreen()
	ui.app.SetRoot(ui.loadingScreen, true)
	ui.configureScreen()

	go ui.initAsync()

	return ui.app.Run()
}

func (ui *UI) configureScreen() {
	bgStyle := tcell.StyleDefault.Background(ui.colors.background)
	ui.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		screen.SetStyle(bgStyle)
		screen.Clear()
		return false
	})

	var titleSet sync.Once
	ui.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		titleSet.Do(func() { screen.SetTitle(config.AppName) })
	})
}

func (ui *UI) initAsync() {
	if err := ui.fetchStationsAndInitUI(); err != nil {
		ui.app.QueueUpdateDraw(func() {
			ui.handleInitialError(err)
		})
	}
}

var loadingStages = []string{
	"Loading reciters",
	"Loading configuration",
	"Building interface",
}

func (ui *UI) setupLoadingScreen() {
	ui.loadingText = ui.textBlock(stageLabel(0), tview.AlignCenter, ui.colors.background)
	ui.progressBar = ui.textBlock(renderProgressBar(0), tview.AlignCenter, ui.colors.background)
	ui.progressBar.SetTextColor(ui.colors.highlight)

	rows := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.loadingText, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.progressBar, 1, 0, false)
	rows.SetBackgroundColor(ui.colors.background)

	ui.loadingScreen = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(rows, 3, 0, false).
		AddItem(nil, 0, 1, false)
	ui.loadingScreen.SetBackgroundColor(ui.colors.background)
}

func stageLabel(stage int) string {
	return fmt.Sprintf("%s... (%d/%d)", loadingStages[stage], stage+1, len(loadingStages))
}

func stagePercent(stage int) int {
	return stage * 100 / len(loadingStages)
}

func renderProgressBar(percent int) string {
	const width = 30
	filled := min(max(percent, 0)*width/100, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// animateProgress fills the bar from one stage to the next over at least d.
func (ui *UI) animateProgress(stage int, d time.Duration) {
	from, to := stagePercent(stage), stagePercent(stage+1)
	if to <= from {
		return
	}
	step := d / time.Duration(to-from)
	shown := renderProgressBar(from)

	for p := from + 1; p <= to; p++ {
		time.Sleep(step)
		bar := renderProgressBar(p)
		if bar == shown {
			continue
		}
		shown = bar
		ui.app.QueueUpdateDraw(func() { ui.progressBar.SetText(bar) })
	}
}

func (ui *UI) enterStage(stage int) {
	ui.app.QueueUpdateDraw(func() { ui.loadingText.SetText(stageLabel(stage)) })
}

// fetchStationsAndInitUI loads the catalog, applies the saved settings and
// builds the main screen. The loading screen stays up for at least
// MinLoadingDisplayTime.
func (ui *UI) fetchStationsAndInitUI() error {
	started := time.Now()

	animated := make(chan struct{})
	go func() {
		defer close(animated)
		ui.animateProgress(0, MinStatusDisplayTime)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), PlaylistFetchTimeout)
	_, err := ui.stationService.GetStations(ctx)
	cancel()
	switch {
	case err != nil && ui.stationService.StationCount() == 0:
		return fmt.Errorf("failed to fetch stations: %w", err)
	case err != nil:
		log.Warn().Err(err).Msg("Reciter list unavailable, showing curated stations only")
	default:
		// Curated favorites survive a failed reciter fetch, so prune only here.
		ui.config.CleanupFavorites(ui.stationService.GetValidStationIDs())
	}
	log.Debug().Int("count", ui.stationService.StationCount()).Dur("elapsed", time.Since(started)).Msg("Stations loaded")
	<-animated

	ui.enterStage(1)
	ui.applyPlaybackSettings()
	ui.SaveConfig()
	ui.animateProgress(1, MinStatusDisplayTime)

	ui.enterStage(2)
	ui.setupUI()
	ui.stationService.StartPeriodicRefresh(RefreshInterval, ui.onStationsRefreshed)
	ui.watchOnce.Do(func() { go ui.watchPlayback(ui.ctrl.Subscribe()) })
	ui.animateProgress(2, MinStatusDisplayTime)

	if wait := MinLoadingDisplayTime - time.Since(started); wait > 0 {
		time.Sleep(wait)
	}
	log.Debug().Dur("elapsed", time.Since(started)).Msg("Interface ready")

	ui.app.QueueUpdateDraw(func() {
		ui.app.SetRoot(ui.pages, true).EnableMouse(true)
		ui.app.SetFocus(ui.stationList)
		ui.restoreStation()
	})
	return nil
}

// restoreStation picks the first station to show: a random one when asked,
// otherwise the last one, which starts playing when autostart is on.
func (ui *UI) restoreStation() {
	if ui.startRandom {
		ui.randomStation()
		return
	}

	index := ui.stationService.FindIndexByID(ui.config.LastStation)
	switch {
	case index < 0:
		if ui.config.LastStation != "" {
			log.Debug().Str("station", ui.config.LastStation).Msg("Last station not found")
		}
		ui.selectAndShowStation(0)
	case ui.config.Autostart:
		log.Debug().Str("station", ui.config.LastStation).Msg("Autostart: resuming last station")
		ui.playStationAt(index)
	default:
		ui.selectAndShowStation(index)
	}
}

// applyPlaybackSettings pushes the persisted loop, shuffle, quality and
// autoplay settings into the controller.
func (ui *UI) applyPlaybackSettings() {
	errs := []error{
		ui.ctrl.SetAutoAdvance(ui.config.Autoplay),
		ui.ctrl.SetLoop(ui.config.Loop),
		ui.ctrl.SetShuffle(ui.config.Shuffle),
		ui.ctrl.SetQuality(ui.config.Quality),
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("Failed to apply playback settings")
	}
}

// padded surrounds p with blank cells of the given color.
func padded(p tview.Primitive, vertical, horizontal int, bg tcell.Color) *tview.Flex {
	row := tview.NewFlex().
		AddItem(nil, horizontal, 0, false).
		AddItem(p, 0, 1, true).
		AddItem(nil, horizontal, 0, false)
	row.SetBackgroundColor(bg)

	outer := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, vertical, 0, false).
		AddItem(row, 0, 1, true).
		AddItem(nil, vertical, 0, false)
	outer.SetBackgroundColor(bg)
	return outer
}

func (ui *UI) setupUI() {
	ui.playerPanel = tview.NewFlex().SetDirection(tview.FlexRow)
	ui.playerPanel.SetBackgroundColor(ui.colors.background)
	ui.stationList = ui.createStationListTable()
	ui.helpPanel = ui.createFooter()

	ui.contentLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.createHeader(), HeaderHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.playerPanel, PlayerPanelHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.stationList, 0, 1, true).
		AddItem(ui.helpPanel, FooterHeightWide, 0, false)
	ui.contentLayout.SetBackgroundColor(ui.colors.background)

	ui.mainLayout = padded(ui.contentLayout, 1, 3, ui.colors.background)

	ui.pages = tview.NewPages().AddPage("main", ui.mainLayout, true, true)
	ui.pages.SetBackgroundColor(ui.colors.background)

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if ui.pages.HasPage(modalPage) || ui.pages.HasPage(errorModalPage) {
			return event
		}
		return ui.globalInputHandler(event)
	})
}

func (ui *UI) createHeader() tview.Primitive {
	bg := ui.colors.headerBackground
	title := ui.textBlock(" "+config.AppName, tview.AlignLeft, bg)
	version := ui.textBlock("v"+config.AppVersion+" ", tview.AlignRight, bg)

	line := tview.NewFlex().
		AddItem(title, 0, 1, false).
		AddItem(version, 10, 0, false)
	line.SetBackgroundColor(bg)

	return padded(line, 1, 1, bg)
}

// onStationSelected builds the station playlist off the UI goroutine and
// hands it to the controller with autoplay.
func (ui *UI) onStationSelected(index int) {
	st := ui.stationService.GetStation(index)
	if st == nil {
		return
	}

	state := ui.ctrl.State()
	if st.ID == state.StationID && state.IsPlaying {
		return
	}

	ui.safeCloseChannel()
	ui.recreateStopChannel()

	previous := ui.playingIndex
	ui.playingIndex = index
	ui.currentStation = st
	ui.playingStationID = st.ID
	if previous != index {
		ui.setStationRow(previous)
	}
	ui.updateStationListPlayingIndicator()
	ui.SaveConfig()

	ui.showStationPanel(*st)
	ui.currentTrackView.SetText(fmt.Sprintf(" [%s]Loading playlist...[-]", ui.colors.foreground.String()))

	ui.startPlayingAnimation()

	go func(st quran.Station) {
		ctx, cancel := context.WithTimeout(context.Background(), PlaylistFetchTimeout)
		defer cancel()

		log.Info().Str("station", st.ID).Str("reciter", st.ReciterID).Msg("Starting playback")
		p, err := ui.stationService.Playlist(ctx, st)
		if err == nil {
			err = ui.ctrl.SetStation(st.ID, p, true)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, radio.ErrStopped) {
				return
			}
			log.Error().Err(err).Str("station", st.ID).Msg("Failed to play station")
			ui.app.QueueUpdateDraw(func() {
				ui.showError(err)
			})
		}
	}(*st)
}

func (ui *UI) showStationPanel(st quran.Station) {
	ui.playerPanel.Clear()
	ui.playerPanel.AddItem(ui.createContentPanel(st), 0, 1, false)
}

func (ui *UI) newLabel(text string) *tview.TextView {
	label := tview.NewTextView()
	label.SetText(text)
	label.SetTextColor(ui.colors.foreground)
	label.SetBackgroundColor(ui.colors.background)
	label.SetWrap(false)
	return label
}

func (ui *UI) newValue(text string, color tcell.Color, bold bool) *tview.TextView {
	view := tview.NewTextView()
	view.SetDynamicColors(true)
	view.SetText(fmt.Sprintf(" [%s]%s[-]", color.String(), tview.Escape(text)))
	view.SetTextColor(color)
	view.SetBackgroundColor(ui.colors.background)
	view.SetWrap(false)
	if bold {
		view.SetTextStyle(tcell.StyleDefault.Background(ui.colors.background).Attributes(tcell.AttrBold))
	}
	return view
}

func (ui *UI) createContentPanel(st quran.Station) *tview.Flex {
	reciter := st.Description
	if reciter == "" {
		reciter = "Reciter " + st.ReciterID
	}

	ui.currentTrackView = ui.newValue("-", ui.colors.highlight, true)
	ui.flagsView = ui.newValue("", ui.colors.foreground, false)

	infoContent := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.newLabel(" Station:"), 1, 0, false).
		AddItem(ui.newValue(st.Title, ui.colors.highlight, true), 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.newLabel(" Playing:"), 1, 0, false).
		AddItem(ui.currentTrackView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.newLabel(" Surahs:"), 1, 0, false).
		AddItem(ui.newValue(st.Surahs.String()+" · "+reciter, ui.colors.foreground, false), 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.flagsView, 1, 0, false).
		AddItem(nil, 0, 1, false)
	infoContent.SetBackgroundColor(ui.colors.background)

	ui.trackList = ui.createTrackListTable()

	ui.volumeView = ui.createGraphicalVolumeBar()

	columns := tview.NewFlex().
		AddItem(infoContent, 0, 1, false).
		AddItem(ui.trackList, TrackListWidth, 0, false).
		AddItem(ui.volumeView, 7, 0, false)
	columns.SetBackgroundColor(ui.colors.background)

	ui.updateNowPlaying(ui.ctrl.State())
	return padded(columns, 0, 4, ui.colors.background)
}

type PlayingSpinner struct {
	Frames []string
	FPS    time.Duration
}

func NewPlayingSpinner() *PlayingSpinner {
	return &PlayingSpinner{
		Frames: []string{"⣾ ", "⣽ ", "⣻ ", "⢿ ", "⡿ ", "⣟ ", "⣯ ", "⣷ "},
		FPS:    time.Second / 10,
	}
}

func (ui *UI) getPlayingIndicator() string {
	if ui.playingSpinner == nil {
		ui.playingSpinner = NewPlayingSpinner()
	}
	ui.mu.Lock()
	frame := ui.animationFrame
	ui.mu.Unlock()
	return ui.playingSpinner.Frames[frame%len(ui.playingSpinner.Frames)]
}

func (ui *UI) startPlayingAnimation() {
	if ui.playingSpinner == nil {
		ui.playingSpinner = NewPlayingSpinner()
	}
	stop := ui.stopChannel()

	go func() {
		ticker := time.NewTicker(ui.playingSpinner.FPS)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ui.mu.Lock()
				ui.animationFrame++
				ui.mu.Unlock()
				ui.statusRenderer.AdvanceAnimation()
				ui.app.QueueUpdateDraw(ui.updateStationListPlayingIndicator)
			}
		}
	}()
}

// watchPlayback forwards controller events to the UI goroutine and records
// every started track in the listening history.
func (ui *UI) watchPlayback(sub *radio.Subscription) {
	for {
		select {
		case <-sub.Done:
			return
		case state := <-sub.StateChanged:
			ui.app.QueueUpdateDraw(func() {
				ui.updateNowPlaying(state)
				ui.updateStationListPlayingIndicator()
			})
		case change := <-sub.TrackChanged:
			log.Debug().Str("station", change.StationID).Int("index", change.Index).Str("track", change.Track.DisplayTitle()).Msg("Track changed")
			ui.recordPlay(change)
		case failed := <-sub.TrackFailed:
			log.Warn().Int("index", failed.Index).Str("track", failed.Track.DisplayTitle()).Str("reason", failed.Err).Msg("Track failed")
		}
	}
}

func (ui *UI) recordPlay(change radio.TrackChange) {
	if ui.library == nil || change.Track.URL == "" {
		return
	}
	if err := ui.library.RecordPlay(change.StationID, change.Track); err != nil {
		log.Debug().Err(err).Msg("Failed to record play")
	}
}

func (ui *UI) updateNowPlaying(state radio.State) {
	if ui.currentTrackView == nil || ui.currentStation == nil {
		return
	}
	if state.StationID != ui.currentStation.ID {
		return
	}

	if track, ok := state.Current(); ok {
		ui.currentTrackView.SetText(fmt.Sprintf(" [%s]%s[-]  [::d]%d/%d[::-]",
			ui.colors.highlight.String(),
			tview.Escape(track.DisplayTitle()),
			state.TrackIndex+1, len(state.Playlist)))
	}

	if ui.flagsView != nil {
		ui.flagsView.SetText(" " + ui.formatFlags(state))
	}

	ui.refreshTrackList(state)
}

// formatFlags renders the loop, shuffle, quality and failure markers.
func (ui *UI) formatFlags(state radio.State) string {
	on := ui.colors.highlight.String()
	off := ui.colors.foreground.String()
	flag := func(name string, enabled bool) string {
		if enabled {
			return fmt.Sprintf("[%s::b]%s[-::-]", on, name)
		}
		return fmt.Sprintf("[%s::d]%s[-::-]", off, name)
	}

	parts := []string{
		flag("LOOP", state.Loop),
		flag("SHUFFLE", state.Shuffle),
		qualityShort(state.Quality),
	}
	if n := len(state.Errors); n > 0 {
		parts = append(parts, fmt.Sprintf("[%s]⚠ %d failed[-]", ui.colors.warning.String(), n))
	}
	return strings.Join(parts, "  ")
}

func (ui *UI) onStationsRefreshed([]quran.Station) {
	ui.app.QueueUpdateDraw(ui.refreshStationTable)
}

func (ui *UI) togglePlay() {
	state := ui.ctrl.State()
	if state.StationID == "" {
		ui.playSelected()
		return
	}
	if err := ui.ctrl.TogglePlay(); err != nil {
		log.Debug().Err(err).Msg("Toggle play failed")
	}
	ui.updateStationListPlayingIndicator()
}

func (ui *UI) toggleLoop() {
	if err := ui.ctrl.ToggleLoop(); err != nil {
		return
	}
	ui.config.Loop = ui.ctrl.State().Loop
	go ui.SaveConfig()
}

func (ui *UI) toggleShuffle() {
	if err := ui.ctrl.ToggleShuffle(); err != nil {
		return
	}
	ui.config.Shuffle = ui.ctrl.State().Shuffle
	go ui.SaveConfig()
}

func (ui *UI) toggleQuality() {
	next := ui.ctrl.State().Quality.Other()
	if err := ui.ctrl.SetQuality(next); err != nil {
		return
	}
	ui.config.Quality = next
	go ui.SaveConfig()
}

func (ui *UI) bookmarkCurrent() {
	track, ok := ui.ctrl.State().Current()
	if !ok {
		return
	}
	if ui.library == nil {
		ui.showInfoModal("Bookmark", "The library is not available.")
		return
	}
	if _, err := ui.library.AddBookmark(track, ""); err != nil {
		log.Error().Err(err).Msg("Failed to add bookmark")
		ui.showError(err)
		return
	}
	log.Debug().Str("track", track.DisplayTitle()).Msg("Bookmarked")
	ui.showInfoModal("Bookmark", fmt.Sprintf("Bookmarked [::b]%s[::-]", tview.Escape(track.DisplayTitle())))
}

func (ui *UI) playSelected() {
	row, _ := ui.stationList.GetSelection()
	ui.onStationSelected(row - 1)
}

// keyBindings maps runes to actions. Upper and lower case share an action
// except for b, where B lists the bookmarks.
func (ui *UI) keyBindings() map[rune]func() {
	bindings := map[rune]func(){
		'q': ui.stop,
		' ': ui.togglePlay,
		'n': func() { _ = ui.ctrl.NextTrack() },
		'p': func() { _ = ui.ctrl.PrevTrack() },
		'l': ui.toggleLoop,
		's': ui.toggleShuffle,
		'c': ui.toggleQuality,
		'h': ui.showHistoryModal,
		'>': ui.nextStation,
		'<': ui.prevStation,
		'r': ui.randomStation,
		'f': ui.toggleFavorite,
		'+': func() { ui.adjustVolume(VolumeStep) },
		'=': func() { ui.adjustVolume(VolumeStep) },
		'-': func() { ui.adjustVolume(-VolumeStep) },
		'_': func() { ui.adjustVolume(-VolumeStep) },
		'm': ui.toggleMute,
		'?': ui.showHelpModal,
		'a': ui.showAboutModal,
	}
	for r, action := range bindings {
		if upper := unicode.ToUpper(r); upper != r {
			bindings[upper] = action
		}
	}
	bindings['b'] = ui.bookmarkCurrent
	bindings['B'] = ui.showBookmarksModal
	return bindings
}

func (ui *UI) globalInputHandler(event *tcell.EventKey) *tcell.EventKey {
	if ui.bindings == nil {
		ui.bindings = ui.keyBindings()
	}

	var action func()
	switch event.Key() {
	case tcell.KeyRune:
		action = ui.bindings[event.Rune()]
	case tcell.KeyEnter:
		action = ui.playSelected
	case tcell.KeyEscape:
		action = ui.stop
	case tcell.KeyRight:
		action = func() { ui.adjustVolume(VolumeStep) }
	case tcell.KeyLeft:
		action = func() { ui.adjustVolume(-VolumeStep) }
	}
	if action == nil {
		return event
	}
	action()
	return nil
}
