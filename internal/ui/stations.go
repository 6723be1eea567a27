package ui

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/radio"
	"github.com/glebovdev/quran-radio/internal/service"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

// stationColumn lays out one column of the station table.
type stationColumn struct {
	header    string
	maxWidth  int
	expansion int
	align     int
}

const (
	colFavorite = iota
	colPlaying
	colName
	colSurahs
	colKind
)

const maxNameWidth = 35

var stationColumns = []stationColumn{
	colFavorite: {header: " ", maxWidth: 2},
	colPlaying:  {header: " ", maxWidth: 2},
	colName:     {header: "Name", maxWidth: maxNameWidth, expansion: 2},
	colSurahs:   {header: "Surahs", maxWidth: 27, expansion: 1},
	colKind:     {header: "Kind", align: tview.AlignRight},
}

func (c stationColumn) cell(text string) *tview.TableCell {
	cell := tview.NewTableCell(text).SetAlign(c.align)
	if c.maxWidth > 0 {
		cell.SetMaxWidth(c.maxWidth)
	}
	if c.expansion > 0 {
		cell.SetExpansion(c.expansion)
	}
	return cell
}

func (ui *UI) createStationListTable() *tview.Table {
	table := tview.NewTable().
		SetSeparator(' ').
		SetSelectable(true, false).
		SetFixed(1, 0)

	table.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetTitleColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background).
		SetBorderPadding(1, 0, 1, 1)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(ui.colors.background).
		Background(ui.colors.highlight))

	for col, c := range stationColumns {
		table.SetCell(0, col, c.cell(c.header).
			SetTextColor(ui.colors.stationListHeaderForeground).
			SetBackgroundColor(ui.colors.stationListHeaderBackground).
			SetSelectable(false))
	}

	ui.stationList = table
	ui.fillStationRows()

	table.SetSelectionChangedFunc(func(row, _ int) {
		if s := ui.stationService.GetStation(row - 1); s != nil {
			ui.selectedStationID = s.ID
		}
	})

	return table
}

func (ui *UI) fillStationRows() {
	count := ui.stationService.StationCount()
	for i := 0; i < count; i++ {
		ui.setStationRow(i)
	}
	ui.stationList.SetTitle(fmt.Sprintf("Stations (%d)", count))
}

func (ui *UI) setStationRow(index int) {
	s := ui.stationService.GetStation(index)
	if s == nil {
		return
	}

	fav := " "
	if ui.config.IsFavorite(s.ID) {
		fav = "★"
	}
	playing := " "
	if index == ui.playingIndex {
		playing = ui.playIcon(ui.ctrl.State())
	}

	texts := []string{
		colFavorite: fav,
		colPlaying:  playing,
		colName:     s.Title,
		colSurahs:   surahSummary(*s),
		colKind:     stationKind(*s),
	}
	for col, text := range texts {
		ui.stationList.SetCell(index+1, col, stationColumns[col].cell(text).
			SetTextColor(ui.colors.foreground))
	}
}

// surahSummary names a short selection and counts a long one.
func surahSummary(st quran.Station) string {
	if st.Surahs.All {
		return "All 114"
	}
	ids := st.Surahs.IDs
	switch len(ids) {
	case 0:
		return "-"
	case 1:
		return fmt.Sprintf("%d. %s", ids[0], quran.SurahName(ids[0]))
	}
	if len(ids) <= 3 {
		return st.Surahs.String()
	}
	return fmt.Sprintf("%d surahs", len(ids))
}

func stationKind(st quran.Station) string {
	if strings.HasPrefix(st.ID, service.ReciterStationPrefix) {
		return "Reciter"
	}
	return "Curated"
}

// playIcon marks the playing station row.
func (ui *UI) playIcon(state radio.State) string {
	switch {
	case state.StationID != ui.playingStationID:
		return "…"
	case state.Blocked:
		return "⊘"
	case state.IsPlaying:
		return "➤"
	default:
		return PauseIcon
	}
}

func (ui *UI) nextStation() { ui.stepStation(1) }

func (ui *UI) prevStation() { ui.stepStation(-1) }

// stepStation plays the station delta rows away from the selection, wrapping
// around both ends of the list.
func (ui *UI) stepStation(delta int) {
	count := ui.stationService.StationCount()
	if count == 0 {
		return
	}
	row, _ := ui.stationList.GetSelection()
	ui.playStationAt(((row-1+delta)%count + count) % count)
}

func (ui *UI) randomStation() {
	if count := ui.stationService.StationCount(); count > 0 {
		ui.playStationAt(rand.IntN(count))
	}
}

func (ui *UI) playStationAt(index int) {
	ui.stationList.Select(index+1, 0)
	ui.onStationSelected(index)
}

func (ui *UI) selectAndShowStation(index int) {
	st := ui.stationService.GetStation(index)
	if st == nil {
		return
	}
	ui.currentStation = st
	ui.stationList.Select(index+1, 0)
	ui.showStationPanel(*st)
	log.Debug().Str("station", st.ID).Msg("Showing station without playing")
}

func (ui *UI) toggleFavorite() {
	row, _ := ui.stationList.GetSelection()
	st := ui.stationService.GetStation(row - 1)
	if st == nil {
		return
	}

	ui.config.ToggleFavorite(st.ID)
	ui.setStationRow(row - 1)
	go ui.SaveConfig()

	log.Debug().Str("station", st.ID).Bool("favorite", ui.config.IsFavorite(st.ID)).Msg("Favorite toggled")
}

// refreshStationTable redraws every row after the station list changed. Rows
// may have moved, so the playing and selected positions are found by ID.
func (ui *UI) refreshStationTable() {
	if ui.playingStationID != "" {
		if i := ui.stationService.FindIndexByID(ui.playingStationID); i >= 0 {
			ui.playingIndex = i
		}
	}

	ui.fillStationRows()

	if ui.selectedStationID != "" {
		if i := ui.stationService.FindIndexByID(ui.selectedStationID); i >= 0 {
			ui.stationList.Select(i+1, 0)
		}
	}

	log.Debug().Int("count", ui.stationService.StationCount()).Msg("Station table refreshed")
}

func (ui *UI) updateStationListPlayingIndicator() {
	s := ui.stationService.GetStation(ui.playingIndex)
	if s == nil {
		return
	}
	row := ui.playingIndex + 1
	state := ui.ctrl.State()

	if cell := ui.stationList.GetCell(row, colPlaying); cell != nil {
		cell.SetText(ui.playIcon(state))
	}
	cell := ui.stationList.GetCell(row, colName)
	if cell == nil {
		return
	}
	if state.StationID != s.ID || !state.IsPlaying {
		cell.SetText(s.Title)
		return
	}
	cell.SetText(withIndicator(s.Title, ui.getPlayingIndicator(), maxNameWidth))
}

// withIndicator appends indicator to name, shortening name so the result fits
// in width runes.
func withIndicator(name, indicator string, width int) string {
	room := width - len([]rune(indicator)) - 1
	if r := []rune(name); len(r) > room && room > 3 {
		name = string(r[:room-3]) + "..."
	}
	return name + " " + indicator
}

func (ui *UI) createTrackListTable() *tview.Table {
	table := tview.NewTable().
		SetBorders(false).
		SetSelectable(false, false)

	table.SetBorder(true).
		SetTitle("Playlist").
		SetBorderColor(ui.colors.borders).
		SetTitleColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)

	return table
}

// refreshTrackList redraws the playlist with the current and failed tracks
// marked, keeping the current track in view.
func (ui *UI) refreshTrackList(state radio.State) {
	if ui.trackList == nil {
		return
	}

	ui.trackList.Clear()
	for i, track := range state.Playlist {
		color := ui.colors.foreground
		marker := trackMarker(state, i)
		switch marker {
		case "➤":
			color = ui.colors.highlight
		case "⚠":
			color = ui.colors.warning
		}

		ui.trackList.SetCell(i, 0, tview.NewTableCell(marker).
			SetTextColor(color).
			SetMaxWidth(2))
		ui.trackList.SetCell(i, 1, tview.NewTableCell(track.DisplayTitle()).
			SetTextColor(color).
			SetExpansion(1))
	}

	ui.trackList.SetTitle(fmt.Sprintf("Playlist (%d)", len(state.Playlist)))

	offset := state.TrackIndex - 2
	if offset < 0 {
		offset = 0
	}
	ui.trackList.SetOffset(offset, 0)
}

// trackMarker returns the marker for the playlist row at index. A failed
// track keeps its warning even while it is current.
func trackMarker(state radio.State, index int) string {
	if _, failed := state.Errors[index]; failed {
		return "⚠"
	}
	if index == state.TrackIndex {
		return "➤"
	}
	return " "
}
