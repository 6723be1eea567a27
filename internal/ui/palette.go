package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/quran-radio/internal/config"
)

// palette holds the resolved theme colors.
type palette struct {
	background                  tcell.Color
	foreground                  tcell.Color
	borders                     tcell.Color
	highlight                   tcell.Color
	warning                     tcell.Color
	headerBackground            tcell.Color
	stationListHeaderBackground tcell.Color
	stationListHeaderForeground tcell.Color
	helpBackground              tcell.Color
	helpForeground              tcell.Color
	helpHotkey                  tcell.Color
	modalBackground             tcell.Color
}

func newPalette(t config.Theme) palette {
	c := config.GetColor
	return palette{
		background:                  c(t.Background),
		foreground:                  c(t.Foreground),
		borders:                     c(t.Borders),
		highlight:                   c(t.Highlight),
		warning:                     c(t.Warning),
		headerBackground:            c(t.HeaderBackground),
		stationListHeaderBackground: c(t.StationListHeaderBackground),
		stationListHeaderForeground: c(t.StationListHeaderForeground),
		helpBackground:              c(t.HelpBackground),
		helpForeground:              c(t.HelpForeground),
		helpHotkey:                  c(t.HelpHotkey),
		modalBackground:             c(t.ModalBackground),
	}
}
