package ui

import (
	"fmt"
	"strings"

	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const volumeBarHeight = 10

// volumeBarLines renders a vertical gauge from top to bottom: a "max" label,
// the bar cells and a "min" label. The percentage sits next to the topmost
// filled cell.
func volumeBarLines(volume int, muted bool, barColor, dimColor string) []string {
	volume = config.ClampVolume(volume)
	filled := (volume * volumeBarHeight) / 100

	lines := make([]string, 0, volumeBarHeight+2)
	lines = append(lines, "   max")
	for i := 0; i < volumeBarHeight; i++ {
		if i < volumeBarHeight-filled {
			lines = append(lines, fmt.Sprintf("    [%s]░░[-]", dimColor))
			continue
		}
		label := "    "
		if i == volumeBarHeight-filled {
			label = fmt.Sprintf("%3d%%", volume)
			if muted {
				label = fmt.Sprintf("[%s::s]%s[-::-]", barColor, label)
			}
		}
		lines = append(lines, fmt.Sprintf("%s[%s]██[-]", label, barColor))
	}
	lines = append(lines, "   min")
	return lines
}

func (ui *UI) createGraphicalVolumeBar() *tview.Flex {
	ui.volumeText = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignRight)
	ui.volumeText.SetTextColor(ui.colors.foreground)
	ui.volumeText.SetBackgroundColor(ui.colors.background)

	container := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.volumeText, volumeBarHeight+2, 0, false).
		AddItem(nil, 0, 1, false)
	container.SetBackgroundColor(ui.colors.background)

	ui.updateVolumeDisplay()
	return container
}

func (ui *UI) updateVolumeDisplay() {
	if ui.volumeText == nil {
		return
	}

	ui.mu.Lock()
	display, muted := ui.currentVolume, ui.isMuted
	if muted {
		display = ui.config.Volume
	}
	ui.mu.Unlock()

	barColor := ui.colors.highlight
	if muted {
		barColor = ui.colors.warning
	}
	lines := volumeBarLines(display, muted, barColor.String(), ui.colors.foreground.String())
	ui.volumeText.SetText(strings.Join(lines, "\n"))
}

// adjustVolume changes the volume by delta. A change while muted restores
// the saved volume instead.
func (ui *UI) adjustVolume(delta int) {
	ui.mu.Lock()
	wasMuted := ui.isMuted
	if wasMuted {
		ui.currentVolume = ui.config.Volume
		ui.isMuted = false
	} else {
		ui.currentVolume = config.ClampVolume(ui.currentVolume + delta)
	}
	volume := ui.currentVolume
	ui.mu.Unlock()

	ui.statusRenderer.SetMuted(false)
	ui.setVolume(volume)
	ui.updateVolumeDisplay()

	if wasMuted {
		log.Debug().Int("volume", volume).Msg("Unmuted by volume change")
		return
	}
	ui.SaveConfig()
	log.Debug().Int("volume", volume).Msg("Volume adjusted")
}

// toggleMute silences the output and keeps the previous volume in the config
// so it survives a restart while muted.
func (ui *UI) toggleMute() {
	ui.mu.Lock()
	if ui.isMuted {
		ui.currentVolume = ui.config.Volume
	} else {
		ui.config.Volume = ui.currentVolume
		if ui.config.Volume == 0 {
			ui.config.Volume = config.DefaultVolume
		}
		ui.currentVolume = 0
	}
	ui.isMuted = !ui.isMuted
	muted, volume := ui.isMuted, ui.currentVolume
	ui.mu.Unlock()

	ui.statusRenderer.SetMuted(muted)
	ui.setVolume(volume)
	ui.updateVolumeDisplay()
	ui.SaveConfig()
	log.Debug().Bool("muted", muted).Int("saved_volume", ui.config.Volume).Msg("Mute toggled")
}
