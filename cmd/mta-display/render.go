package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/RonishNadar/mta-train-updates/internal/leavetime"
	"github.com/RonishNadar/mta-train-updates/internal/ui"
)

// Display geometry of the 20x4 character LCD the real driver targets.
const (
	displayCols = 20
	displayRows = 4
)

// consoleRenderer writes each frame as a 20x4 text block. The character LCD
// driver implements the same ui.Renderer port.
type consoleRenderer struct {
	w    io.Writer
	last [displayRows]string
}

func newConsoleRenderer(w io.Writer) *consoleRenderer {
	return &consoleRenderer{w: w}
}

func (r *consoleRenderer) Render(f ui.Frame) {
	lines := frameLines(f)
	if lines == r.last {
		return // nothing changed, keep the terminal quiet
	}
	r.last = lines

	fmt.Fprintf(r.w, "+%s+\n", strings.Repeat("-", displayCols))
	for _, line := range lines {
		fmt.Fprintf(r.w, "|%s|\n", line)
	}
	fmt.Fprintf(r.w, "+%s+\n", strings.Repeat("-", displayCols))
}

func frameLines(f ui.Frame) [displayRows]string {
	var lines [displayRows]string

	switch f.Page {
	case ui.PageHome:
		lines = homeLines(f)
	case ui.PageStation:
		lines = stationLines(f)
	case ui.PageSettings:
		lines = settingsLines(f)
	}

	// Last row: flash message or clock, plus the page indicator.
	footer := f.Clock.Format("15:04")
	if f.Flash != "" {
		footer = f.Flash
	}
	page := fmt.Sprintf("< %d >", f.PageIndex)
	lines[3] = pad(footer, displayCols-5) + pad(page, 5)

	for i := range lines {
		lines[i] = pad(lines[i], displayCols)
	}
	return lines
}

func homeLines(f ui.Frame) [displayRows]string {
	var lines [displayRows]string
	home := f.Home

	if home.FavoriteName == "" {
		lines[0] = "No favorite set"
		lines[1] = "Hold SELECT on a"
		lines[2] = "station to pick one"
	} else {
		lines[0] = pad(home.FavoriteName, displayCols)
		lines[1] = advisoryLine(home.Advisory)
		lines[2] = weatherLine(home.Weather)
	}
	return lines
}

func advisoryLine(adv leavetime.Advisory) string {
	switch adv.State {
	case leavetime.StateCatchable:
		if adv.LeaveIn == 0 {
			return fmt.Sprintf("Leave NOW for %s", adv.Train.Route)
		}
		return fmt.Sprintf("Leave in %dm for %s", adv.LeaveIn, adv.Train.Route)
	case leavetime.StateNoFeasibleTrain:
		return "No catchable train"
	case leavetime.StateStale:
		return "-- data stale --"
	default:
		return "-- no data --"
	}
}

func weatherLine(wx ui.WeatherView) string {
	if !wx.Available {
		return ""
	}
	temp := "--"
	if wx.Temp != nil {
		temp = fmt.Sprintf("%.0f%s", *wx.Temp, wx.Unit)
	}
	pop := ""
	if wx.PrecipProbPct != nil {
		pop = fmt.Sprintf(" %d%%", *wx.PrecipProbPct)
	}
	return fmt.Sprintf("%s %s%s", wx.Condition, temp, pop)
}

func stationLines(f ui.Frame) [displayRows]string {
	var lines [displayRows]string
	st := f.Station

	arrow := "v"
	if st.Station.Direction == "N" {
		arrow = "^"
	}
	lines[0] = pad(st.Station.StopName, displayCols-2) + " " + arrow

	switch {
	case st.Stale && !st.NoData:
		lines[1] = "-- data stale --"
		lines[2] = truncate(st.LastError, displayCols)
	case st.NoData:
		lines[1] = "-- no data --"
		lines[2] = truncate(st.LastError, displayCols)
	case len(st.Arrivals) == 0:
		lines[1] = "No upcoming trains"
	default:
		for i := 0; i < 2 && i < len(st.Arrivals); i++ {
			a := st.Arrivals[i]
			left := fmt.Sprintf("%s> %s", truncate(a.Route, 3), st.Station.DirectionLabel)
			right := fmt.Sprintf("%dm", a.ETAMin)
			lines[1+i] = pad(left, displayCols-4) + fmt.Sprintf("%4s", right)
		}
	}
	return lines
}

func settingsLines(f ui.Frame) [displayRows]string {
	var lines [displayRows]string
	lines[0] = "Settings"

	for i, field := range f.Settings.Fields {
		if i >= 2 {
			break
		}
		cursor := "  "
		if i == f.Settings.Cursor {
			cursor = "> "
		}
		text := field.Label
		if field.Value != "" {
			text += ": " + field.Value
		}
		lines[1+i] = cursor + truncate(text, displayCols-2)
	}
	return lines
}

// pad and truncate count runes, not bytes, so a multi-byte character in a
// stop name or flash message is never split mid-sequence.

func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
