package ui

import (
	"time"

	"github.com/RonishNadar/mta-train-updates/internal/config"
	"github.com/RonishNadar/mta-train-updates/internal/leavetime"
	"github.com/RonishNadar/mta-train-updates/internal/state"
	"github.com/RonishNadar/mta-train-updates/internal/weather"
)

// PageKind classifies the current page.
type PageKind string

const (
	PageHome     PageKind = "HOME"
	PageStation  PageKind = "STATION"
	PageSettings PageKind = "SETTINGS"
)

// Renderer receives one frame per UI wake. Implementations must be
// non-blocking or bounded-fast; the LCD driver sits behind this port.
type Renderer interface {
	Render(Frame)
}

// Frame is a complete render instruction for the display.
type Frame struct {
	Page      PageKind
	PageIndex int
	PageCount int
	Clock     time.Time
	Flash     string

	// Exactly one of the following is set, matching Page.
	Home     *HomeView
	Station  *StationView
	Settings *SettingsView
}

// HomeView shows the favorite's leave-time advisory and the weather.
type HomeView struct {
	// FavoriteName is empty when no favorite is set.
	FavoriteName string
	Advisory     leavetime.Advisory
	Weather      WeatherView
}

// WeatherView is the weather snapshot converted to the configured unit.
type WeatherView struct {
	Available     bool
	Condition     string
	Kind          string
	PrecipProbPct *int
	Temp          *float64
	FeelsLike     *float64
	Unit          string // "C" or "F"
}

// StationView shows upcoming arrivals for one station page.
type StationView struct {
	Station  config.Station
	Arrivals []ArrivalView
	// Stale means the data aged out and must not be shown as live.
	Stale bool
	// NoData means no fetch ever succeeded for this station.
	NoData    bool
	LastError string
}

// ArrivalView is one countdown line.
type ArrivalView struct {
	Route  string
	ETAMin int
}

// SettingsView shows the editable fields and cursor.
type SettingsView struct {
	Cursor int
	Fields []SettingField
}

// SettingField is one line on the settings page.
type SettingField struct {
	Label string
	Value string
}

func (m *Machine) buildFrame(now time.Time, snapshots map[string]state.ArrivalSnapshot, wx weather.Snapshot) Frame {
	frame := Frame{
		PageIndex: m.page,
		PageCount: m.pageCount(),
		Clock:     now,
		Flash:     m.flash,
	}

	switch {
	case m.page == 0:
		frame.Page = PageHome
		frame.Home = m.buildHome(now, snapshots, wx)
	case m.page == m.settingsPage():
		frame.Page = PageSettings
		frame.Settings = &SettingsView{
			Cursor: m.cursor,
			Fields: []SettingField{
				{Label: "Temp unit", Value: m.cfg.App.TempUnit},
				{Label: "Reload settings", Value: ""},
			},
		}
	default:
		frame.Page = PageStation
		st, _ := m.stationAt(m.page)
		frame.Station = m.buildStation(now, st, snapshots)
	}

	return frame
}

func (m *Machine) buildHome(now time.Time, snapshots map[string]state.ArrivalSnapshot, wx weather.Snapshot) *HomeView {
	view := &HomeView{
		Advisory: leavetime.Advisory{State: leavetime.StateNoData},
		Weather:  buildWeather(wx, m.cfg.App.TempUnit),
	}

	if m.favorite != "" {
		if st, ok := m.cfg.StationByKey(m.favorite); ok {
			view.FavoriteName = st.StopName
			view.Advisory = leavetime.Evaluate(now, snapshots[m.favorite],
				m.cfg.App.LeaveBuffer(), m.cfg.App.StaleAfter())
			if m.observe != nil {
				m.observe(m.favorite, view.Advisory)
			}
		}
	}

	return view
}

func (m *Machine) buildStation(now time.Time, st config.Station, snapshots map[string]state.ArrivalSnapshot) *StationView {
	snap := snapshots[st.Key()]
	view := &StationView{
		Station:   st,
		NoData:    snap.NeverFetched(),
		Stale:     snap.Stale(now, m.cfg.App.StaleAfter()),
		LastError: snap.LastError,
	}
	if view.Stale {
		// Stale countdowns must not be rendered as live numbers.
		return view
	}

	limit := m.cfg.App.PrintLimit
	for _, a := range snap.Arrivals {
		if len(view.Arrivals) >= limit {
			break
		}
		etaMin := int(a.ETA.Sub(now).Round(time.Minute) / time.Minute)
		if etaMin < 0 {
			etaMin = 0
		}
		view.Arrivals = append(view.Arrivals, ArrivalView{Route: a.Route, ETAMin: etaMin})
	}
	return view
}

func buildWeather(wx weather.Snapshot, unit string) WeatherView {
	view := WeatherView{
		Available:     !wx.NeverFetched(),
		Condition:     wx.ConditionText,
		Kind:          wx.ConditionKind,
		PrecipProbPct: wx.PrecipProbPct,
		Temp:          wx.TempC,
		FeelsLike:     wx.FeelsLikeC,
		Unit:          unit,
	}
	if unit == "F" {
		view.Temp = weather.CToF(wx.TempC)
		view.FeelsLike = weather.CToF(wx.FeelsLikeC)
	}
	return view
}
