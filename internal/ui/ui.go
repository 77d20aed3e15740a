// Package ui owns the page/cursor/favorite state machine driven by button
// events and a periodic render tick. It is the only writer of its navigation
// state, so no locking is needed; all shared data arrives through snapshot
// reads of the state store.
package ui

import (
	"context"
	"log"
	"time"

	"github.com/RonishNadar/mta-train-updates/internal/buttons"
	"github.com/RonishNadar/mta-train-updates/internal/config"
	"github.com/RonishNadar/mta-train-updates/internal/leavetime"
	"github.com/RonishNadar/mta-train-updates/internal/state"
)

// DefaultTick is the render cadence: countdowns and the clock advance every
// second even with no input.
const DefaultTick = time.Second

// flashDuration is how long a confirmation message stays on screen.
const flashDuration = 2 * time.Second

// Settings page cursor positions.
const (
	SettingTempUnit = iota
	SettingReload
	settingCount
)

// Machine is the button-driven UI state machine.
type Machine struct {
	store    *state.Store
	renderer Renderer
	events   <-chan buttons.Event
	now      func() time.Time
	tick     time.Duration

	// cfg is the machine's private copy. Settings edits mutate it freely;
	// nothing outside the Run goroutine ever sees those writes except
	// through the save callback.
	cfg     *config.Config
	save    func(*config.Config) error
	reload  func()
	observe func(stationKey string, adv leavetime.Advisory)

	swaps chan *config.Config

	// Navigation state. Single writer: the Run goroutine.
	page       int
	favorite   string
	cursor     int
	flash      string
	flashUntil time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithTick overrides the render tick interval.
func WithTick(d time.Duration) Option {
	return func(m *Machine) { m.tick = d }
}

// WithSave sets the persistence callback invoked when the favorite or a
// setting changes. The callback receives the machine's own config and must
// copy it rather than retain the pointer past the call.
func WithSave(save func(*config.Config) error) Option {
	return func(m *Machine) { m.save = save }
}

// WithReload sets the callback fired by the settings page reload action.
func WithReload(reload func()) Option {
	return func(m *Machine) { m.reload = reload }
}

// WithAdvisoryObserver sets a hook called with the favorite's advisory on
// every home-page render (telemetry).
func WithAdvisoryObserver(fn func(stationKey string, adv leavetime.Advisory)) Option {
	return func(m *Machine) { m.observe = fn }
}

// New creates a Machine starting on the home page. The favorite is seeded
// from the configured favorite_station_index when valid. The config is
// copied; the caller's value is never mutated.
func New(cfg *config.Config, store *state.Store, events <-chan buttons.Event, renderer Renderer, opts ...Option) *Machine {
	own := *cfg
	m := &Machine{
		store:    store,
		renderer: renderer,
		events:   events,
		now:      time.Now,
		tick:     DefaultTick,
		cfg:      &own,
		favorite: cfg.Favorite(),
		swaps:    make(chan *config.Config, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SwapConfig hands a freshly reloaded config to the machine; it takes effect
// on the machine's next wake.
func (m *Machine) SwapConfig(cfg *config.Config) {
	select {
	case m.swaps <- cfg:
	default:
		// A newer swap is already pending; replace it.
		select {
		case <-m.swaps:
		default:
		}
		m.swaps <- cfg
	}
}

// pageCount is home + stations + settings.
func (m *Machine) pageCount() int {
	return len(m.cfg.Stations) + 2
}

func (m *Machine) settingsPage() int {
	return m.pageCount() - 1
}

// stationAt returns the station shown on the given page, if it is a station
// page.
func (m *Machine) stationAt(page int) (config.Station, bool) {
	if page < 1 || page > len(m.cfg.Stations) {
		return config.Station{}, false
	}
	return m.cfg.Stations[page-1], true
}

// Run consumes button events and render ticks until the context is
// cancelled, emitting one render instruction per wake. Events are handled
// before the frame is built, so a press is always reflected in the very next
// render.
func (m *Machine) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	m.render()

	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-m.swaps:
			m.applyConfig(cfg)
			m.render()
		case ev, ok := <-m.events:
			if !ok {
				return
			}
			m.handle(ev)
			m.drainEvents()
			m.render()
		case <-ticker.C:
			// When input and the tick race, input wins: anything already
			// queued is applied before this frame is built.
			m.drainEvents()
			m.render()
		}
	}
}

// drainEvents applies every event already queued without blocking.
func (m *Machine) drainEvents() {
	for {
		select {
		case ev, ok := <-m.events:
			if !ok {
				return
			}
			m.handle(ev)
		default:
			return
		}
	}
}

// applyConfig swaps in a reloaded config, taking a private copy. The page is
// clamped to the new page count and a favorite whose station was removed is
// cleared.
func (m *Machine) applyConfig(cfg *config.Config) {
	own := *cfg
	m.cfg = &own
	if m.page >= m.pageCount() {
		m.page = m.pageCount() - 1
	}
	if m.favorite != "" {
		if _, ok := cfg.StationByKey(m.favorite); !ok {
			log.Printf("ui: favorite station %s removed from settings, clearing", m.favorite)
			m.favorite = ""
		}
	}
	if m.cursor >= settingCount {
		m.cursor = settingCount - 1
	}
}

func (m *Machine) handle(ev buttons.Event) {
	switch ev.Kind {
	case buttons.Press:
		m.handlePress(ev)
	case buttons.HoldReached:
		m.handleHold(ev)
	case buttons.Release:
		// Hold releases carry no UI meaning.
	}
}

func (m *Machine) handlePress(ev buttons.Event) {
	n := m.pageCount()
	switch ev.Button {
	case buttons.Left:
		m.page = (m.page - 1 + n) % n
	case buttons.Right:
		m.page = (m.page + 1) % n
	case buttons.Select:
		if m.page == m.settingsPage() {
			m.applySetting()
		}
		// On home and station pages a short select is "refresh view": the
		// render after this handler re-reads shared state. Data fetches stay
		// interval-driven.
	case buttons.Up:
		if m.page == m.settingsPage() && m.cursor > 0 {
			m.cursor--
		}
	case buttons.Down:
		if m.page == m.settingsPage() && m.cursor < settingCount-1 {
			m.cursor++
		}
	}
}

// handleHold assigns the favorite when SELECT is held on a station page.
// Holds elsewhere are ignored.
func (m *Machine) handleHold(ev buttons.Event) {
	if ev.Button != buttons.Select {
		return
	}
	st, ok := m.stationAt(m.page)
	if !ok {
		return
	}

	m.setFlash("Favorite: " + st.StopName)
	if m.favorite == st.Key() {
		return // re-holding the favorite changes nothing
	}
	m.favorite = st.Key()
	m.persistFavorite(st)
}

func (m *Machine) persistFavorite(st config.Station) {
	if m.save == nil {
		return
	}
	for i, s := range m.cfg.Stations {
		if s.Key() == st.Key() {
			m.cfg.App.FavoriteStationIndex = i
			break
		}
	}
	if err := m.save(m.cfg); err != nil {
		log.Printf("ui: persist favorite: %v", err)
	}
}

// applySetting performs the edit under the settings cursor. Changes apply to
// the in-memory config immediately; persistence goes through the save
// callback.
func (m *Machine) applySetting() {
	switch m.cursor {
	case SettingTempUnit:
		if m.cfg.App.TempUnit == "C" {
			m.cfg.App.TempUnit = "F"
		} else {
			m.cfg.App.TempUnit = "C"
		}
		m.setFlash("Temp unit: " + m.cfg.App.TempUnit)
		if m.save != nil {
			if err := m.save(m.cfg); err != nil {
				log.Printf("ui: persist settings: %v", err)
			}
		}
	case SettingReload:
		if m.reload != nil {
			m.setFlash("Reloading...")
			m.reload()
		}
	}
}

func (m *Machine) setFlash(msg string) {
	m.flash = msg
	m.flashUntil = m.now().Add(flashDuration)
}

// render reads one consistent snapshot, derives the view for the current
// page, and emits a single render instruction.
func (m *Machine) render() {
	now := m.now()
	if m.flash != "" && now.After(m.flashUntil) {
		m.flash = ""
	}

	snapshots, wx := m.store.Read()
	frame := m.buildFrame(now, snapshots, wx)
	m.renderer.Render(frame)
}
