package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/RonishNadar/mta-train-updates/internal/buttons"
	"github.com/RonishNadar/mta-train-updates/internal/config"
	"github.com/RonishNadar/mta-train-updates/internal/leavetime"
	"github.com/RonishNadar/mta-train-updates/internal/state"
	"github.com/RonishNadar/mta-train-updates/internal/transit"
	"github.com/RonishNadar/mta-train-updates/internal/ui"
)

func statusConfig() *config.Config {
	return &config.Config{
		App: config.App{
			PollIntervalSec:      60,
			PrintLimit:           3,
			HTTPTimeoutSec:       10,
			LeaveBufferMin:       10,
			TempUnit:             "F",
			FavoriteStationIndex: 0,
		},
		Stations: []config.Station{
			{StopName: "Astoria Blvd", GTFSStopID: "R04", Direction: "S", Feed: "NQRW"},
			{StopName: "Court Sq", GTFSStopID: "G22", Direction: "S", Feed: "G"},
		},
	}
}

func TestBuildStatus(t *testing.T) {
	cfg := statusConfig()
	shared := state.NewStore()
	now := time.Now()

	// 30s past the whole minute so the clock advancing between here and
	// buildStatus cannot move the floor.
	shared.PublishArrivals("R04S", []transit.Arrival{
		{StopID: "R04S", Route: "N", ETA: now.Add(25*time.Minute + 30*time.Second)},
	}, now)
	shared.RecordError("G22S", "HTTP 503")

	payload := buildStatus(cfg, shared, "abc123", now.Add(-time.Minute))

	if payload.Session != "abc123" {
		t.Errorf("expected session stamped, got %q", payload.Session)
	}
	if payload.UptimeSec < 59 || payload.UptimeSec > 61 {
		t.Errorf("expected ~60s uptime, got %v", payload.UptimeSec)
	}
	if len(payload.Stations) != 2 {
		t.Fatalf("expected 2 station entries, got %d", len(payload.Stations))
	}

	r04 := payload.Stations[0]
	if !r04.IsFavorite || r04.Arrivals != 1 || r04.Stale {
		t.Errorf("unexpected R04S entry: %+v", r04)
	}
	g22 := payload.Stations[1]
	if g22.LastError != "HTTP 503" || !g22.Stale {
		t.Errorf("unexpected G22S entry: %+v", g22)
	}

	adv, ok := payload.Advisory.(map[string]any)
	if !ok {
		t.Fatal("expected an advisory entry for the favorite")
	}
	if adv["state"] != string(leavetime.StateCatchable) {
		t.Errorf("expected CATCHABLE advisory, got %v", adv["state"])
	}
	if adv["leave_in_min"] != 15 {
		t.Errorf("expected leave_in_min 15, got %v", adv["leave_in_min"])
	}
}

func TestBuildStatusWithoutFavorite(t *testing.T) {
	cfg := statusConfig()
	cfg.App.FavoriteStationIndex = -1

	payload := buildStatus(cfg, state.NewStore(), "abc123", time.Now())
	if payload.Advisory != nil {
		t.Errorf("expected no advisory without a favorite, got %v", payload.Advisory)
	}
}

func TestConsoleRendererStationFrame(t *testing.T) {
	var buf bytes.Buffer
	r := newConsoleRenderer(&buf)

	r.Render(ui.Frame{
		Page:      ui.PageStation,
		PageIndex: 1,
		PageCount: 4,
		Clock:     time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Station: &ui.StationView{
			Station: config.Station{
				StopName: "Astoria Blvd", Direction: "S", DirectionLabel: "Manhattan",
			},
			Arrivals: []ui.ArrivalView{
				{Route: "N", ETAMin: 4},
				{Route: "W", ETAMin: 9},
			},
		},
	})

	out := buf.String()
	for _, want := range []string{"Astoria Blvd", "N> Manhattan", "4m", "9m", "10:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestConsoleRendererSkipsUnchangedFrames(t *testing.T) {
	var buf bytes.Buffer
	r := newConsoleRenderer(&buf)

	frame := ui.Frame{
		Page:  ui.PageHome,
		Clock: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Home:  &ui.HomeView{},
	}
	r.Render(frame)
	first := buf.Len()
	r.Render(frame)

	if buf.Len() != first {
		t.Error("expected an identical frame not to be re-printed")
	}
}

func TestConsoleRendererStaleStation(t *testing.T) {
	var buf bytes.Buffer
	r := newConsoleRenderer(&buf)

	r.Render(ui.Frame{
		Page:  ui.PageStation,
		Clock: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Station: &ui.StationView{
			Station: config.Station{StopName: "Court Sq", Direction: "S"},
			Stale:   true,
		},
	})

	out := buf.String()
	if !strings.Contains(out, "stale") {
		t.Errorf("expected a stale marker, got:\n%s", out)
	}
}

// The UI goroutine edits settings while the HTTP status path reads the
// shared config. The main wiring keeps them apart by giving the machine
// its own copy and only ever replacing the shared pointer under a lock;
// this exercises that arrangement under the race detector.
func TestConcurrentStatusReadsDuringSettingsEdits(t *testing.T) {
	shared := state.NewStore()
	events := make(chan buttons.Event, 16)

	var mu sync.Mutex
	cfgShared := statusConfig()

	persist := func(c *config.Config) error {
		snap := *c
		mu.Lock()
		cfgShared = &snap
		mu.Unlock()
		return nil
	}

	machine := ui.New(cfgShared, shared, events, newConsoleRenderer(io.Discard),
		ui.WithSave(persist), ui.WithTick(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		machine.Run(ctx)
	}()

	readsDone := make(chan struct{})
	go func() {
		defer close(readsDone)
		start := time.Now()
		for i := 0; i < 500; i++ {
			mu.Lock()
			c := cfgShared
			mu.Unlock()
			buildStatus(c, shared, "abc123", start)
		}
	}()

	press := func(b buttons.Button) {
		events <- buttons.Event{Button: b, Kind: buttons.Press, At: time.Now()}
	}

	// Home wraps back to the settings page, then every Select on the
	// first settings row flips the temperature unit and saves.
	press(buttons.Left)
	for i := 0; i < 50; i++ {
		press(buttons.Select)
	}

	<-readsDone

	// Run drains what is queued and returns once the channel is closed,
	// so every press above has been applied by the time it exits.
	close(events)
	<-done
	cancel()

	mu.Lock()
	got := cfgShared.App.TempUnit
	mu.Unlock()
	if got != "F" {
		t.Errorf("expected an even number of toggles to land back on F, got %q", got)
	}
}

func TestPadAndTruncateCountRunes(t *testing.T) {
	if got := truncate("éééééé", 3); got != "ééé" {
		t.Errorf("expected truncate to cut on rune boundaries, got %q", got)
	}
	if !utf8.ValidString(truncate("Jamaica–179 St", 9)) {
		t.Error("expected truncation to leave valid UTF-8")
	}
	if got := pad("éé", 4); got != "éé  " || utf8.RuneCountInString(got) != 4 {
		t.Errorf("expected pad to count runes, got %q", got)
	}
	if got := pad("ééééé", 4); got != "éééé" {
		t.Errorf("expected pad to clip long input by rune, got %q", got)
	}
}
