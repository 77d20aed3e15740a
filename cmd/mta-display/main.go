// Command mta-display runs the train arrival display: it polls MTA feeds and
// the weather in the background, decides when to leave for the favorite
// station, and drives the UI from the 5-button panel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/RonishNadar/mta-train-updates/internal/buttons"
	"github.com/RonishNadar/mta-train-updates/internal/config"
	"github.com/RonishNadar/mta-train-updates/internal/leavetime"
	"github.com/RonishNadar/mta-train-updates/internal/monitor"
	"github.com/RonishNadar/mta-train-updates/internal/state"
	"github.com/RonishNadar/mta-train-updates/internal/telemetry"
	"github.com/RonishNadar/mta-train-updates/internal/transit"
	"github.com/RonishNadar/mta-train-updates/internal/ui"
	"github.com/RonishNadar/mta-train-updates/internal/weather"
	"github.com/RonishNadar/mta-train-updates/internal/web"
)

const heartbeatInterval = 15 * time.Minute

func main() {
	settingsPath := flag.String("settings", "settings.yaml", "Path to settings file")
	httpAddr := flag.String("http", ":8088", "HTTP settings/status address (empty to disable)")
	broker := flag.String("broker", "", "MQTT broker address for telemetry (empty to disable)")
	printOnce := flag.Bool("print", false, "Fetch each station once, print arrivals, and exit")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := run(*settingsPath, *httpAddr, *broker, *printOnce); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(settingsPath, httpAddr, broker string, printOnce bool) error {
	store := &config.FileStore{Path: settingsPath}
	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	fetcher := transit.NewGTFSRTFetcher(cfg.App.HTTPTimeout())

	if printOnce {
		return printArrivals(cfg, fetcher)
	}

	// One short ID per boot, stamped on telemetry payloads.
	sessionID := uuid.NewString()[:8]

	var publisher telemetry.Publisher = telemetry.NopPublisher{}
	if broker != "" {
		real, err := telemetry.NewRealPublisher(broker, sessionID)
		if err != nil {
			log.Printf("telemetry disabled: %v", err)
		} else {
			publisher = real
		}
	}
	defer publisher.Close()

	shared := state.NewStore()
	startTime := time.Now()

	// Startup values read once, before any goroutine could reload settings.
	startPoll := cfg.App.PollInterval()
	startStations := len(cfg.Stations)
	startRunFor := cfg.App.RunFor()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Arrival monitor; restarted on settings reload, so its context and
	// handle live behind a small guard.
	var monMu sync.Mutex
	mon := monitor.New(fetcher, shared, cfg.Stations, cfg.App.PollInterval(), cfg.App.HTTPTimeout(), time.Now)
	monCtx, monCancel := context.WithCancel(ctx)
	mon.Start(monCtx)

	// Weather worker.
	if cfg.App.Lat != 0 || cfg.App.Lon != 0 {
		worker := weather.NewWorker(
			weather.NewOpenMeteo(cfg.App.HTTPTimeout()),
			cfg.App.Lat, cfg.App.Lon,
			cfg.App.WeatherRefresh(),
			shared.PublishWeather,
		)
		go worker.Run(ctx)
	} else {
		log.Printf("no lat/lon configured, weather disabled")
	}

	// Buttons. Missing GPIO hardware is not fatal: the display still runs
	// on its render tick, it just cannot be navigated.
	var edges <-chan buttons.Edge
	if lines, err := buttons.NewRealLines(buttons.DefaultPins()); err != nil {
		log.Printf("buttons unavailable, navigation disabled: %v", err)
		fake := buttons.NewFakeLines()
		defer fake.Close()
		edges = fake.Edges()
	} else {
		defer lines.Close()
		edges = lines.Edges()
	}
	source := buttons.NewSource(edges, buttons.DefaultSettle, buttons.DefaultHold)
	go source.Run(ctx)

	observer := telemetry.NewObserver(publisher, time.Now)

	var machine *ui.Machine

	// applyReload swaps a freshly validated config into the running core:
	// the monitor restarts on the new station list, stale snapshots for
	// removed stations are pruned, and the UI swaps on its next wake.
	applyReload := func(newCfg *config.Config) {
		monMu.Lock()
		defer monMu.Unlock()

		monCancel()
		mon.Wait()

		keys := make([]string, 0, len(newCfg.Stations))
		for _, st := range newCfg.Stations {
			keys = append(keys, st.Key())
		}
		shared.Retain(keys)

		mon = monitor.New(fetcher, shared, newCfg.Stations, newCfg.App.PollInterval(), newCfg.App.HTTPTimeout(), time.Now)
		monCtx, monCancel = context.WithCancel(ctx)
		mon.Start(monCtx)

		cfg = newCfg
		machine.SwapConfig(newCfg)
		log.Printf("settings reloaded: %d stations", len(newCfg.Stations))
	}

	// The settings-page reload action re-reads the file from disk.
	uiReload := func() {
		go func() {
			newCfg, err := store.Load()
			if err != nil {
				log.Printf("reload settings: %v", err)
				return
			}
			applyReload(newCfg)
		}()
	}

	// Persist settings edits from the UI, then publish a fresh copy for the
	// status path. The shared cfg pointer is only ever replaced under monMu,
	// never written through; the machine mutates its own private copy.
	persist := func(c *config.Config) error {
		if err := store.Save(c); err != nil {
			return err
		}
		snap := *c
		monMu.Lock()
		cfg = &snap
		monMu.Unlock()
		return nil
	}

	machine = ui.New(cfg, shared, source.Events(), newConsoleRenderer(os.Stdout),
		ui.WithSave(persist),
		ui.WithReload(uiReload),
		ui.WithAdvisoryObserver(observer.Observe),
	)
	go machine.Run(ctx)

	// HTTP settings editor and status page.
	if httpAddr != "" {
		status := func() any {
			monMu.Lock()
			c := cfg
			monMu.Unlock()
			return buildStatus(c, shared, sessionID, startTime)
		}
		srv := web.New(httpAddr, store, status, func(newCfg *config.Config) {
			go applyReload(newCfg)
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", httpAddr)
	}

	if err := publisher.PublishSystem(telemetry.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Heartbeat.
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				err := publisher.PublishSystem(telemetry.SystemEvent{Timestamp: t, Event: "HEARTBEAT"})
				if err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}()

	log.Printf("started: session=%s poll=%v stations=%d http=%q broker=%q",
		sessionID, startPoll, startStations, httpAddr, broker)

	var deadline <-chan time.Time
	if startRunFor > 0 {
		deadline = time.After(startRunFor)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	reason := ""
	select {
	case s := <-sigCh:
		log.Printf("received %v, shutting down", s)
		reason = signalName(s)
	case <-deadline:
		log.Printf("run_for_sec elapsed, shutting down")
		reason = "RUN_FOR_ELAPSED"
	}

	if err := publisher.PublishSystem(telemetry.SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	}

	cancel()
	monMu.Lock()
	mon.Wait()
	monMu.Unlock()
	return nil
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// stationStatus is one station's entry in /status.json.
type stationStatus struct {
	StopName   string  `json:"stop_name"`
	Key        string  `json:"key"`
	Feed       string  `json:"feed"`
	Arrivals   int     `json:"arrivals"`
	AgeSec     float64 `json:"age_sec"`
	Stale      bool    `json:"stale"`
	LastError  string  `json:"last_error,omitempty"`
	IsFavorite bool    `json:"is_favorite"`
}

type statusPayload struct {
	Session   string          `json:"session"`
	UptimeSec float64         `json:"uptime_sec"`
	Stations  []stationStatus `json:"stations"`
	Advisory  any             `json:"advisory,omitempty"`
	Weather   any             `json:"weather,omitempty"`
}

func buildStatus(cfg *config.Config, shared *state.Store, sessionID string, startTime time.Time) statusPayload {
	now := time.Now()
	snapshots, wx := shared.Read()
	favorite := cfg.Favorite()

	payload := statusPayload{
		Session:   sessionID,
		UptimeSec: now.Sub(startTime).Seconds(),
	}

	for _, st := range cfg.Stations {
		key := st.Key()
		snap := snapshots[key]
		entry := stationStatus{
			StopName:   st.StopName,
			Key:        key,
			Feed:       st.Feed,
			Arrivals:   len(snap.Arrivals),
			Stale:      snap.Stale(now, cfg.App.StaleAfter()),
			LastError:  snap.LastError,
			IsFavorite: key == favorite,
		}
		if !snap.NeverFetched() {
			entry.AgeSec = now.Sub(snap.FetchedAt).Seconds()
		}
		payload.Stations = append(payload.Stations, entry)
	}

	if favorite != "" {
		adv := leavetime.Evaluate(now, snapshots[favorite], cfg.App.LeaveBuffer(), cfg.App.StaleAfter())
		entry := map[string]any{
			"station_key": favorite,
			"state":       string(adv.State),
		}
		if adv.State == leavetime.StateCatchable {
			entry["leave_in_min"] = adv.LeaveIn
			entry["route"] = adv.Train.Route
		}
		payload.Advisory = entry
	}

	if !wx.NeverFetched() {
		payload.Weather = map[string]any{
			"condition":  wx.ConditionText,
			"kind":       wx.ConditionKind,
			"temp_c":     wx.TempC,
			"feels_c":    wx.FeelsLikeC,
			"precip_pct": wx.PrecipProbPct,
			"age_sec":    now.Sub(wx.FetchedAt).Seconds(),
		}
	}

	return payload
}

// printArrivals fetches every configured station once and prints the
// upcoming arrivals, then exits. Stations sharing a feed share one fetch.
func printArrivals(cfg *config.Config, fetcher *transit.GTFSRTFetcher) error {
	byFeed := make(map[string][]transit.Arrival)
	now := time.Now()

	for _, st := range cfg.Stations {
		records, ok := byFeed[st.Feed]
		if !ok {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTPTimeout())
			var err error
			records, err = fetcher.FetchFeed(ctx, st.Feed)
			cancel()
			if err != nil {
				fmt.Printf("%s: fetch error: %v\n", st.Feed, err)
				byFeed[st.Feed] = nil
				continue
			}
			byFeed[st.Feed] = records
		}

		fmt.Printf("--------------------------------\n")
		fmt.Printf("%s (%s)\n", st.StopName, st.DirectionLabel)

		arrivals := transit.ForStop(records, st.Key(), now)
		if len(arrivals) == 0 {
			fmt.Println("No upcoming arrivals found.")
			continue
		}
		limit := cfg.App.PrintLimit
		if limit > len(arrivals) {
			limit = len(arrivals)
		}
		for _, a := range arrivals[:limit] {
			fmt.Printf("  Route %3s  in %2d min\n", a.Route, int(a.ETA.Sub(now)/time.Minute))
		}
	}
	return nil
}
