// Command termina-clock runs a three-day countdown clock in Termina time.
// It ticks the cycle state, publishes audio cues to MQTT, drives a night
// lamp over GPIO, and serves a live status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/termina-clock/internal/cue"
	"github.com/sweeney/termina-clock/internal/gpio"
	"github.com/sweeney/termina-clock/internal/mqtt"
	"github.com/sweeney/termina-clock/internal/settings"
	"github.com/sweeney/termina-clock/internal/status"
	"github.com/sweeney/termina-clock/internal/termina"
	"github.com/sweeney/termina-clock/internal/web"
)

func main() {
	tick := flag.Duration("tick", 50*time.Millisecond, "Clock tick interval")
	mode := flag.String("mode", string(termina.ModeShortCycle), `Cycle mode ("72min" or "24hr")`)
	endsAt := flag.String("ends-at", "", `Wall clock end of cycle, "HH:MM" or "HH" (empty runs a full cycle from now)`)
	muteHour := flag.Bool("mute-hour", false, "Mute the hourly chime")
	muteFinal := flag.Bool("mute-final", false, "Mute the final hours and countdown audio")
	showSeconds := flag.Bool("show-seconds", false, "Show seconds on the clock face")
	dark := flag.Bool("dark", false, "Start the status page in dark mode")
	debug := flag.Bool("debug", false, "Show debug info on the clock face and enable time controls")
	offset := flag.Float64("offset", 0, "Initial debug time offset in seconds")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	lampPin := flag.Int("lamp-pin", -1, "BCM pin number for the night lamp (negative to disable)")
	printState := flag.Bool("print-state", false, "Log the clock face whenever it changes")

	flag.Parse()

	initial := settings.Settings{
		Mode:        termina.Mode(*mode),
		MuteHour:    *muteHour,
		MuteFinal:   *muteFinal,
		ShowSeconds: *showSeconds,
		DarkMode:    *dark,
		Debug:       *debug,
		DebugOffset: time.Duration(*offset * float64(time.Second)),
	}

	if err := run(*tick, initial, *endsAt, *broker, *heartbeat, *httpAddr, *lampPin, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(tick time.Duration, initial settings.Settings, endsAt, broker string, heartbeat time.Duration, httpAddr string, lampPin int, printState bool) error {
	if !initial.Mode.Valid() {
		return fmt.Errorf("unknown mode %q", initial.Mode)
	}

	startTime := time.Now()
	if endsAt != "" {
		end, err := settings.ResolveEndClock(startTime, endsAt)
		if err != nil {
			return fmt.Errorf("resolve end time: %w", err)
		}
		initial.EpochEnd = end
		log.Printf("cycle ends %s (day 1 began %s)",
			end.Format(time.RFC3339),
			termina.CycleStart(end, initial.Mode.Length()).Format(time.RFC3339))
	} else {
		initial.EpochEnd = startTime.Add(initial.Mode.Length())
	}
	store := settings.NewStore(initial)

	// Initialize the night lamp
	var lamp gpio.Lamp = gpio.NopLamp{}
	if lampPin >= 0 {
		realLamp, err := gpio.NewRealLamp(lampPin)
		if err != nil {
			return fmt.Errorf("init lamp: %w", err)
		}
		lamp = realLamp
	}
	defer lamp.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(startTime, status.Config{
		TickMs:      tick.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		LampPin:     lampPin,
	})
	tracker.SetSettings(store.Snapshot())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, store)
		hubCtx, stopHub := context.WithCancel(context.Background())
		defer stopHub()
		srv.StartHub(hubCtx)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: tick=%v mode=%s end=%s broker=%s heartbeat=%v",
		tick, initial.Mode, initial.EpochEnd.Format(time.RFC3339), broker, heartbeat)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(publisher, publisher, lamp, tracker, store, heartbeat, printState, time.Now, ticker.C, sigCh)
}

func runLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, lamp gpio.Lamp, tracker *status.Tracker, store *settings.Store, heartbeat time.Duration, printState bool, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	sched := cue.NewScheduler()

	boot := store.Snapshot()
	lastMode := boot.Mode
	lastEnd := boot.EpochEnd
	lastHeartbeat := startTime

	var (
		lastOp      cue.Op
		lastDisplay string
		lampOn      bool
	)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			set := store.Snapshot()

			if set.Mode != lastMode || !set.EpochEnd.Equal(lastEnd) {
				sched.Reset()
				lastOp = ""
				lastMode, lastEnd = set.Mode, set.EpochEnd
				log.Printf("cycle reconfigured: mode=%s end=%s", set.Mode, set.EpochEnd.Format(time.RFC3339))
			}

			st := termina.Compute(t, set.EpochEnd, set.Mode.Length(), set.DebugOffset)
			res := sched.Tick(st, cue.Options{
				MuteHour:    set.MuteHour,
				MuteFinal:   set.MuteFinal,
				ShowSeconds: set.ShowSeconds,
				Debug:       set.Debug,
				DebugOffset: set.DebugOffset,
			})

			for _, cmd := range res.Commands {
				if cmd.Op == cue.OpStop && lastOp == cue.OpStop {
					// An ended cycle asks for a stop every tick; send one.
					continue
				}
				lastOp = cmd.Op
				if cmd.Track != "" {
					log.Printf("cue: %s %s muted=%v", cmd.Op, cmd.Track, cmd.Muted)
				} else {
					log.Printf("cue: %s", cmd.Op)
				}
				if err := publisher.Publish(cmd, t); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			night := st.Remaining > 0 && st.Night()
			if night != lampOn {
				lampOn = night
				if err := lamp.Set(night); err != nil {
					log.Printf("lamp error: %v", err)
				}
				if tracker != nil {
					tracker.SetLampOn(night)
				}
				log.Printf("night lamp %s", onOff(night))
			}

			if res.Display != lastDisplay {
				lastDisplay = res.Display
				if printState {
					log.Printf("display: %s", strings.ReplaceAll(res.Display, "\n", " | "))
				}
			}

			if tracker != nil {
				tracker.Update(st, res.Display, set, sched.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				counts := sched.Counts()
				log.Printf("heartbeat: uptime=%v chimes=%d final=%d bells=%d",
					t.Sub(startTime), counts.HourChimes, counts.FinalStarts, counts.BellsStarts)

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
