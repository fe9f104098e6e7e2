package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/config"
	"github.com/joypados/adapter/internal/device"
	"github.com/joypados/adapter/internal/feedback"
	"github.com/joypados/adapter/internal/hub"
	"github.com/joypados/adapter/internal/leds"
	"github.com/joypados/adapter/internal/logging"
	"github.com/joypados/adapter/internal/output"
	"github.com/joypados/adapter/internal/player"
	"github.com/joypados/adapter/internal/profile"
	"github.com/joypados/adapter/internal/router"
	"github.com/joypados/adapter/internal/server"
	"github.com/joypados/adapter/internal/transport/jocp"
	"github.com/joypados/adapter/internal/transport/sdlhost"
	"github.com/joypados/adapter/internal/tray"
)

// Cross-platform signal handling: os.Interrupt covers Ctrl+C everywhere,
// SIGTERM covers service managers.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const pollInterval = 8 * time.Millisecond

// Status LED base colors per output mode.
var modeColors = map[string]leds.Color{
	"hid":       {R: 0, G: 64, B: 255},
	"xinput":    {R: 0, G: 255, B: 64},
	"gcadapter": {R: 160, G: 32, B: 240},
}

func main() {
	var (
		configPath string
		listen     string
		debug      bool
		useTray    bool
	)
	pflag.StringVar(&configPath, "config", "", "path to settings file")
	pflag.StringVar(&listen, "listen", "", "listen address (overrides settings)")
	pflag.BoolVar(&debug, "debug", false, "enable debug logging")
	pflag.BoolVar(&useTray, "tray", false, "show a system tray icon")
	pflag.Parse()

	log, err := logging.New(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(log, configPath, listen, useTray); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(log *zap.SugaredLogger, configPath, listenOverride string, useTray bool) error {
	v := viper.New()
	config.SetDefaults(v)
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "read settings")
		}
	}
	settings, err := config.Load(v)
	if err != nil {
		return errors.Wrap(err, "load settings")
	}
	if listenOverride != "" {
		settings.Listen = listenOverride
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.New()

	// Core assembly, leaf first.
	players := player.NewManager()
	engine := profile.NewEngine()
	modes := output.NewRegistry(log.Named("output"))
	registry := device.NewRegistry(log.Named("device"))
	fb := feedback.NewManager(players, registry, log.Named("feedback"))

	h := hub.NewHub(log.Named("hub"))
	go h.Run(ctx)
	sink := hub.NewBroadcaster(h, modes, log.Named("hub"))

	modes.Register(output.NewHIDMode(sink, fb))
	modes.Register(output.NewXInputMode(sink, fb))
	modes.Register(output.NewGCAdapterMode(sink, fb))

	rt := router.New(players, engine, modes, log.Named("router"))
	registry.SetDetachHook(rt.NotifyDisconnect)

	intake := router.NewIntake()

	sdlDriver := sdlhost.New(registry, intake, log.Named("sdlhost"))
	registry.Register(sdlDriver)

	jocpDriver := jocp.New(registry, intake, clk, log.Named("jocp"))
	registry.Register(jocpDriver)

	led := leds.New()

	// Settings changes and admin commands are handed to the polling loop;
	// the slot table is only ever touched there.
	settingsCh := make(chan *config.Settings, 1)
	commands := make(chan func(), 16)

	applySettings := func(s *config.Settings) {
		compiled, err := s.CompileProfiles()
		if err != nil {
			log.Errorf("settings rejected: %v", err)
			return
		}
		engine.Load(compiled)
		for i, id := range s.SlotProfiles {
			players.SetProfile(i, id)
		}
		if err := modes.SetMode(s.OutputMode); err != nil {
			log.Errorf("settings: %v", err)
		}
		log.Infof("settings applied: mode=%s profiles=%v", s.OutputMode, engine.Names())
	}
	applySettings(settings)

	if configPath != "" {
		config.Watch(v, func(s *config.Settings, err error) {
			if err != nil {
				log.Errorf("settings change rejected: %v", err)
				return
			}
			select {
			case settingsCh <- s:
			default:
			}
		})
	}

	ctrl := &adminControls{
		modes:    modes,
		engine:   engine,
		players:  players,
		led:      led,
		commands: commands,
	}

	statusFn := func() server.Status {
		return server.Status{
			Mode:     modes.ActiveName(),
			Modes:    modes.Names(),
			Slots:    players.Snapshot(),
			Attached: registry.AttachedCount(),
			Viewers:  h.ClientCount(),
			Profiles: engine.Names(),
		}
	}

	srv := server.New(h, ctrl, statusFn, jocpDriver.ServeWS, settings.Listen, log.Named("server"))
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	sdlDone := make(chan struct{})
	go func() {
		defer close(sdlDone)
		if err := sdlDriver.Run(ctx); err != nil {
			log.Errorf("sdl driver: %v", err)
		}
	}()

	shutdownRequested := make(chan struct{})
	if useTray {
		go func() {
			t := tray.New(func() {
				close(shutdownRequested)
			}, func() string {
				m := modes.NextMode()
				if m == nil {
					return ""
				}
				return m.Name()
			}, log.Named("tray"))
			t.Run(tray.GetIcon(), modes.ActiveName())
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	log.Infof("joypad adapter started on %s (mode %s)", settings.Listen, modes.ActiveName())

	// Polling loop: the single execution context that drains input cells,
	// runs driver tasks and mutates the slot table.
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		ticker := clk.Ticker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				intake.Drain(rt)
				registry.Task(now)
				led.SetConnectedDevices(registry.AttachedCount())
				if c, ok := modeColors[modes.ActiveName()]; ok {
					led.SetColor(c)
				}
				led.Task(now)
			case cmd := <-commands:
				cmd()
			case s := <-settingsCh:
				applySettings(s)
			}
		}
	}()

	select {
	case <-sigCh:
		log.Infof("shutting down...")
	case <-shutdownRequested:
		log.Infof("shutdown requested from tray")
	case err := <-serverErrCh:
		log.Errorf("HTTP server error: %v", err)
	}
	cancel()

	<-loopDone
	<-sdlDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	var errs error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "http shutdown"))
	}
	log.Infof("joypad adapter stopped")
	return errs
}

// adminControls implements hub.Controls. Mode switching goes straight to
// the internally locked mode registry; everything touching the slot table
// is enqueued onto the polling loop.
type adminControls struct {
	modes    *output.Registry
	engine   *profile.Engine
	players  *player.Manager
	led      *leds.Service
	commands chan func()
}

func (a *adminControls) SetMode(name string) error {
	return a.modes.SetMode(name)
}

func (a *adminControls) SetProfile(slot, profileID int) error {
	if slot < 0 || slot >= player.MaxSlots {
		return errors.Errorf("slot %d out of range", slot)
	}
	if profileID < 0 || profileID >= a.engine.Count() {
		return errors.Errorf("profile %d out of range", profileID)
	}
	a.commands <- func() {
		a.players.SetProfile(slot, profileID)
		a.led.IndicateProfile(profileID)
	}
	return nil
}

func (a *adminControls) OutputReport(playerIndex int, data []byte) {
	report := make([]byte, len(data))
	copy(report, data)
	a.commands <- func() {
		if m := a.modes.Active(); m != nil {
			m.HandleOutput(playerIndex, report)
		}
	}
}
