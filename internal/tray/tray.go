// Package tray provides the desktop system-tray integration: a quick view
// of the active output mode, a mode-cycle action, and exit.
package tray

import (
	"fmt"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
	"go.uber.org/zap"
)

// ShutdownFunc is called when "Exit" is clicked.
type ShutdownFunc func()

// ModeCycler cycles the active output mode and reports the new name.
type ModeCycler func() string

// Tray manages the system tray icon and menu.
type Tray struct {
	shutdownFunc ShutdownFunc
	cycleMode    ModeCycler
	once         sync.Once
	shuttingDown atomic.Bool
	menuMode     *systray.MenuItem
	menuExit     *systray.MenuItem
	log          *zap.SugaredLogger
}

// New creates a new Tray instance.
func New(shutdownFn ShutdownFunc, cycleMode ModeCycler, log *zap.SugaredLogger) *Tray {
	return &Tray{
		shutdownFunc: shutdownFn,
		cycleMode:    cycleMode,
		log:          log,
	}
}

// Run initializes and runs the system tray (blocks until Quit()).
func (t *Tray) Run(iconData []byte, activeMode string) {
	systray.Run(func() {
		t.onReady(iconData, activeMode)
	}, func() {
		t.onExit()
	})
}

func (t *Tray) onReady(iconData []byte, activeMode string) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("joypad")
	systray.SetTooltip("joypad adapter")

	t.menuMode = systray.AddMenuItem(modeLabel(activeMode), "Cycle output mode")
	t.menuExit = systray.AddMenuItem("Exit", "Quit adapter")

	go t.handleMenuClicks()

	t.log.Infof("system tray initialized")
}

// handleMenuClicks processes menu item clicks without blocking.
func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuMode.ClickedCh:
			if !t.shuttingDown.Load() {
				next := t.cycleMode()
				t.menuMode.SetTitle(modeLabel(next))
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.log.Infof("system tray exiting")
}

func modeLabel(mode string) string {
	return fmt.Sprintf("Mode: %s (click to cycle)", mode)
}
