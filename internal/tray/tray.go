// Package tray is the desktop system-tray surface over the workflow
// engine. The menu is rebuilt from fresh API state on a timer and after
// every action; engine results surface as desktop notifications.
package tray

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"nbexit/internal/exitnode"
	"nbexit/pkg/startup"
	"nbexit/res"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"go.uber.org/zap"
)

type Tray struct {
	app     fyne.App
	desk    desktop.App
	engine  *exitnode.Engine
	login   startup.Manager
	refresh time.Duration
	timeout time.Duration
	peer    string

	stopOnce sync.Once
	stop     chan struct{}
}

func New(app fyne.App, engine *exitnode.Engine, refresh, timeout time.Duration) *Tray {
	return &Tray{
		app:     app,
		engine:  engine,
		login:   startup.NewManager(res.AppName, res.DisplayName),
		refresh: refresh,
		timeout: timeout,
		peer:    exitnode.LocalHostname(),
		stop:    make(chan struct{}),
	}
}

// Start installs the tray icon and begins the refresh loop. It fails
// when the platform has no system tray (mobile, some Wayland setups).
func (t *Tray) Start() error {
	desk, ok := t.app.(desktop.App)
	if !ok {
		return errors.New("system tray is not supported on this platform")
	}
	t.desk = desk
	desk.SetSystemTrayIcon(theme.ComputerIcon())

	go t.rebuild()
	go t.loop()
	return nil
}

func (t *Tray) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *Tray) loop() {
	ticker := time.NewTicker(t.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.rebuild()
		}
	}
}

// rebuild fetches the current state and replaces the tray menu. Safe to
// call from any goroutine.
func (t *Tray) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	var items []*fyne.MenuItem

	info, err := t.engine.PeerInfo(ctx, t.peer)
	if err != nil {
		zap.S().Warnw("tray refresh failed", "error", err)
		status := fyne.NewMenuItem("Status: unavailable", nil)
		status.Disabled = true
		items = append(items, status, fyne.NewMenuItemSeparator())
	} else {
		current := ""
		for _, s := range info.Serving {
			if s.Enabled {
				current = s.Hostname
				break
			}
		}

		label := fmt.Sprintf("%s: direct connection", info.Peer.Label())
		if current != "" {
			label = fmt.Sprintf("%s via %s", info.Peer.Label(), current)
		}
		status := fyne.NewMenuItem(label, nil)
		status.Disabled = true
		items = append(items, status, fyne.NewMenuItemSeparator())

		for _, n := range info.ExitNodes {
			name := n.Hostname
			item := fyne.NewMenuItem(name, func() { t.activate(name) })
			item.Checked = name == current
			items = append(items, item)
		}
		if len(info.ExitNodes) > 0 {
			items = append(items, fyne.NewMenuItemSeparator())
		}

		remove := fyne.NewMenuItem("Remove exit node", t.removeExitNode)
		remove.Disabled = current == ""
		items = append(items, remove, fyne.NewMenuItemSeparator())
	}

	loginItem := fyne.NewMenuItem("Start at login", t.toggleLogin)
	loginItem.Checked = t.login.IsEnabled()

	items = append(items,
		loginItem,
		fyne.NewMenuItem("Refresh", func() { go t.rebuild() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			t.Stop()
			t.app.Quit()
		}),
	)

	fyne.Do(func() {
		t.desk.SetSystemTrayMenu(fyne.NewMenu(res.DisplayName, items...))
	})
}

func (t *Tray) activate(exitNodeName string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		result, err := t.engine.SetExitNode(ctx, t.peer, exitNodeName)
		if err != nil {
			t.notify("Exit node failed", err.Error())
			return
		}

		msg := fmt.Sprintf("Traffic now routed via %s", result.ExitNode.Label())
		if len(result.MovedFrom) > 0 {
			msg += fmt.Sprintf(" (moved from %s)", strings.Join(result.MovedFrom, ", "))
		}
		t.notify("Exit node set", msg)
		t.rebuild()
	}()
}

func (t *Tray) removeExitNode() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		result, err := t.engine.RemoveExitNode(ctx, t.peer)
		if err != nil {
			t.notify("Remove failed", err.Error())
			return
		}

		if len(result.Detached) == 0 {
			t.notify("Exit node", "No exit node was assigned")
		} else {
			t.notify("Exit node removed", "Detached from "+strings.Join(result.Detached, ", "))
		}
		t.rebuild()
	}()
}

func (t *Tray) toggleLogin() {
	var err error
	if t.login.IsEnabled() {
		err = t.login.Disable()
	} else {
		err = t.login.Enable()
	}
	if err != nil {
		t.notify("Start at login", "Could not update login item: "+err.Error())
	}
	go t.rebuild()
}

func (t *Tray) notify(title, content string) {
	t.app.SendNotification(&fyne.Notification{
		Title:   title,
		Content: content,
	})
}
