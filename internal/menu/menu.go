// Package menu is the interactive terminal surface over the workflow
// engine. It only translates prompts into engine calls and results into
// text; all decisions live in the engine.
package menu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"nbexit/internal/exitnode"
)

type Menu struct {
	engine *exitnode.Engine
	in     *bufio.Scanner
	out    io.Writer
	peer   string
}

func New(engine *exitnode.Engine, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		engine: engine,
		in:     bufio.NewScanner(in),
		out:    out,
		peer:   exitnode.LocalHostname(),
	}
}

// Run loops until the user quits or stdin closes.
func (m *Menu) Run(ctx context.Context) error {
	for {
		m.header(ctx)

		fmt.Fprintln(m.out, "  1) Set exit node")
		fmt.Fprintln(m.out, "  2) Remove from exit nodes")
		fmt.Fprintln(m.out, "  3) Show info")
		fmt.Fprintln(m.out, "  4) Change target peer")
		fmt.Fprintln(m.out, "  5) Quit")

		choice, ok := m.prompt("Select: ")
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			m.setExitNode(ctx)
		case "2":
			m.removeExitNode(ctx)
		case "3":
			m.showInfo(ctx)
		case "4":
			m.changePeer()
		case "5", "q", "quit":
			return nil
		default:
			fmt.Fprintln(m.out, "Unknown choice")
		}
		fmt.Fprintln(m.out)
	}
}

func (m *Menu) header(ctx context.Context) {
	fmt.Fprintln(m.out, strings.Repeat("=", 44))
	fmt.Fprintln(m.out, "NetBird Exit Node Manager")
	fmt.Fprintln(m.out, strings.Repeat("=", 44))
	fmt.Fprintf(m.out, "Target peer: %s\n", m.peer)

	info, err := m.engine.PeerInfo(ctx, m.peer)
	if err != nil {
		fmt.Fprintf(m.out, "Current exit node: unknown (%s)\n", err.Error())
		return
	}
	current := "none"
	for _, s := range info.Serving {
		if s.Enabled {
			current = s.Hostname
			break
		}
	}
	fmt.Fprintf(m.out, "Current exit node: %s\n", current)
}

func (m *Menu) setExitNode(ctx context.Context) {
	nodes, err := m.engine.ListExitNodes(ctx, true)
	if err != nil {
		fmt.Fprintf(m.out, "Error: %s\n", err.Error())
		return
	}
	if len(nodes) == 0 {
		fmt.Fprintln(m.out, "No exit nodes available")
		return
	}

	fmt.Fprintln(m.out, "Available exit nodes:")
	for i, n := range nodes {
		status := "INACTIVE"
		if n.Active() {
			status = "ACTIVE"
		}
		fmt.Fprintf(m.out, "  %d) %s [%s]\n", i+1, n.Hostname, status)
	}

	choice, ok := m.prompt("Exit node number (empty to cancel): ")
	if !ok || choice == "" {
		return
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(nodes) {
		fmt.Fprintln(m.out, "Invalid selection")
		return
	}

	result, err := m.engine.SetExitNode(ctx, m.peer, nodes[idx-1].Hostname)
	if err != nil {
		fmt.Fprintf(m.out, "Error: %s\n", err.Error())
		return
	}
	if len(result.MovedFrom) > 0 {
		fmt.Fprintf(m.out, "Moved from: %s\n", strings.Join(result.MovedFrom, ", "))
	}
	if result.AlreadyActive {
		fmt.Fprintf(m.out, "Exit node '%s' was already active\n", result.ExitNode.Label())
		return
	}
	fmt.Fprintf(m.out, "Exit node '%s' activated\n", result.ExitNode.Label())
}

func (m *Menu) removeExitNode(ctx context.Context) {
	result, err := m.engine.RemoveExitNode(ctx, m.peer)
	if err != nil {
		fmt.Fprintf(m.out, "Error: %s\n", err.Error())
		return
	}
	if len(result.Detached) == 0 {
		fmt.Fprintf(m.out, "Peer '%s' was not assigned to any exit node\n", result.Peer.Label())
		return
	}
	fmt.Fprintf(m.out, "Removed from: %s\n", strings.Join(result.Detached, ", "))
}

func (m *Menu) showInfo(ctx context.Context) {
	info, err := m.engine.PeerInfo(ctx, m.peer)
	if err != nil {
		fmt.Fprintf(m.out, "Error: %s\n", err.Error())
		return
	}

	fmt.Fprintf(m.out, "Distribution group: %s (exists: %v)\n", info.GroupName, info.GroupExists)
	fmt.Fprintf(m.out, "Groups: %d, exit nodes: %d\n", len(info.Groups), len(info.ExitNodes))
	for _, n := range info.ExitNodes {
		status := "INACTIVE"
		if n.Active() {
			status = "ACTIVE"
		}
		fmt.Fprintf(m.out, "  • %s [%s] %d/%d routes enabled\n", n.Hostname, status, n.EnabledRoutes, n.TotalRoutes)
	}
}

func (m *Menu) changePeer() {
	name, ok := m.prompt("New target peer hostname (empty for this machine): ")
	if !ok {
		return
	}
	if name == "" {
		name = exitnode.LocalHostname()
	}
	m.peer = name
}

func (m *Menu) prompt(text string) (string, bool) {
	fmt.Fprint(m.out, text)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}
