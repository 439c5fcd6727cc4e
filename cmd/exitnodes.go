package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"nbexit/internal/exitnode"
	"nbexit/pkg/jsonhelper"

	"github.com/spf13/cobra"
)

var (
	peerFlag   string
	jsonOutput bool
	sortByName bool
)

var exitNodesCmd = &cobra.Command{
	Use:     "exit-nodes",
	Aliases: []string{"en"},
	Short:   "Manage exit-node routing for peers",
}

var exitNodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all exit nodes",
	Run: func(cmd *cobra.Command, args []string) {
		engine, _ := newEngine()
		nodes, err := engine.ListExitNodes(context.Background(), sortByName)
		if err != nil {
			exitOnError(err)
		}

		if jsonOutput {
			fmt.Println(string(jsonhelper.EncodeIndent(nodes)))
			return
		}
		renderExitNodes(os.Stdout, nodes)
	},
}

var exitNodesSetCmd = &cobra.Command{
	Use:   "set <exit-node>",
	Short: "Route a peer's default traffic through an exit node",
	Long: "Creates the peer's distribution group if missing and attaches it to the\n" +
		"exit node's default route. If the group is attached to another exit node\n" +
		"it is moved.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, _ := newEngine()
		result, err := engine.SetExitNode(context.Background(), peerFlag, args[0])
		if err != nil {
			exitOnError(err)
		}

		if jsonOutput {
			fmt.Println(string(jsonhelper.EncodeIndent(result)))
			return
		}
		if len(result.MovedFrom) > 0 {
			fmt.Printf("🔄 Moved from exit node(s): %s\n", strings.Join(result.MovedFrom, ", "))
		}
		if result.AlreadyActive {
			fmt.Printf("✅ Exit node '%s' was already active for peer '%s'\n",
				result.ExitNode.Label(), result.Peer.Label())
			return
		}
		fmt.Printf("✅ Exit node '%s' activated for peer '%s'\n",
			result.ExitNode.Label(), result.Peer.Label())
	},
}

var exitNodesRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove a peer from all exit nodes",
	Long: "Detaches the peer's distribution group from every route that lists it.\n" +
		"The group itself is kept for later reuse.",
	Run: func(cmd *cobra.Command, args []string) {
		engine, _ := newEngine()
		result, err := engine.RemoveExitNode(context.Background(), peerFlag)
		if err != nil {
			exitOnError(err)
		}

		if jsonOutput {
			fmt.Println(string(jsonhelper.EncodeIndent(result)))
			return
		}
		if len(result.Detached) == 0 {
			fmt.Printf("ℹ️ Peer '%s' was not assigned to any exit node\n", result.Peer.Label())
			return
		}
		fmt.Printf("✅ Removed peer '%s' from exit node(s): %s\n",
			result.Peer.Label(), strings.Join(result.Detached, ", "))
		fmt.Println("   Exit node routes remain active for other peers")
	},
}

var exitNodesInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show a peer's exit-node state and the account catalogs",
	Run: func(cmd *cobra.Command, args []string) {
		engine, _ := newEngine()
		info, err := engine.PeerInfo(context.Background(), peerFlag)
		if err != nil {
			exitOnError(err)
		}

		if jsonOutput {
			fmt.Println(string(jsonhelper.EncodeIndent(info)))
			return
		}
		renderInfo(os.Stdout, info)
	},
}

func renderExitNodes(w io.Writer, nodes []exitnode.ExitNodeSummary) {
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No exit nodes found")
		return
	}

	fmt.Fprintf(w, "Exit Nodes (%d found):\n", len(nodes))
	for _, n := range nodes {
		fmt.Fprintf(w, "\n• %s [%s]\n", n.Hostname, activeLabel(n.Active()))
		fmt.Fprintf(w, "  ID: %s\n", n.PeerID)
		fmt.Fprintf(w, "  Routes: %d total, %d enabled\n", n.TotalRoutes, n.EnabledRoutes)
		for _, nw := range n.Networks {
			fmt.Fprintf(w, "  Network: %s [%s]\n", nw.Network, activeLabel(nw.Enabled))
		}
	}
}

func renderInfo(w io.Writer, info *exitnode.Info) {
	fmt.Fprintln(w, "NetBird Exit Node Information")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "Target Peer: %s\n", info.Peer.Label())
	fmt.Fprintf(w, "Distribution Group: %s", info.GroupName)
	if info.GroupExists {
		fmt.Fprintln(w, " (exists)")
	} else {
		fmt.Fprintln(w, " (does not exist yet)")
	}

	if len(info.Serving) == 0 {
		fmt.Fprintln(w, "Current Exit Nodes: none")
	} else {
		fmt.Fprint(w, "Current Exit Nodes: ")
		parts := make([]string, 0, len(info.Serving))
		for _, s := range info.Serving {
			parts = append(parts, fmt.Sprintf("%s [%s]", s.Hostname, activeLabel(s.Enabled)))
		}
		fmt.Fprintln(w, strings.Join(parts, ", "))
	}

	fmt.Fprintf(w, "\nAvailable Groups (%d):\n", len(info.Groups))
	for _, g := range info.Groups {
		fmt.Fprintf(w, "• %s (ID: %s, %d peers)\n", g.Name, g.ID, g.PeerCount)
	}

	fmt.Fprintf(w, "\nAvailable Exit Nodes (%d):\n", len(info.ExitNodes))
	for _, n := range info.ExitNodes {
		fmt.Fprintf(w, "• %s (ID: %s) [%s]\n", n.Hostname, n.PeerID, activeLabel(n.Active()))
	}
}

func activeLabel(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "INACTIVE"
}

func init() {
	exitNodesCmd.PersistentFlags().StringVar(&peerFlag, "peer", "", "peer hostname (default: this machine's hostname)")
	exitNodesCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results in JSON format")
	exitNodesListCmd.Flags().BoolVar(&sortByName, "sort-by-name", false, "sort by exit node hostname instead of id")

	exitNodesCmd.AddCommand(exitNodesListCmd, exitNodesSetCmd, exitNodesRmCmd, exitNodesInfoCmd)
	rootCmd.AddCommand(exitNodesCmd)
}
