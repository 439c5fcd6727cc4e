package cmd

import (
	"context"
	"fmt"
	"os"

	"nbexit/pkg/jsonhelper"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Inspect NetBird routes",
}

var routesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the non-exit-node routes visible to a peer",
	Run: func(cmd *cobra.Command, args []string) {
		engine, _ := newEngine()
		routes, err := engine.RoutesForPeer(context.Background(), routesPeerFlag)
		if err != nil {
			exitOnError(err)
		}

		if routesJSONOutput {
			fmt.Println(string(jsonhelper.EncodeIndent(routes)))
			return
		}
		if len(routes) == 0 {
			fmt.Println("No routes found")
			return
		}
		for _, r := range routes {
			fmt.Fprintf(os.Stdout, "• %s [%s]\n", r.Network, activeLabel(r.Enabled))
			fmt.Fprintf(os.Stdout, "  ID: %s\n", r.ID)
			if r.Description != "" {
				fmt.Fprintf(os.Stdout, "  Description: %s\n", r.Description)
			}
			fmt.Fprintf(os.Stdout, "  Groups: %d, direct peers: %d\n", len(r.Groups), len(r.Peers))
		}
	},
}

var (
	routesPeerFlag   string
	routesJSONOutput bool
)

func init() {
	routesListCmd.Flags().StringVar(&routesPeerFlag, "peer", "", "peer hostname (default: this machine's hostname)")
	routesListCmd.Flags().BoolVar(&routesJSONOutput, "json", false, "output results in JSON format")

	routesCmd.AddCommand(routesListCmd)
	rootCmd.AddCommand(routesCmd)
}
