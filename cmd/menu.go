package cmd

import (
	"context"
	"os"

	"nbexit/internal/menu"

	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive terminal menu",
	Run: func(cmd *cobra.Command, args []string) {
		runMenu()
	},
}

func runMenu() {
	engine, _ := newEngine()
	m := menu.New(engine, os.Stdin, os.Stdout)
	if err := m.Run(context.Background()); err != nil {
		exitOnError(err)
	}
}

func init() {
	rootCmd.AddCommand(menuCmd)
}
