package cmd

import (
	"nbexit/internal/tray"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Desktop system tray applet",
	Run: func(cmd *cobra.Command, args []string) {
		engine, cfg := newEngine()

		fyneApp := app.New()
		t := tray.New(fyneApp, engine, cfg.TrayRefresh(), cfg.RequestTimeout())
		if err := t.Start(); err != nil {
			exitOnError(err)
		}
		defer t.Stop()

		fyneApp.Run()
	},
}

func init() {
	rootCmd.AddCommand(trayCmd)
}
