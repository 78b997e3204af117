package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/wheelsim/internal/tui"
)

func newConsoleCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "terminal client for a running wheelsim server",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tea.NewProgram(tui.NewConsole(tui.DialURL(url)), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "ws://localhost:8000/ws", "simulation socket URL")
	return cmd
}
