package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datawash-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/datawash-cli/internal/config"
	"github.com/KaramelBytes/datawash-cli/internal/session"
	"github.com/KaramelBytes/datawash-cli/internal/tui"
)

var (
	dashOpen        string
	dashChartFormat string
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the interactive dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := chart.ParseFormat(dashChartFormat)
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(nil)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		client := newUploadClient()
		ctrl := session.New(session.Options{Logger: log, Uploader: client})
		model := tui.New(tui.Options{
			Controller:  ctrl,
			Context:     ctx,
			Dark:        cfg.Dark(),
			DownloadDir: cfg.DownloadDir,
			ChartFormat: format,
			OnTheme: func(theme string) error {
				cfg.Theme = theme
				if err := cfgpkg.Save(cfg, cfgFile); err != nil {
					return fmt.Errorf("save theme: %w", err)
				}
				log.Info("theme saved", "theme", theme)
				return nil
			},
		})
		log.Info("dashboard started", "endpoint", client.Endpoint(), "theme", cfg.Theme)

		opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
		p := tea.NewProgram(model, opts...)
		if dashOpen != "" {
			// queue the first upload once the program loop is running
			go p.Send(tui.UploadMsg(dashOpen))
		}
		_, err = p.Run()
		return err
	},
}

func init() {
	dashCmd.Flags().StringVar(&dashOpen, "open", "", "upload this file when the dashboard starts")
	dashCmd.Flags().StringVar(&dashChartFormat, "chart-format", "png", "chart export format: png or svg")
	rootCmd.AddCommand(dashCmd)
}
