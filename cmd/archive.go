package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datawash-cli/internal/export"
)

var (
	archiveExtractID  int64
	archiveExtractOut string
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect history archives saved from the dashboard",
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <archive>",
	Short: "List the records in a history archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := export.ReadArchiveFile(args[0])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("Archive is empty")
			return nil
		}
		fmt.Printf("%-6s %-10s %-8s %-6s %s\n", "ID", "TIME", "ROWS", "COLS", "FILE")
		fmt.Println(strings.Repeat("-", 48))
		for _, r := range recs {
			fmt.Printf("%-6d %-10s %-8d %-6d %s\n", r.ID, r.Timestamp, r.Rows, r.Data.NumCols(), r.FileName)
		}
		return nil
	},
}

var archiveExtractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Write one archived dataset back out as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := export.ReadArchiveFile(args[0])
		if err != nil {
			return err
		}
		for _, r := range recs {
			if r.ID != archiveExtractID {
				continue
			}
			out := archiveExtractOut
			if out == "" {
				out = cfg.DownloadDir
			}
			path, err := export.WriteCSV(out, r.FileName, r.Data)
			if err != nil {
				return err
			}
			okf("Extracted record %d to %s", r.ID, path)
			return nil
		}
		return fmt.Errorf("record %d not found in %s", archiveExtractID, args[0])
	},
}

func init() {
	archiveExtractCmd.Flags().Int64Var(&archiveExtractID, "id", 0, "record id to extract")
	_ = archiveExtractCmd.MarkFlagRequired("id")
	archiveExtractCmd.Flags().StringVarP(&archiveExtractOut, "out", "o", "", "output directory (defaults to config download_dir)")
	archiveCmd.AddCommand(archiveShowCmd)
	archiveCmd.AddCommand(archiveExtractCmd)
	rootCmd.AddCommand(archiveCmd)
}
