package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datawash-cli/internal/cleaner"
	"github.com/KaramelBytes/datawash-cli/internal/dataset"
	"github.com/KaramelBytes/datawash-cli/internal/export"
	"github.com/KaramelBytes/datawash-cli/internal/upload"
)

var (
	cleanOut       string
	cleanLocal     bool
	cleanJobs      int
	cleanDecimal   string
	cleanThousands string
	cleanQuiet     bool
)

// cleaned is one finished file, ready to be written.
type cleaned struct {
	path  string
	ds    dataset.Dataset
	stats upload.Stats
}

var cleanCmd = &cobra.Command{
	Use:   "clean <files...>",
	Short: "Clean CSV/TSV/XLSX files without the dashboard and save the results as CSV",
	Long: `Clean one or more files and write each result to <out>/<name>_cleaned.csv.
By default files are sent to the configured cleaning endpoint; --local cleans them
in-process with the same rules the reference service applies.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		opt, err := parseSeparators(cleanDecimal, cleanThousands)
		if err != nil {
			return err
		}
		out := cleanOut
		if out == "" {
			out = cfg.DownloadDir
		}
		if err := os.MkdirAll(out, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		log, closeLog, err := newLogger(os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()

		client := newUploadClient()
		results := make([]cleaned, len(files))
		var mu sync.Mutex
		done := 0

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(1, cleanJobs))
		for i, path := range files {
			g.Go(func() error {
				var res cleaned
				var err error
				if cleanLocal {
					res, err = cleanLocally(path, opt)
				} else {
					res, err = cleanRemotely(ctx, client, path)
				}
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				results[i] = res
				mu.Lock()
				done++
				if !cleanQuiet {
					fmt.Printf("[%d/%d] Cleaned %s\n", done, len(files), filepath.Base(path))
				}
				mu.Unlock()
				log.Debug("file cleaned", "file", path, "rows", res.stats.Rows, "duplicates", res.stats.Duplicates)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, res := range results {
			base := filepath.Base(res.path)
			name := strings.TrimSuffix(base, filepath.Ext(base)) + "_cleaned.csv"
			written, err := export.WriteCSV(out, name, res.ds)
			if err != nil {
				if errors.Is(err, export.ErrEmpty) {
					warnf("%s: no rows after cleaning, nothing written", base)
					continue
				}
				return err
			}
			if debug {
				spew.Dump(res.stats)
			}
			if !cleanQuiet {
				okf("%s → %s", base, written)
				fmt.Println("  " + color.New(color.Faint).Sprintf("Rows: %d | Cols: %d | Duplicates removed: %d | Missing filled: %d",
					res.stats.Rows, res.stats.Cols, res.stats.Duplicates, res.stats.MissingFilled))
			}
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanOut, "out", "o", "", "output directory (defaults to config download_dir)")
	cleanCmd.Flags().BoolVar(&cleanLocal, "local", false, "clean in-process instead of calling the endpoint")
	cleanCmd.Flags().IntVarP(&cleanJobs, "jobs", "j", 4, "files cleaned in parallel")
	cleanCmd.Flags().StringVar(&cleanDecimal, "decimal", "", "decimal separator for --local: '.'|'comma'")
	cleanCmd.Flags().StringVar(&cleanThousands, "thousands", "", "thousands separator for --local: ','|'.'|'space'")
	cleanCmd.Flags().BoolVarP(&cleanQuiet, "quiet", "q", false, "suppress progress output")
	rootCmd.AddCommand(cleanCmd)
}

func cleanLocally(path string, opt cleaner.Options) (cleaned, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cleaned{}, err
	}
	res, err := cleaner.CleanFile(filepath.Base(path), data, opt)
	if err != nil {
		return cleaned{}, err
	}
	return cleaned{
		path:  path,
		ds:    dataset.Dataset{Columns: res.Columns, Rows: res.Rows},
		stats: upload.Stats(res.Stats),
	}, nil
}

func cleanRemotely(ctx context.Context, u upload.Uploader, path string) (cleaned, error) {
	res, err := u.Upload(ctx, path)
	if err != nil {
		return cleaned{}, err
	}
	return cleaned{path: path, ds: dataset.FromRows(res.Rows), stats: res.Stats}, nil
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func parseSeparators(decimal, thousands string) (cleaner.Options, error) {
	var opt cleaner.Options
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(strings.TrimSpace(thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator == opt.ThousandsSeparator {
		return opt, fmt.Errorf("--decimal and --thousands must differ")
	}
	return opt, nil
}
