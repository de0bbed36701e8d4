package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
	"github.com/KaramelBytes/datawash-cli/internal/export"
	"github.com/KaramelBytes/datawash-cli/internal/history"
	"github.com/KaramelBytes/datawash-cli/internal/server"
)

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) error {
	t.Helper()
	// Reset sticky flags that may persist Changed state across invocations
	for _, name := range []string{"upload-url", "debug"} {
		if fl := rootCmd.PersistentFlags().Lookup(name); fl != nil {
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		}
	}
	for _, name := range []string{"local", "quiet", "out", "jobs", "decimal", "thousands"} {
		if fl := cleanCmd.Flags().Lookup(name); fl != nil {
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		}
	}
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func withTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCLI_CleanLocalWritesCSV(t *testing.T) {
	home := withTempHome(t)
	cfgPath := filepath.Join(home, "config.yaml")
	in := filepath.Join(home, "people.csv")
	writeFile(t, in, "name,age\nAnn,30\nBob,\nAnn,30\n")
	out := filepath.Join(home, "out")

	if err := runCmd(t, "--config", cfgPath, "clean", "--local", "-q", "-o", out, in); err != nil {
		t.Fatalf("clean: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(out, "people_cleaned.csv"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "name,age\n\"Ann\",\"30\"\n\"Bob\",\"30\""
	if string(b) != want {
		t.Fatalf("output = %q, want %q", b, want)
	}
}

func TestCLI_CleanAgainstEndpoint(t *testing.T) {
	home := withTempHome(t)
	cfgPath := filepath.Join(home, "config.yaml")
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.New(server.Options{}).Serve(ctx, ln) }()
	defer func() {
		cancel()
		if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("serve: %v", err)
		}
	}()

	a := filepath.Join(home, "a.csv")
	b := filepath.Join(home, "b.tsv")
	writeFile(t, a, "x,y\n1,2\n3,4\n")
	writeFile(t, b, "k\tv\nfoo\t1\n")
	out := filepath.Join(home, "out")
	url := "http://" + ln.Addr().String() + server.UploadPath

	if err := runCmd(t, "--config", cfgPath, "--upload-url", url, "clean", "-q", "-j", "2", "-o", out, filepath.Join(home, "*.?sv")); err != nil {
		t.Fatalf("clean: %v", err)
	}
	for _, name := range []string{"a_cleaned.csv", "b_cleaned.csv"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	got, _ := os.ReadFile(filepath.Join(out, "b_cleaned.csv"))
	if string(got) != "k,v\n\"foo\",\"1\"" {
		t.Fatalf("b_cleaned.csv = %q", got)
	}
}

func TestCLI_CleanRejectsUnknownSeparator(t *testing.T) {
	home := withTempHome(t)
	in := filepath.Join(home, "a.csv")
	writeFile(t, in, "x\n1\n")
	err := runCmd(t, "--config", filepath.Join(home, "config.yaml"), "clean", "--local", "--decimal", "x", in)
	if err == nil || !strings.Contains(err.Error(), "unsupported --decimal") {
		t.Fatalf("expected separator error, got %v", err)
	}
	if err := runCmd(t, "--config", filepath.Join(home, "config.yaml"), "clean", "--local", filepath.Join(home, "missing-*.csv")); err == nil {
		t.Fatalf("expected no-match error")
	}
}

func TestParseSeparators(t *testing.T) {
	opt, err := parseSeparators("comma", "space")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.DecimalSeparator != ',' || opt.ThousandsSeparator != ' ' {
		t.Fatalf("opt = %+v", opt)
	}
	if _, err := parseSeparators(",", ","); err == nil {
		t.Fatalf("expected error for equal separators")
	}
}

func TestCLI_ConfigSetTheme(t *testing.T) {
	home := withTempHome(t)
	cfgPath := filepath.Join(home, "config.yaml")
	if err := runCmd(t, "--config", cfgPath, "config", "set", "theme", "Dark"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "theme: dark") {
		t.Fatalf("config file missing theme:\n%s", b)
	}
	if err := runCmd(t, "--config", cfgPath, "config", "set", "max_upload_mb", "-1"); err == nil {
		t.Fatalf("expected invalid int error")
	}
	if err := runCmd(t, "--config", cfgPath, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_ArchiveExtract(t *testing.T) {
	home := withTempHome(t)
	cfgPath := filepath.Join(home, "config.yaml")
	hs := history.NewStore()
	rows := []dataset.Row{
		dataset.NewRow([]string{"name", "val"}, []dataset.Value{dataset.String("A"), dataset.Number(1)}),
	}
	rec, ok := hs.Commit(dataset.FromRows(rows), "sales.csv")
	if !ok {
		t.Fatalf("commit failed")
	}
	archive, err := export.WriteArchive(home, hs.List())
	if err != nil {
		t.Fatalf("write archive: %v", err)
	}
	if err := runCmd(t, "--config", cfgPath, "archive", "show", archive); err != nil {
		t.Fatalf("archive show: %v", err)
	}
	out := filepath.Join(home, "out")
	if err := runCmd(t, "--config", cfgPath, "archive", "extract", archive, "--id", strconv.FormatInt(rec.ID, 10), "-o", out); err != nil {
		t.Fatalf("archive extract: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(out, "sales.csv"))
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if string(b) != "name,val\n\"A\",\"1\"" {
		t.Fatalf("extracted = %q", b)
	}
	if err := runCmd(t, "--config", cfgPath, "archive", "extract", archive, "--id", "1"); err == nil {
		t.Fatalf("expected missing record error")
	}
}
