package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
	"github.com/KaramelBytes/datawash-cli/internal/upload"
)

func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte(content))
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, h http.Handler, body *bytes.Buffer, ctype string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, UploadPath, body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadCleansCSV(t *testing.T) {
	h := New(Options{}).Handler()
	body, ctype := multipartBody(t, "file", "data.csv", "name,val\nA,1\nB,\nA,1\n")
	rec := post(t, h, body, ctype)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing request id")
	}
	var resp struct {
		Data  []dataset.Row  `json:"data"`
		Stats map[string]int `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 || resp.Stats["duplicates"] != 1 || resp.Stats["missing_filled"] != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Data[1].Value("val") != dataset.Number(1) {
		t.Fatalf("mean fill = %v", resp.Data[1].Value("val"))
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	h := New(Options{}).Handler()
	body, ctype := multipartBody(t, "other", "data.csv", "a\n1\n")
	rec := post(t, h, body, ctype)
	if rec.Code != http.StatusBadRequest || !bytes.Contains(rec.Body.Bytes(), []byte(`"No file"`)) {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	body, ctype = multipartBody(t, "file", "data.json", "{}")
	rec = post(t, h, body, ctype)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unsupported format status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, UploadPath, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
	req.Header.Set(RequestIDHeader, "abc")
	New(Options{}).Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("status = %d id = %q", rec.Code, rec.Header().Get(RequestIDHeader))
	}
}

func TestClientAgainstServer(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Options{}).Serve(ctx, ln) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()

	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte(" name ,age\n Ann ,30\nBob,\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	c := upload.NewClient("http://"+ln.Addr().String()+UploadPath, 5*time.Second, 1, 10*time.Millisecond, 20*time.Millisecond)
	res, err := c.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(res.Rows) != 2 || res.Stats.MissingFilled != 1 || res.RequestID == "" {
		t.Fatalf("result = %+v", res)
	}
	if res.Rows[0].Value("name") != dataset.String("Ann") || res.Rows[1].Value("age") != dataset.Number(30) {
		t.Fatalf("rows = %v", res.Rows)
	}
	if keys := res.Rows[0].Keys(); keys[0] != "name" || keys[1] != "age" {
		t.Fatalf("column order = %q", keys)
	}
}
