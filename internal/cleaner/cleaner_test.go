package cleaner

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
)

// Workbook with an empty first sheet and a "Data" sheet holding ten rows of
// semicolon-locale measurements.
const xlsxFixtureBase64 = `
UEsDBBQAAAAIAMEwN1vYAxPv/wAAALYCAAATABwAW0NvbnRlbnRfVHlwZXNdLnhtbFVUCQADyjjSaMo40mh1eAsAAQQAAAAABAAAAAC1ks1OwzAQhO95CsvX
Kt60B4RQkh74OQKH8gDG3iRW/CfbLeHtcVIEEqIIpHJaWTOz32jlejsZTQ4YonK2oWtWUYJWOKls39Cn3V15SbdtUe9ePUaSvTY2dEjJXwFEMaDhkTmPNiud
C4an/Aw9eC5G3iNsquoChLMJbSrTvIO2BSH1DXZ8rxO5nbJyRAfUkZLro3fGNZR7r5XgKetwsPILqHyHsJxcPHFQPq6ygcIpyCyeZnxGH/JFgpJIHnlI99xk
I0waXlwYn50b2c97vunquk4JlE7sTY6w6ANyGQfEZDRbJjNc2dWvKiz+CMtYn7nLx/6/V9n8d5Ualm/YFm9QSwMECgAAAAAAxDA3WwAAAAAAAAAAAAAAAAMA
HAB4bC9VVAkAA9A40mjyONJodXgLAAEEAAAAAAQAAAAAUEsDBBQAAAAIAMQwN1tM2kS6xQAAAEkBAAAPABwAeGwvd29ya2Jvb2sueG1sVVQJAAPQONJo0DjS
aHV4CwABBAAAAAAEAAAAAI1Qu27DMAzc/RUC90aOhyIwZGcJAnhvP0CxaVuIRRqk+vj8qjEMZOjQ7Y7k3ZF05++4mE8UDUwNHA8lGKSeh0BTA+9v15cTnNvC
fbHcb8x3k8dJG5hTWmtrtZ8xej3wipQ7I0v0KVOZrK6CftAZMcXFVmX5aqMPBJtDLf/x4HEMPV64/4hIaTMRXHzKy+ocVoW2MMY9QvQX7sSQj9hANxELgnnU
uiHfB0bqkIF0wxHsH5KLT/5JUD0Jqk3g7J7n7P6WtvgBUEsDBAoAAAAAANIwN1sAAAAAAAAAAAAAAAAOABwAeGwvd29ya3NoZWV0cy9VVAkAA+s40mjyONJo
dXgLAAEEAAAAAAQAAAAAUEsDBBQAAAAIANIwN1u3fFZsqwIAAIASAAAYABwAeGwvd29ya3NoZWV0cy9zaGVldDIueG1sVVQJAAPrONJo6zjSaHV4CwABBAAA
AAAEAAAAAJ3YT26bQBiH4X1OgVilkguD/wEVJkoMzibKJukBJngMqGYGDeMkvVXP0JN1nEhVQ/r7QCxx/BDsV9/gIbl6bY7Os9BdreTGDTzmOkIWal/LcuN+
f9x9jdyr9CJ5UfpHVwlhHPt+2W3cypj2m+93RSUa3nmqFdL+5aB0w4091KXftVrw/Rtqjv6csbXf8Fq66YXjJG8vZ9zw85E91urF0fb/u+/H9pXifHwduI7Z
uLU81lI8GO2mSd2liUlvtTq1iW/SxD+/4Bcf3Q1yWyULIY3mxn5e57L0777gs2zRWR5F0zqXv3/tCJwh/FAoLbDLkbtTBT+K+1PzJDTmO/jJuRGl0j8xvUX0
Xpn/XHDi22gf8837+ebgjNdEOmTYbEWkQipkRCKEAjYjWA6Zxxgpd0jyY1txogxyh1p3ZlSaRT/NYkIaZNhsTaRBKgyINAgFAZkGMi8YSIPkUBrkOlEouR/V
Ztlvs5zQBhk7NtTcILaOiTgIxdSI5vAKvXigDZJPwlBpEDNVrceVWfXLrMApb4gyyLBZSIRBKiS+4gyhgFw8c8g8tqLLIDk0Ncgd1EmbalSbdb/NekIbZOyK
Rk0NYuGSiINQPIuINvAKvTii2yA5MDWIHerDyDJhv0w4oQwytgzxdW0RCxdEGYTs2MyJNJB5bE6nQXJobJDr6teRbaJ+m2jCvQYZu8oQ39cWMSpohlBETg28
Qi8amBokS940VBrkOvFsNxzj4sT9OPGEwUHG3m6oJQ2xkPhplyEUU7e2HF6hF4d0HCQHljTERF1WI9ME7NPWlE2YHIgW1OfeQhZTvwagom/qOXaDGxxIh1Y2
CGU9dnqCz08P0I6Wmh+I7J2H2uZAFxJrYgaVvfcQ+6McO4/R29cdpENLHIRmYIVL/H+e9yT+34dJ6cUfUEsDBBQAAAAIAMcwN1sqMey0swAAAPgAAAAYABwA
eGwvd29ya3NoZWV0cy9zaGVldDEueG1sVVQJAAPWONJo1jjSaHV4CwABBAAAAAAEAAAAAE2P3WrDMAxG7/MURverkl6MUhyXwegLrHsA46iNqf+QxbLHr5OO
0cvzSfoO0qffGNQPcfU5jTDselCUXJ58uo3wfTm/HeBkOr1kvteZSFTbT3WEWaQcEaubKdq6y4VSm1wzRysN+Ya1MNlpO4oB933/jtH6BKZTSm/xpxW7UmPO
i+Lmhye3xK38MYCSEXwKPtGXMBjtq9FiSrCO5hwmYo1iNK4xur82bHWbBl88Gv+fMN0DUEsDBAoAAAAAAMYwN1sAAAAAAAAAAAAAAAAJABwAeGwvX3JlbHMv
VVQJAAPTONJo8jjSaHV4CwABBAAAAAAEAAAAAFBLAwQUAAAACADGMDdbCmPblLYAAACtAQAAGgAcAHhsL19yZWxzL3dvcmtib29rLnhtbC5yZWxzVVQJAAPT
ONJo0zjSaHV4CwABBAAAAAAEAAAAAL2QSwrCMBBA9z1FmL2dtgsRadqNCN1KPUBIpx/aJiGJv9sbBMWCgitXw/zePCYvr/PEzmTdoBWHNE6AkZK6GVTH4Vjv
Vxsoiyg/0CR8GHH9YBwLO8px6L03W0Qne5qFi7UhFTqttrPwIbUdGiFH0RFmSbJG+86AImJsgWVVw8FWTQqsvhn6Ba/bdpC00/I0k/IfruBF29H1RD5Ahe3I
c3iVHD5CGgcq4Fef7M8+2dMnx8XXi+gOUEsDBAoAAAAAAMMwN1sAAAAAAAAAAAAAAAAGABwAX3JlbHMvVVQJAAPNONJo8jjSaHV4CwABBAAAAAAEAAAAAFBL
AwQUAAAACADDMDdbDxvLDKoAAAAcAQAACwAcAF9yZWxzLy5yZWxzVVQJAAPNONJozTjSaHV4CwABBAAAAAAEAAAAAI3PsQ6CMBAG4J2naG6XgoMxxsJiTFgN
PkAtRyHQXtNWxbe3oxgHx8v9913+Y72YmT3Qh5GsgDIvgKFV1I1WC7i2580e6io7XnCWMUXCMLrA0o0NAoYY3YHzoAY0MuTk0KZNT97ImEavuZNqkhr5tih2
3H8aUGWMrVjWdAJ805XA2pfDf3jq+1HhidTdoI0/vnwlkiy9xihgmfmT/HQjmvKEAk8d+apklb0BUEsBAh4DFAAAAAgAwTA3W9gDE+//AAAAtgIAABMAGAAA
AAAAAQAAAKSBAAAAAFtDb250ZW50X1R5cGVzXS54bWxVVAUAA8o40mh1eAsAAQQAAAAABAAAAABQSwECHgMKAAAAAADEMDdbAAAAAAAAAAAAAAAAAwAYAAAA
AAAAABAA7UFMAQAAeGwvVVQFAAPQONJodXgLAAEEAAAAAAQAAAAAUEsBAh4DFAAAAAgAxDA3W0zaRLrFAAAASQEAAA8AGAAAAAAAAQAAAKSBiQEAAHhsL3dv
cmtib29rLnhtbFVUBQAD0DjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAwoAAAAAANIwN1sAAAAAAAAAAAAAAAAOABgAAAAAAAAAEADtQZcCAAB4bC93b3Jrc2hl
ZXRzL1VUBQAD6zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAxQAAAAIANIwN1u3fFZsqwIAAIASAAAYABgAAAAAAAEAAACkgd8CAAB4bC93b3Jrc2hlZXRzL3No
ZWV0Mi54bWxVVAUAA+s40mh1eAsAAQQAAAAABAAAAABQSwECHgMUAAAACADHMDdbKjHstLMAAAD4AAAAGAAYAAAAAAABAAAApIHcBQAAeGwvd29ya3NoZWV0
cy9zaGVldDEueG1sVVQFAAPWONJodXgLAAEEAAAAAAQAAAAAUEsBAh4DCgAAAAAAxjA3WwAAAAAAAAAAAAAAAAkAGAAAAAAAAAAQAO1B4QYAAHhsL19yZWxz
L1VUBQAD0zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAxQAAAAIAMYwN1sKY9uUtgAAAK0BAAAaABgAAAAAAAEAAACkgSQHAAB4bC9fcmVscy93b3JrYm9vay54
bWwucmVsc1VUBQAD0zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAwoAAAAAAMMwN1sAAAAAAAAAAAAAAAAGABgAAAAAAAAAEADtQS4IAABfcmVscy9VVAUAA804
0mh1eAsAAQQAAAAABAAAAABQSwECHgMUAAAACADDMDdbDxvLDKoAAAAcAQAACwAYAAAAAAABAAAApIFuCAAAX3JlbHMvLnJlbHNVVAUAA8040mh1eAsAAQQA
AAAABAAAAABQSwUGAAAAAAoACgBTAwAAXQkAAAAA
`

func xlsxFixture(t *testing.T) []byte {
	t.Helper()
	raw := strings.ReplaceAll(strings.TrimSpace(xlsxFixtureBase64), "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode xlsx fixture: %v", err)
	}
	return data
}

func cleanCSV(t *testing.T, text string) Result {
	t.Helper()
	res, err := CleanFile("in.csv", []byte(text), Options{})
	if err != nil {
		t.Fatalf("CleanFile: %v", err)
	}
	return res
}

func TestCleanFillsMeanAndDropsDuplicates(t *testing.T) {
	res := cleanCSV(t, " name , val ,note\n A ,1, x \nB,,y\nC,3,\n A ,1, x \n")

	if strings.Join(res.Columns, "|") != "name|val|note" {
		t.Fatalf("columns = %q", res.Columns)
	}
	want := Stats{Rows: 3, Cols: 3, Duplicates: 1, MissingFilled: 2}
	if res.Stats != want {
		t.Fatalf("stats = %+v, want %+v", res.Stats, want)
	}
	if got := res.Rows[0].Value("name"); got != dataset.String("A") {
		t.Fatalf("name not trimmed: %v", got)
	}
	// mean of the present values 1, 3, 1
	if got := res.Rows[1].Value("val"); got != dataset.Number(5.0/3.0) {
		t.Fatalf("filled val = %v", got)
	}
	if !res.Rows[2].Value("note").IsNull() {
		t.Fatalf("empty text should be null, got %v", res.Rows[2].Value("note"))
	}
}

func TestCleanEmptyNumericColumnFillsZero(t *testing.T) {
	res := cleanCSV(t, "a,b\nx,\ny,NA\n")
	for i, r := range res.Rows {
		if r.Value("b") != dataset.Number(0) {
			t.Fatalf("row %d b = %v", i, r.Value("b"))
		}
	}
	if res.Stats.MissingFilled != 2 {
		t.Fatalf("missing = %d", res.Stats.MissingFilled)
	}
}

func TestCleanInfinityBecomesNull(t *testing.T) {
	res := cleanCSV(t, "v\n1\ninf\n")
	if res.Rows[0].Value("v") != dataset.Number(1) || !res.Rows[1].Value("v").IsNull() {
		t.Fatalf("rows = %v %v", res.Rows[0].Value("v"), res.Rows[1].Value("v"))
	}
}

func TestCleanMixedColumnStaysText(t *testing.T) {
	res := cleanCSV(t, "v\n1\ntwo\n")
	if res.Rows[0].Value("v") != dataset.String("1") {
		t.Fatalf("mixed column coerced: %v", res.Rows[0].Value("v"))
	}
}

func TestHeaderNamesAreUnique(t *testing.T) {
	got := headerNames([]string{"a", " a", "", "a"})
	if strings.Join(got, "|") != "a|a.1|Unnamed: 2|a.2" {
		t.Fatalf("headers = %q", got)
	}
}

func TestReadDelimitedRejectsLongRows(t *testing.T) {
	if _, err := CleanFile("in.csv", []byte("a,b\n1,2,3\n"), Options{}); err == nil {
		t.Fatalf("expected an error for a row wider than the header")
	}
	if _, err := CleanFile("in.csv", nil, Options{}); !errors.Is(err, ErrNoColumns) {
		t.Fatalf("expected ErrNoColumns, got %v", err)
	}
	if _, err := CleanFile("in.json", []byte("{}"), Options{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestReadTSV(t *testing.T) {
	res, err := CleanFile("in.TSV", []byte("a\tb\n1\tx\n"), Options{})
	if err != nil {
		t.Fatalf("CleanFile: %v", err)
	}
	if res.Rows[0].Value("a") != dataset.Number(1) || res.Rows[0].Value("b") != dataset.String("x") {
		t.Fatalf("row = %v", res.Rows[0])
	}
}

func TestReadXLSXSheetAndLocale(t *testing.T) {
	data := xlsxFixture(t)
	tbl, err := ReadXLSX(data, "Data", 0)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if len(tbl.Records) != 10 || tbl.Header[0] != "Group" {
		t.Fatalf("records = %d header = %q", len(tbl.Records), tbl.Header)
	}
	byIndex, err := ReadXLSX(data, "", 2)
	if err != nil || len(byIndex.Records) != 10 {
		t.Fatalf("ReadXLSX by index: %d %v", len(byIndex.Records), err)
	}
	if _, err := ReadXLSX(data, "Missing", 0); err == nil || !strings.Contains(err.Error(), "Data") {
		t.Fatalf("expected available sheets in error, got %v", err)
	}

	res, err := Clean(tbl, Options{DecimalSeparator: ',', ThousandsSeparator: '.'})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.Stats.Rows != 10 || res.Stats.Cols != 7 || res.Stats.Duplicates != 0 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if got := res.Rows[0].Value("LocaleNumber"); got != dataset.Number(1000) {
		t.Fatalf("LocaleNumber = %v", got)
	}
	if got := res.Rows[0].Value("Score"); got != dataset.Number(10) {
		t.Fatalf("Score = %v", got)
	}
	if got := res.Rows[0].Value("Category"); got != dataset.String("alpha") {
		t.Fatalf("Category = %v", got)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
	if colIndexFromRef("C12") != 2 || colIndexFromRef("AA1") != 26 {
		t.Fatalf("colIndexFromRef mismatch")
	}
}
