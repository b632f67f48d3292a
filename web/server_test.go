package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"gopunch/config"
	"gopunch/output"
)

const samplePunchLog = `This Company Ahmed Ali 7 1/5/2026 6:02:00 PM FP
This Company Ahmed Ali 7 1/5/2026 9:01:00 AM FP
This Company John Q Public 3 1/5/2026 2:00:01 PM FP
This Company Broken X3 1/5/2026 2:00:01 PM FP
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server, err := NewServer(*config.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		server.Close()
	})
	return ts
}

func postUpload(t *testing.T, url string, content []byte, fields map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if content != nil {
		part, err := form.CreateFormFile("file", "punches.txt")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	resp, err := http.Post(url, form.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post upload: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_IndexRendersUploadForm(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("request index: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	for _, want := range []string{`action="/api/convert"`, "company-fp", "14:00:00"} {
		if !strings.Contains(text, want) {
			t.Fatalf("index page missing %q: %s", want, text)
		}
	}
}

func TestServer_ConvertReturnsSpreadsheet(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp := postUpload(t, ts.URL+"/api/convert", []byte(samplePunchLog), nil)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "Processed_Attendance_Summary.xlsx") {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if resp.Header.Get("X-Punch-Records") != "3" || resp.Header.Get("X-Punch-Malformed") != "1" {
		t.Fatalf("unexpected diagnostics headers: records=%s malformed=%s", resp.Header.Get("X-Punch-Records"), resp.Header.Get("X-Punch-Malformed"))
	}

	body, _ := io.ReadAll(resp.Body)
	file, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(output.SheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %v", rows)
	}
	if strings.Join(rows[1], "|") != "3|John Q Public|2026-01-05|no login|14:00:01" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if strings.Join(rows[2], "|") != "7|Ahmed Ali|2026-01-05|09:01:00|18:02:00" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}

func TestServer_ConvertServesIdenticalBytesForRepeatedUpload(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	fields := map[string]string{"format": "csv", "sentinels": "title"}

	first := postUpload(t, ts.URL+"/api/convert", []byte(samplePunchLog), fields)
	firstBody, _ := io.ReadAll(first.Body)
	second := postUpload(t, ts.URL+"/api/convert", []byte(samplePunchLog), fields)
	secondBody, _ := io.ReadAll(second.Body)

	if first.StatusCode != http.StatusOK || second.StatusCode != http.StatusOK {
		t.Fatalf("unexpected statuses: %d, %d", first.StatusCode, second.StatusCode)
	}
	if !bytes.Equal(firstBody, secondBody) {
		t.Fatalf("expected identical bodies:\n%s\n%s", firstBody, secondBody)
	}
	if !strings.Contains(string(firstBody), "3,John Q Public,2026-01-05,No Login,14:00:01") {
		t.Fatalf("unexpected csv body: %s", firstBody)
	}
	if got := first.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestServer_ConvertRejectsEmptyLog(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp := postUpload(t, ts.URL+"/api/convert", []byte("\n\nheader only\n"), nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Disposition") != "" {
		t.Fatalf("expected no attachment for failed conversion")
	}
}

func TestServer_ConvertBadRequests(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	tests := []struct {
		name    string
		content []byte
		fields  map[string]string
	}{
		{name: "missing file", content: nil},
		{name: "unknown layout", content: []byte(samplePunchLog), fields: map[string]string{"layout": "nope"}},
		{name: "unknown format", content: []byte(samplePunchLog), fields: map[string]string{"format": "pdf"}},
		{name: "unknown sentinels", content: []byte(samplePunchLog), fields: map[string]string{"sentinels": "loud"}},
	}

	for _, tc := range tests {
		resp := postUpload(t, ts.URL+"/api/convert", tc.content, tc.fields)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, resp.StatusCode)
		}
	}
}

func TestServer_PreviewReturnsRowsAndDiagnostics(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp := postUpload(t, ts.URL+"/api/preview", []byte(samplePunchLog), map[string]string{"layout": "company"})
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var payload previewResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if payload.Layout != "company" || payload.Encoding != "utf-8" {
		t.Fatalf("unexpected layout/encoding: %s/%s", payload.Layout, payload.Encoding)
	}
	if payload.Records != 3 || payload.Malformed != 1 || len(payload.Errors) != 1 || payload.Errors[0].Line != 4 {
		t.Fatalf("unexpected diagnostics: %+v", payload)
	}
	if len(payload.Rows) != 2 || payload.Rows[0].CheckIn != "no login" || payload.Rows[1].Punches != 2 {
		t.Fatalf("unexpected rows: %+v", payload.Rows)
	}
	if payload.Summary.Employees != 2 || payload.Summary.MissingCheckIn != 1 {
		t.Fatalf("unexpected summary: %+v", payload.Summary)
	}
}

func TestServer_PreviewAutoLayoutKeepsFullNames(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	log := "Mohamed Ahmed Ali 5 1/5/2026 9:00:00 AM FP\nSara Mahmoud Hassan 6 1/5/2026 3:10:00 PM FP\n"
	resp := postUpload(t, ts.URL+"/api/preview", []byte(log), nil)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var payload previewResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if payload.Layout != "terminal" || len(payload.Ambiguous) != 0 {
		t.Fatalf("unexpected layout selection: %s %v", payload.Layout, payload.Ambiguous)
	}
	if len(payload.Rows) != 2 || payload.Rows[0].Name != "Mohamed Ahmed Ali" || payload.Rows[1].Name != "Sara Mahmoud Hassan" {
		t.Fatalf("expected full names, got %+v", payload.Rows)
	}
}
