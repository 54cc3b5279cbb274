package workbook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"github.com/sage-bionetworks/brats-app-sheets/access"
)

type fakeSheets struct {
	sync.Mutex
	values   map[string][][]interface{}
	appended map[string][][]interface{}
	query    string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, rq *http.Request) {
	f.Lock()
	defer f.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case rq.Method == http.MethodGet && strings.HasSuffix(rq.URL.Path, "/files"):
		f.query = rq.URL.Query().Get("q")
		json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"id": "spreadsheet-1", "name": "BraTS Data Access Responses (copy)"},
				{"id": "spreadsheet-2", "name": "BraTS Data Access Responses"},
			},
		})

	case rq.Method == http.MethodGet && strings.HasPrefix(rq.URL.Path, "/v4/spreadsheets/spreadsheet-2/values/"):
		sheet := strings.TrimPrefix(rq.URL.Path, "/v4/spreadsheets/spreadsheet-2/values/")
		if values, ok := f.values[sheet]; ok {
			json.NewEncoder(w).Encode(map[string]any{
				"range":          sheet,
				"majorDimension": "ROWS",
				"values":         values,
			})
		} else {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 400, "message": "Unable to parse range: " + sheet},
			})
		}

	case rq.Method == http.MethodPost && strings.HasSuffix(rq.URL.Path, ":append"):
		sheet := strings.TrimSuffix(strings.TrimPrefix(rq.URL.Path, "/v4/spreadsheets/spreadsheet-2/values/"), ":append")
		if rq.URL.Query().Get("valueInputOption") != "RAW" || rq.URL.Query().Get("insertDataOption") != "INSERT_ROWS" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var body struct {
			Values [][]interface{} `json:"values"`
		}

		json.NewDecoder(rq.Body).Decode(&body)
		f.appended[sheet] = append(f.appended[sheet], body.Values...)
		f.values[sheet] = append(f.values[sheet], body.Values...)

		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "spreadsheet-2"})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setup(t *testing.T, spreadsheet string) (*Workbook, *fakeSheets) {
	f := fakeSheets{
		values: map[string][][]interface{}{
			"Responses": {
				{"Timestamp", "Synapse Username", "Email Address"},
				{"01/02/2025 10:00:00", "alice", "alice@example.com"},
				{"01/02/2025 11:00:00", " bob ", "bob@example.com"},
			},
			"Logs": {
				{"Result", "Timestamp", "Synapse Username", "Original Request Timestamp"},
				{"Invite sent", "01/02/2025 10:05:00", "alice", "01/02/2025 10:00:00"},
			},
		},
		appended: map[string][][]interface{}{},
	}

	srv := httptest.NewServer(&f)
	t.Cleanup(srv.Close)

	w, err := Open(context.Background(), spreadsheet, "Responses", "Logs",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("Unexpected error returned from Open (%v)", err)
	}

	return w, &f
}

func TestOpenWithURL(t *testing.T) {
	w, _ := setup(t, "https://docs.google.com/spreadsheets/d/spreadsheet-2/edit#gid=0")

	if w.SpreadsheetID() != "spreadsheet-2" {
		t.Errorf("Incorrect spreadsheet ID - expected:%v, got:%v", "spreadsheet-2", w.SpreadsheetID())
	}
}

func TestOpenWithTitle(t *testing.T) {
	w, f := setup(t, "BraTS Data Access Responses")

	if w.SpreadsheetID() != "spreadsheet-2" {
		t.Errorf("Incorrect spreadsheet ID - expected:%v, got:%v", "spreadsheet-2", w.SpreadsheetID())
	}

	expected := "name = 'BraTS Data Access Responses' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false"
	if f.query != expected {
		t.Errorf("Incorrect Drive query\n   expected:%v\n   got:     %v", expected, f.query)
	}
}

func TestResponses(t *testing.T) {
	w, _ := setup(t, "https://docs.google.com/spreadsheets/d/spreadsheet-2")

	expected := []access.Response{
		{Timestamp: "01/02/2025 10:00:00", Username: "alice"},
		{Timestamp: "01/02/2025 11:00:00", Username: " bob "},
	}

	responses, err := w.Responses(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error returned from Responses (%v)", err)
	}

	if !reflect.DeepEqual(responses, expected) {
		t.Errorf("Incorrect responses\n   expected:%v\n   got:     %v", expected, responses)
	}
}

func TestAppendLogUsesHeaderLayout(t *testing.T) {
	w, f := setup(t, "https://docs.google.com/spreadsheets/d/spreadsheet-2")

	logs, err := w.Logs(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error returned from Logs (%v)", err)
	}

	if len(logs) != 1 || logs[0].Username != "alice" || logs[0].OriginalTimestamp != "01/02/2025 10:00:00" {
		t.Errorf("Incorrect log entries (%v)", logs)
	}

	entry := access.LogEntry{
		LoggedAt:          "01/02/2025 11:05:00",
		OriginalTimestamp: "01/02/2025 11:00:00",
		Username:          " bob ",
		Outcome:           "Pending invite",
	}

	if err := w.AppendLog(context.Background(), entry); err != nil {
		t.Fatalf("Unexpected error returned from AppendLog (%v)", err)
	}

	expected := [][]interface{}{
		{"Pending invite", "01/02/2025 11:05:00", " bob ", "01/02/2025 11:00:00"},
	}

	if !reflect.DeepEqual(f.appended["Logs"], expected) {
		t.Errorf("Incorrect appended rows\n   expected:%v\n   got:     %v", expected, f.appended["Logs"])
	}
}

func TestAppendLogWithoutLogs(t *testing.T) {
	w, f := setup(t, "https://docs.google.com/spreadsheets/d/spreadsheet-2")

	entry := access.LogEntry{
		LoggedAt:          "01/02/2025 11:05:00",
		OriginalTimestamp: "01/02/2025 11:00:00",
		Username:          "carol",
		Outcome:           "Username not found",
	}

	if err := w.AppendLog(context.Background(), entry); err != nil {
		t.Fatalf("Unexpected error returned from AppendLog (%v)", err)
	}

	if len(f.appended["Logs"]) != 1 {
		t.Fatalf("Expected 1 appended row, got %v", len(f.appended["Logs"]))
	}
}

func TestAppendLogToEmptyLog(t *testing.T) {
	w, f := setup(t, "https://docs.google.com/spreadsheets/d/spreadsheet-2")

	f.values["Logs"] = [][]interface{}{}

	if logs, err := w.Logs(context.Background()); err != nil {
		t.Fatalf("Unexpected error returned from Logs (%v)", err)
	} else if len(logs) != 0 {
		t.Errorf("Expected empty log, got %v", logs)
	}

	entry := access.LogEntry{
		LoggedAt:          "10/16/2026 09:00:00",
		OriginalTimestamp: "1/15/2025 10:20:00",
		Username:          "alice",
		Outcome:           "Invite sent",
	}

	if err := w.AppendLog(context.Background(), entry); err != nil {
		t.Fatalf("Unexpected error returned from AppendLog (%v)", err)
	}

	expected := [][]interface{}{
		{"Timestamp", "Original Request Timestamp", "Synapse Username", "Result"},
		{"10/16/2026 09:00:00", "1/15/2025 10:20:00", "alice", "Invite sent"},
	}

	if !reflect.DeepEqual(f.appended["Logs"], expected) {
		t.Errorf("Incorrect appended rows\n   expected:%v\n   got:     %v", expected, f.appended["Logs"])
	}

	logs, err := w.Logs(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error returned from Logs after first append (%v)", err)
	}

	if !reflect.DeepEqual(logs, []access.LogEntry{entry}) {
		t.Errorf("Incorrect log entries\n   expected:%v\n   got:     %v", []access.LogEntry{entry}, logs)
	}

	next := access.LogEntry{
		LoggedAt:          "10/16/2026 09:00:06",
		OriginalTimestamp: "1/15/2025 10:30:00",
		Username:          "bob",
		Outcome:           "Pending invite",
	}

	if err := w.AppendLog(context.Background(), next); err != nil {
		t.Fatalf("Unexpected error returned from AppendLog (%v)", err)
	}

	if len(f.appended["Logs"]) != 3 {
		t.Errorf("Expected header and 2 log rows, got %v", f.appended["Logs"])
	}
}

func TestGetWithUnknownSheet(t *testing.T) {
	w, _ := setup(t, "https://docs.google.com/spreadsheets/d/spreadsheet-2")

	if _, err := w.Get(context.Background(), "Nonesuch"); err == nil {
		t.Errorf("Expected error retrieving unknown sheet")
	}
}

func TestEscape(t *testing.T) {
	if v := escape(`Bob's \ sheet`); v != `Bob\'s \\ sheet` {
		t.Errorf("Incorrectly escaped title - expected:%v, got:%v", `Bob\'s \\ sheet`, v)
	}
}
