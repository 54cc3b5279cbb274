// Package workbook provides access to the form responses and validation log worksheets of the
// Google Sheets spreadsheet that collects the data access requests.
package workbook

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sage-bionetworks/brats-app-sheets/access"
)

const mimeSpreadsheet = "application/vnd.google-apps.spreadsheet"

var spreadsheetURL = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)

// Workbook reads the form responses and reads/appends the validation log.
type Workbook struct {
	google      *sheets.Service
	spreadsheet string
	responses   string
	log         string
	index       access.LogIndex
	headed      bool
}

// Open returns a workbook for the spreadsheet identified by a Google Sheets URL or, failing
// that, by spreadsheet title. The options are passed to the Google API clients (typically
// option.WithHTTPClient).
func Open(ctx context.Context, spreadsheet, responses, log string, opts ...option.ClientOption) (*Workbook, error) {
	google, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("Unable to create new Sheets client (%w)", err)
	}

	id := ""
	if match := spreadsheetURL.FindStringSubmatch(strings.TrimSpace(spreadsheet)); len(match) > 1 {
		id = match[1]
	} else {
		gdrive, err := drive.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("Unable to create new Drive client (%w)", err)
		}

		if id, err = findSpreadsheet(ctx, gdrive, spreadsheet); err != nil {
			return nil, err
		}
	}

	return &Workbook{
		google:      google,
		spreadsheet: id,
		responses:   responses,
		log:         log,
	}, nil
}

func (w *Workbook) SpreadsheetID() string {
	return w.spreadsheet
}

// Get retrieves the formatted values of a worksheet or range.
func (w *Workbook) Get(ctx context.Context, area string) (*sheets.ValueRange, error) {
	response, err := w.google.Spreadsheets.Values.Get(w.spreadsheet, area).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()

	if err != nil {
		return nil, fmt.Errorf("Unable to retrieve data from sheet '%v' (%w)", area, err)
	}

	return response, nil
}

func (w *Workbook) Responses(ctx context.Context) ([]access.Response, error) {
	response, err := w.Get(ctx, w.responses)
	if err != nil {
		return nil, err
	}

	return access.MakeResponses(response)
}

func (w *Workbook) Logs(ctx context.Context) ([]access.LogEntry, error) {
	response, err := w.Get(ctx, w.log)
	if err != nil {
		return nil, err
	}

	entries, index, err := access.MakeLog(response)
	if err != nil {
		return nil, err
	}

	w.index = index
	w.headed = len(response.Values) > 0

	return entries, nil
}

// AppendLog appends a row to the log worksheet, using the column layout of the log worksheet
// header row. A header row is written first if the log worksheet is empty.
func (w *Workbook) AppendLog(ctx context.Context, entry access.LogEntry) error {
	if w.index == nil {
		if _, err := w.Logs(ctx); err != nil {
			return err
		}
	}

	rows := sheets.ValueRange{
		Values: [][]interface{}{
			w.index.Row(entry),
		},
	}

	if !w.headed {
		rows.Values = [][]interface{}{
			w.index.Header(),
			w.index.Row(entry),
		}
	}

	if _, err := w.google.Spreadsheets.Values.Append(w.spreadsheet, w.log, &rows).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("Error writing log to Google Sheets (%w)", err)
	}

	w.headed = true

	return nil
}

func findSpreadsheet(ctx context.Context, gdrive *drive.Service, title string) (string, error) {
	q := fmt.Sprintf("name = '%v' and mimeType = '%v' and trashed = false", escape(title), mimeSpreadsheet)

	list, err := gdrive.Files.List().
		Q(q).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		PageSize(10).
		Context(ctx).
		Do()

	if err != nil {
		return "", fmt.Errorf("Unable to find spreadsheet '%v' (%w)", title, err)
	}

	for _, f := range list.Files {
		if f.Name == title {
			return f.Id, nil
		}
	}

	return "", fmt.Errorf("No spreadsheet named '%v'", title)
}

func escape(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}
