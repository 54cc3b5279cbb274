package access

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"google.golang.org/api/sheets/v4"
)

const (
	ColTimestamp         = "timestamp"
	ColOriginalTimestamp = "originalrequesttimestamp"
	ColUsername          = "synapseusername"
	ColOutcome           = "result"
)

var aliases = map[string]string{
	"timestampofresponse": ColOriginalTimestamp,
	"originaltimestamp":   ColOriginalTimestamp,
	"outcome":             ColOutcome,
	"message":             ColOutcome,
	"logmessage":          ColOutcome,
	"status":              ColOutcome,
}

// LogIndex maps the log worksheet columns to their (zero-based) column positions.
type LogIndex map[string]int

// DefaultLogIndex is the column layout used when the log worksheet does not have a usable
// header row: processing time, original request timestamp, username, result.
func DefaultLogIndex() LogIndex {
	return LogIndex{
		ColTimestamp:         0,
		ColOriginalTimestamp: 1,
		ColUsername:          2,
		ColOutcome:           3,
	}
}

// Row lays out a log entry according to the column index, padding unused columns with "".
func (ix LogIndex) Row(entry LogEntry) []interface{} {
	columns := 0
	for _, v := range ix {
		if v >= columns {
			columns = v + 1
		}
	}

	row := make([]interface{}, columns)
	for i := range row {
		row[i] = ""
	}

	if i, ok := ix[ColTimestamp]; ok {
		row[i] = entry.LoggedAt
	}

	if i, ok := ix[ColOriginalTimestamp]; ok {
		row[i] = entry.OriginalTimestamp
	}

	if i, ok := ix[ColUsername]; ok {
		row[i] = entry.Username
	}

	if i, ok := ix[ColOutcome]; ok {
		row[i] = entry.Outcome
	}

	return row
}

// Header returns the log worksheet header row for the column index.
func (ix LogIndex) Header() []interface{} {
	return ix.Row(LogEntry{
		LoggedAt:          "Timestamp",
		OriginalTimestamp: "Original Request Timestamp",
		Username:          "Synapse Username",
		Outcome:           "Result",
	})
}

// MakeResponses extracts the form responses from the 'responses' worksheet. The first row is
// expected to be the header row and must include the 'Timestamp' and 'Synapse Username'
// columns. Blank rows are skipped.
func MakeResponses(data *sheets.ValueRange) ([]Response, error) {
	if data == nil || len(data.Values) == 0 {
		return nil, fmt.Errorf("Empty sheet")
	}

	index, err := buildIndex(data.Values[0])
	if err != nil {
		return nil, err
	}

	timestamp, ok := index[ColTimestamp]
	if !ok {
		return nil, fmt.Errorf("Missing 'Timestamp' column")
	}

	username, ok := index[ColUsername]
	if !ok {
		return nil, fmt.Errorf("Missing 'Synapse Username' column")
	}

	responses := []Response{}
	for _, row := range data.Values[1:] {
		r := Response{
			Timestamp: cell(row, timestamp),
			Username:  cell(row, username),
		}

		if r.Timestamp == "" && strings.TrimSpace(r.Username) == "" {
			continue
		}

		responses = append(responses, r)
	}

	return responses, nil
}

// MakeLog extracts the log entries from the log worksheet, along with the column index to use
// when appending new entries. An empty worksheet is not an error - it just means nothing has
// been processed yet.
func MakeLog(data *sheets.ValueRange) ([]LogEntry, LogIndex, error) {
	if data == nil || len(data.Values) == 0 {
		return []LogEntry{}, DefaultLogIndex(), nil
	}

	index, err := buildIndex(data.Values[0])
	if err != nil {
		return nil, nil, err
	}

	if _, ok := index[ColOriginalTimestamp]; !ok {
		return nil, nil, fmt.Errorf("Missing 'Original Request Timestamp' column")
	}

	if _, ok := index[ColUsername]; !ok {
		return nil, nil, fmt.Errorf("Missing 'Synapse Username' column")
	}

	ix := LogIndex{}
	for _, k := range []string{ColTimestamp, ColOriginalTimestamp, ColUsername, ColOutcome} {
		if v, ok := index[k]; ok {
			ix[k] = v
		}
	}

	entries := []LogEntry{}
	for _, row := range data.Values[1:] {
		entry := LogEntry{
			OriginalTimestamp: cell(row, ix[ColOriginalTimestamp]),
			Username:          cell(row, ix[ColUsername]),
		}

		if v, ok := ix[ColTimestamp]; ok {
			entry.LoggedAt = cell(row, v)
		}

		if v, ok := ix[ColOutcome]; ok {
			entry.Outcome = cell(row, v)
		}

		entries = append(entries, entry)
	}

	return entries, ix, nil
}

func buildIndex(header []interface{}) (map[string]int, error) {
	index := map[string]int{}
	for i, v := range header {
		k := normalise(fmt.Sprintf("%v", v))
		if k == "" {
			continue
		}

		if alias, ok := aliases[k]; ok {
			k = alias
		}

		if _, ok := index[k]; ok {
			return nil, fmt.Errorf("Duplicate column name '%v'", v)
		}

		index[k] = i
	}

	if len(index) == 0 {
		return nil, fmt.Errorf("Missing/invalid header row")
	}

	return index, nil
}

// Sheets omits trailing empty cells, so short rows are expected.
func cell(row []interface{}, ix int) string {
	if ix < 0 || ix >= len(row) || row[ix] == nil {
		return ""
	}

	return fmt.Sprintf("%v", row[ix])
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

func normalise(v string) string {
	s := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(v))

	return cases.Fold().String(s)
}
