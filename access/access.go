package access

// Response is a single data access request submitted through the Google Form.
type Response struct {
	Timestamp string
	Username  string
}

// LogEntry is a single row of the validation log worksheet.
type LogEntry struct {
	LoggedAt          string
	OriginalTimestamp string
	Username          string
	Outcome           string
}

// Key identifies a form response across the responses and log worksheets.
type Key struct {
	Timestamp string
	Username  string
}

func (r Response) Key() Key {
	return Key{
		Timestamp: r.Timestamp,
		Username:  r.Username,
	}
}

func (l LogEntry) Key() Key {
	return Key{
		Timestamp: l.OriginalTimestamp,
		Username:  l.Username,
	}
}

// Unprocessed returns the responses that do not have a matching (original timestamp, username)
// entry in the log, in the same order as the responses worksheet.
func Unprocessed(responses []Response, logs []LogEntry) []Response {
	processed := make(map[Key]struct{}, len(logs))
	for _, l := range logs {
		processed[l.Key()] = struct{}{}
	}

	list := []Response{}
	for _, r := range responses {
		if _, ok := processed[r.Key()]; !ok {
			list = append(list, r)
		}
	}

	return list
}
