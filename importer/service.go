package importer

import (
	"strings"

	"gopunch/punch"
)

// maxReportedErrors bounds how many malformed lines are kept for diagnostics; Malformed counts all.
const maxReportedErrors = 50

type Result struct {
	Layout    string
	Encoding  string
	LinesRead int
	Malformed int
	Records   []punch.Record
	Errors    []*MalformedLineError
	// Ambiguous names the layouts that parsed as many records as the chosen one.
	Ambiguous []string

	prefixVaries bool
}

// Parse decodes data with the layout's candidate encodings and parses every non-blank line.
// Malformed lines are dropped and counted; an undecodable payload or a result without
// records is fatal.
func Parse(data []byte, layout Layout) (*Result, error) {
	text, encodingName, err := decode(data, layout.encodings())
	if err != nil {
		return nil, err
	}

	result := parseText(text, layout)
	result.Encoding = encodingName
	if len(result.Records) == 0 {
		return nil, &EmptyResultError{LinesRead: result.LinesRead, Malformed: result.Malformed}
	}
	return result, nil
}

// ParseAuto parses data with every layout and keeps the one that yields the most records.
// A prefix layout whose leading tokens differ between lines is only used when no other
// layout parses anything, since the company prefix is constant and varying tokens belong
// to names. Remaining ties go to the earlier layout and are listed in Result.Ambiguous.
func ParseAuto(data []byte, layouts []Layout) (*Result, error) {
	if len(layouts) == 0 {
		layouts = DefaultLayouts()
	}

	var (
		best      *Result
		fallback  *Result
		tied      []string
		lastEmpty *EmptyResultError
		lastErr   error
	)
	decoded := make(map[string]decodedText, len(layouts))
	for _, layout := range layouts {
		key := strings.Join(layout.encodings(), ",")
		dt, ok := decoded[key]
		if !ok {
			dt.text, dt.encoding, dt.err = decode(data, layout.encodings())
			decoded[key] = dt
		}
		if dt.err != nil {
			lastErr = dt.err
			continue
		}

		result := parseText(dt.text, layout)
		result.Encoding = dt.encoding
		if len(result.Records) == 0 {
			lastEmpty = &EmptyResultError{LinesRead: result.LinesRead, Malformed: result.Malformed}
			continue
		}
		if result.prefixVaries {
			if fallback == nil || len(result.Records) > len(fallback.Records) {
				fallback = result
			}
			continue
		}

		switch {
		case best == nil || len(result.Records) > len(best.Records):
			best = result
			tied = nil
		case len(result.Records) == len(best.Records):
			tied = append(tied, result.Layout)
		}
	}

	switch {
	case best != nil:
		best.Ambiguous = tied
		return best, nil
	case fallback != nil:
		return fallback, nil
	case lastEmpty != nil:
		return nil, lastEmpty
	default:
		return nil, lastErr
	}
}

type decodedText struct {
	text     string
	encoding string
	err      error
}

func parseText(text string, layout Layout) *Result {
	result := &Result{
		Layout:  layout.Name,
		Records: make([]punch.Record, 0, 256),
	}
	var firstPrefix string

	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.LinesRead++

		record, malformed := parseLine(i+1, line, layout)
		if malformed != nil {
			result.Malformed++
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, malformed)
			}
			continue
		}
		result.Records = append(result.Records, record)

		if n := layout.prefixCount(); n > 0 {
			prefix := strings.Join(strings.Fields(line)[:n], " ")
			if len(result.Records) == 1 {
				firstPrefix = prefix
			} else if prefix != firstPrefix {
				result.prefixVaries = true
			}
		}
	}

	return result
}
