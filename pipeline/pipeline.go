// Package pipeline turns the raw bytes of a punch log into an attendance table.
// It holds no state between runs; every call works on its own copies of the data.
package pipeline

import (
	"strings"

	"gopunch/attendance"
	"gopunch/importer"
)

// LayoutAuto selects the layout that parses the most records.
const LayoutAuto = "auto"

type Options struct {
	Layout  string
	Layouts []importer.Layout
	Policy  attendance.Policy
}

type Result struct {
	Parse   *importer.Result
	Rows    []attendance.Row
	Summary attendance.Summary
}

func Run(data []byte, opts Options) (*Result, error) {
	layouts := opts.Layouts
	if len(layouts) == 0 {
		layouts = importer.DefaultLayouts()
	}
	policy := opts.Policy
	if policy.SinglePunchCutoff <= 0 {
		policy = attendance.DefaultPolicy()
	}

	var (
		parsed *importer.Result
		err    error
	)
	name := strings.TrimSpace(opts.Layout)
	if name == "" || strings.EqualFold(name, LayoutAuto) {
		parsed, err = importer.ParseAuto(data, layouts)
	} else {
		layout, lookupErr := importer.LayoutByName(name, layouts)
		if lookupErr != nil {
			return nil, lookupErr
		}
		parsed, err = importer.Parse(data, layout)
	}
	if err != nil {
		return nil, err
	}

	rows := attendance.BuildRows(parsed.Records, policy)
	return &Result{
		Parse:   parsed,
		Rows:    rows,
		Summary: attendance.Summarize(rows),
	}, nil
}
