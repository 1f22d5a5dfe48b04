// Package importer parses the tab-separated athlete spreadsheet export.
package importer

import (
	"regexp"
	"strings"

	"github.com/lildude/strengthboard/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Column positions of the export. The Total column is never read; totals
// are recomputed from squat, bench and deadlift.
const (
	colName = iota
	colBodyWeight
	colSquat
	colBench
	colDeadlift
	colTotal
	colOHP
	colInclineBench
	colRDL
	colRevBandBench
	colRevBandSquat
	colRevBandDL
	colSlingshotBench
)

// Row is one athlete line of the export.
type Row struct {
	Line           int
	Name           string
	BodyWeight     decimal.NullDecimal
	Squat          decimal.NullDecimal
	Bench          decimal.NullDecimal
	Deadlift       decimal.NullDecimal
	OHP            decimal.NullDecimal
	InclineBench   decimal.NullDecimal
	RDL            decimal.NullDecimal
	RevBandBench   decimal.NullDecimal
	RevBandSquat   decimal.NullDecimal
	RevBandDL      decimal.NullDecimal
	SlingshotBench decimal.NullDecimal
}

// Total is squat+bench+deadlift, or null unless all three are present.
func (r Row) Total() decimal.NullDecimal {
	return model.Total(r.Squat, r.Bench, r.Deadlift)
}

var fold = cases.Fold()

// Parse splits text into rows. Blank lines, header lines and lines without
// a name are skipped.
func Parse(text string) []Row {
	var rows []Row
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		name := strings.TrimSpace(fields[colName])
		if name == "" || isHeader(name) {
			continue
		}

		rows = append(rows, Row{
			Line:           i + 1,
			Name:           name,
			BodyWeight:     number(fields, colBodyWeight),
			Squat:          number(fields, colSquat),
			Bench:          number(fields, colBench),
			Deadlift:       number(fields, colDeadlift),
			OHP:            number(fields, colOHP),
			InclineBench:   number(fields, colInclineBench),
			RDL:            number(fields, colRDL),
			RevBandBench:   number(fields, colRevBandBench),
			RevBandSquat:   number(fields, colRevBandSquat),
			RevBandDL:      number(fields, colRevBandDL),
			SlingshotBench: number(fields, colSlingshotBench),
		})
	}
	return rows
}

func isHeader(name string) bool {
	return fold.String(name) == "name"
}

// leadingNumber matches the numeric prefix of a cell, so "102.5kg" reads as
// 102.5.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// number reads column i of fields. Missing, empty and non-numeric cells are
// null.
func number(fields []string, i int) decimal.NullDecimal {
	if i >= len(fields) {
		return decimal.NullDecimal{}
	}
	m := leadingNumber.FindString(strings.TrimSpace(fields[i]))
	if m == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
