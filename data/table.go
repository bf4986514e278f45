// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is a plain-text rendition of an HTML <table>. The first header column holds the
// row labels; the remaining header columns label the values.
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseTables extracts every table in document order
func ParseTables(doc *goquery.Document) []*Table {
	tables := make([]*Table, 0, 16)
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		tables = append(tables, parseTable(sel))
	})
	return tables
}

func parseTable(sel *goquery.Selection) *Table {
	tbl := &Table{}

	headerRow := sel.Find("thead tr").First()
	if headerRow.Length() == 0 {
		first := sel.Find("tr").First()
		if first.Find("th").Length() > 0 && first.Find("td").Length() == 0 {
			headerRow = first
		}
	}

	if headerRow.Length() > 0 {
		headerRow.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			tbl.Header = append(tbl.Header, cellText(cell))
		})
	}

	sel.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if headerRow.Length() > 0 && row.IsSelection(headerRow) {
			return
		}
		if row.ParentsFiltered("thead").Length() > 0 {
			return
		}

		cells := make([]string, 0, len(tbl.Header))
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cellText(cell))
		})
		if len(cells) > 0 {
			tbl.Rows = append(tbl.Rows, cells)
		}
	})

	return tbl
}

// cellText collapses all whitespace runs in the text of sel into single spaces
func cellText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// ColIndex returns the index of the named header column or -1
func (t *Table) ColIndex(name string) int {
	for idx, col := range t.Header {
		if col == name {
			return idx
		}
	}
	return -1
}

// RenameColumns renames the leading header columns in a copy of the table
func (t *Table) RenameColumns(names ...string) *Table {
	t2 := t.Copy()
	for len(t2.Header) < len(names) {
		t2.Header = append(t2.Header, "")
	}
	copy(t2.Header, names)
	return t2
}

// Copy creates a deep copy of the table
func (t *Table) Copy() *Table {
	t2 := &Table{
		Header: make([]string, len(t.Header)),
		Rows:   make([][]string, len(t.Rows)),
	}
	copy(t2.Header, t.Header)
	for idx, row := range t.Rows {
		t2.Rows[idx] = make([]string, len(row))
		copy(t2.Rows[idx], row)
	}
	return t2
}

// Row returns the cells of the first row whose label column equals label
func (t *Table) Row(label string) ([]string, bool) {
	for _, row := range t.Rows {
		if len(row) > 0 && row[0] == label {
			return row, true
		}
	}
	return nil, false
}

// Value looks up the row where keyCol equals key and returns the cell in valCol
func (t *Table) Value(keyCol, key, valCol string) (string, bool) {
	keyIdx := t.ColIndex(keyCol)
	valIdx := t.ColIndex(valCol)
	if keyIdx == -1 || valIdx == -1 {
		return "", false
	}

	for _, row := range t.Rows {
		if keyIdx < len(row) && valIdx < len(row) && row[keyIdx] == key {
			return row[valIdx], true
		}
	}
	return "", false
}

// Series transposes the row labeled label into a Series keyed by the header columns. Cells
// rejected by parse are left out. A missing row is reported as ErrMalformedPage.
func (t *Table) Series(label string, parse CellParser) (*Series, error) {
	row, ok := t.Row(label)
	if !ok {
		return nil, fmt.Errorf("%w: row %q not found", ErrMalformedPage, label)
	}

	series := &Series{
		Labels: make([]string, 0, len(row)),
		Values: make([]float64, 0, len(row)),
	}
	for idx := 1; idx < len(row); idx++ {
		val, keep := parse(row[idx])
		if !keep {
			continue
		}
		colLabel := fmt.Sprintf("%d", idx)
		if idx < len(t.Header) && t.Header[idx] != "" {
			colLabel = t.Header[idx]
		}
		series.Labels = append(series.Labels, colLabel)
		series.Values = append(series.Values, val)
	}

	return series, nil
}
