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
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	missingCell   = "-"
	notAvailable  = "n.a."
	percentSuffix = "%"
)

var hundred = decimal.NewFromInt(100)

// normalizeCell strips regular and non-breaking spaces from a cell
func normalizeCell(cell string) string {
	cell = strings.ReplaceAll(cell, "\u00a0", " ")
	return strings.ReplaceAll(strings.TrimSpace(cell), " ", "")
}

// parseGermanDecimal reads numbers written with '.' as thousands separator and ',' as the
// decimal separator, e.g. 1.234,5
func parseGermanDecimal(cell string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(cell, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	return decimal.NewFromString(s)
}

// ParseNumber converts a German formatted number to a float. ok is false for the missing
// marker "-" and for cells that are not numbers.
func ParseNumber(cell string) (val float64, ok bool) {
	s := normalizeCell(cell)
	if s == "" || s == missingCell {
		return math.NaN(), false
	}

	d, err := parseGermanDecimal(s)
	if err != nil {
		return math.NaN(), false
	}

	val, _ = d.Float64()
	return val, true
}

// ParsePercent converts a German formatted percentage (e.g. "12,3%") into a fraction (0.123).
// ok is false for "n.a.%", "-" and anything else that does not parse.
func ParsePercent(cell string) (val float64, ok bool) {
	s := normalizeCell(cell)
	s = strings.TrimSuffix(s, percentSuffix)
	if s == "" || s == missingCell || s == notAvailable {
		return math.NaN(), false
	}

	d, err := parseGermanDecimal(s)
	if err != nil {
		return math.NaN(), false
	}

	val, _ = d.Div(hundred).Float64()
	return val, true
}

// CellParser turns a table cell into a series value; keep reports whether the cell
// belongs in the series at all
type CellParser func(cell string) (val float64, keep bool)

// MarketCapCell drops "-" (and other unparseable cells) from the series
func MarketCapCell(cell string) (float64, bool) {
	return ParseNumber(cell)
}

// PERatioCell coerces "-" to 0
func PERatioCell(cell string) (float64, bool) {
	if normalizeCell(cell) == missingCell {
		return 0, true
	}
	val, _ := ParseNumber(cell)
	return val, true
}

// DividendYieldCell keeps every column so positional lookups line up with the header; cells
// that are not percentages become NaN
func DividendYieldCell(cell string) (float64, bool) {
	val, _ := ParsePercent(cell)
	return val, true
}
