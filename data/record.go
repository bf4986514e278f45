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
)

// positions and labels of the figures inside the portal's fundamentals and technical pages
const (
	fundamentalsMinTables = 8
	technicalMinTables    = 1

	peRatioTable       = 1
	dividendYieldTable = 2
	marketCapTable     = 7

	RowPERatio       = "KGV"
	RowDividendYield = "Dividendenrendite"
	RowMarketCap     = "Marktkapitalisierung in Mio. EUR"

	ColTimeSpan    = "Zeitraum"
	ColPerformance = "Performance"
	Perf1Year      = "1 Jahr"
	Perf5Years     = "5 Jahre"
)

// StockRecord is the canonical set of figures the ranking works with
type StockRecord struct {
	Name     string
	ISIN     string
	Sector   string
	Industry string

	// MarketCap in millions of EUR; the first available value of MarketCapSeries
	MarketCap       float64
	MarketCapSeries *Series

	// DividendYield and PERatio are keyed by the year labels of the fundamentals page, e.g. 2023e
	DividendYield *Series
	PERatio       *Series

	// Perf1Y and Perf5Y are fractions, NaN when the portal does not report them
	Perf1Y float64
	Perf5Y float64
}

// NewStockRecord derives a record from the raw pages of a stock. The locator supplies
// the name and ISIN when the profile does not carry a company name.
func NewStockRecord(loc StockLocator, raw *RawTableSet) (*StockRecord, error) {
	if err := raw.validate(); err != nil {
		return nil, err
	}

	marketCap, err := raw.Fundamentals[marketCapTable].Series(RowMarketCap, MarketCapCell)
	if err != nil {
		return nil, err
	}

	dividendYield, err := raw.Fundamentals[dividendYieldTable].Series(RowDividendYield, DividendYieldCell)
	if err != nil {
		return nil, err
	}

	peRatio, err := raw.Fundamentals[peRatioTable].Series(RowPERatio, PERatioCell)
	if err != nil {
		return nil, err
	}

	performance := raw.Technical[len(raw.Technical)-1].RenameColumns(ColTimeSpan, ColPerformance)

	name := loc.Name
	if company, ok := raw.Corporate[ProfileCompany]; ok && company != "" {
		name = company
	}

	return &StockRecord{
		Name:            name,
		ISIN:            loc.ISIN,
		Sector:          raw.Corporate[ProfileSector],
		Industry:        raw.Corporate[ProfileIndustry],
		MarketCap:       marketCap.First(),
		MarketCapSeries: marketCap,
		DividendYield:   dividendYield,
		PERatio:         peRatio,
		Perf1Y:          performanceValue(performance, Perf1Year),
		Perf5Y:          performanceValue(performance, Perf5Years),
	}, nil
}

func performanceValue(tbl *Table, span string) float64 {
	cell, ok := tbl.Value(ColTimeSpan, span, ColPerformance)
	if !ok {
		return math.NaN()
	}
	val, _ := ParsePercent(cell)
	return val
}
