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

package export

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

func encodeXLSX(ctx context.Context, path string, df *dataframe.DataFrame) error {
	if err := exports.ExportToExcel(ctx, path, df); err != nil {
		return fmt.Errorf("could not write xlsx %s: %w", path, err)
	}
	return nil
}

// cellValue returns the value of a cell with missing floats mapped to nil
func cellValue(series dataframe.Series, row int) interface{} {
	val := series.Value(row)
	if f, ok := val.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return val
}

// JSON renders df as an array of objects, one per row, with keys in column order
func JSON(df *dataframe.DataFrame) ([]byte, error) {
	names := make([][]byte, len(df.Series))
	for idx, series := range df.Series {
		name, err := json.Marshal(series.Name())
		if err != nil {
			return nil, err
		}
		names[idx] = name
	}

	buf := &bytes.Buffer{}
	buf.WriteByte('[')
	nrows := df.NRows()
	for row := 0; row < nrows; row++ {
		if row > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for idx, series := range df.Series {
			if idx > 0 {
				buf.WriteByte(',')
			}
			val, err := json.Marshal(cellValue(series, row))
			if err != nil {
				return nil, err
			}
			buf.Write(names[idx])
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func encodeJSON(_ context.Context, path string, df *dataframe.DataFrame) error {
	doc, err := JSON(df)
	if err != nil {
		return fmt.Errorf("could not encode json: %w", err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("could not write json %s: %w", path, err)
	}
	return nil
}

func formatCell(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return "-"
	case float64:
		return fmt.Sprintf("%.4f", v)
	case string:
		return strings.ReplaceAll(v, "|", `\|`)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Markdown renders df as a GitHub flavored markdown table
func Markdown(df *dataframe.DataFrame) string {
	header := make([]string, len(df.Series))
	for idx, series := range df.Series {
		header[idx] = series.Name()
	}

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")

	nrows := df.NRows()
	for row := 0; row < nrows; row++ {
		cells := make([]string, len(df.Series))
		for idx, series := range df.Series {
			cells[idx] = formatCell(cellValue(series, row))
		}
		table.Append(cells)
	}

	table.Render()
	return s.String()
}

// HTML renders df as a standalone HTML document titled title
func HTML(df *dataframe.DataFrame, title string) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(df)), &body); err != nil {
		return nil, err
	}

	return []byte(fmt.Sprintf(htmlTemplate, html.EscapeString(title), body.String())), nil
}

func encodeHTML(_ context.Context, path string, df *dataframe.DataFrame) error {
	title := strings.TrimSuffix(filepath.Base(path), KindHTML.Ext())
	doc, err := HTML(df, title)
	if err != nil {
		return fmt.Errorf("could not render html: %w", err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("could not write html %s: %w", path, err)
	}
	return nil
}
