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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/penny-vault/pvdogs/observability/opentelemetry"
	"github.com/rocketlaunchr/dataframe-go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)

// Kind is a supported export file format
type Kind int

const (
	KindXLSX Kind = iota
	KindJSON
	KindHTML
)

// DefaultKind is used when no format is configured
const DefaultKind = KindXLSX

type encoder func(ctx context.Context, path string, df *dataframe.DataFrame) error

type format struct {
	ext    string
	encode encoder
}

var formats = map[Kind]format{
	KindXLSX: {ext: ".xlsx", encode: encodeXLSX},
	KindJSON: {ext: ".json", encode: encodeJSON},
	KindHTML: {ext: ".html", encode: encodeHTML},
}

// Ext returns the file extension of the format including the leading dot
func (k Kind) Ext() string {
	if f, ok := formats[k]; ok {
		return f.ext
	}
	return ""
}

func (k Kind) String() string {
	return strings.TrimPrefix(k.Ext(), ".")
}

// SupportedExtensions lists the extensions Export understands
func SupportedExtensions() []string {
	return []string{KindHTML.Ext(), KindJSON.Ext(), KindXLSX.Ext()}
}

func unsupported(what string) error {
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedExportFormat, what, strings.Join(SupportedExtensions(), ", "))
}

// ParseKind converts a format name such as "xlsx" or ".json" into a Kind
func ParseKind(name string) (Kind, error) {
	ext := strings.ToLower(strings.TrimSpace(name))
	if ext == "" {
		return DefaultKind, nil
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for kind, f := range formats {
		if f.ext == ext {
			return kind, nil
		}
	}
	return 0, unsupported(name)
}

// KindFromFilename selects the format by the extension of filename
func KindFromFilename(filename string) (Kind, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return 0, unsupported(filename)
	}
	kind, err := ParseKind(ext)
	if err != nil {
		return 0, unsupported(filename)
	}
	return kind, nil
}

// Sink writes ranking tables into Dir
type Sink struct {
	Dir string
}

// Filename returns the file name used for an export of name in the given format
func Filename(name string, kind Kind) string {
	return name + kind.Ext()
}

// Export writes df to filename inside the sink directory. The format is chosen by the
// file extension. It returns the path of the written file.
func (sink Sink) Export(ctx context.Context, df *dataframe.DataFrame, filename string) (string, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "export.Export")
	defer span.End()

	kind, err := KindFromFilename(filename)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported export format")
		return "", err
	}

	dir := sink.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not create export directory")
		return "", fmt.Errorf("could not create export directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, filename)
	span.SetAttributes(attribute.String("Path", path), attribute.String("Format", kind.String()))

	if err := formats[kind].encode(ctx, path, df); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
		log.Error().Err(err).Str("Path", path).Msg("export failed")
		return "", err
	}

	log.Info().Str("Path", path).Str("Format", kind.String()).Int("NumRows", df.NRows()).Msg("exported ranking")
	return path, nil
}
