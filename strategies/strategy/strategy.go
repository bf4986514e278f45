package strategy

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvdogs/data"
	"github.com/rocketlaunchr/dataframe-go"
)

type StrategyFactory func(records []*data.StockRecord, args map[string]json.RawMessage) (Strategy, error)

type Argument struct {
	Name        string   `json:"name" toml:"name"`
	Description string   `json:"description" toml:"description"`
	Typecode    string   `json:"typecode" toml:"typecode"`
	Default     string   `json:"default" toml:"default"`
	Advanced    bool     `json:"advanced" toml:"advanced"`
	Options     []string `json:"options" toml:"options"`
}

type StrategyInfo struct {
	Name            string              `json:"name" toml:"name"`
	Shortcode       string              `json:"shortcode" toml:"shortcode"`
	Description     string              `json:"description" toml:"description"`
	LongDescription string              `json:"longDescription" toml:"-"`
	Source          string              `json:"source" toml:"source"`
	Version         string              `json:"version" toml:"version"`
	Arguments       map[string]Argument `json:"arguments" toml:"arguments"`
	Factory         StrategyFactory     `json:"-" toml:"-"`
}

// DefaultArguments returns the default value of every argument as raw JSON. String
// arguments are quoted; all other defaults are expected to already be JSON.
func (info *StrategyInfo) DefaultArguments() map[string]json.RawMessage {
	args := make(map[string]json.RawMessage, len(info.Arguments))
	for k, v := range info.Arguments {
		if v.Typecode == "string" {
			quoted, _ := json.Marshal(v.Default)
			args[k] = quoted
			continue
		}
		args[k] = json.RawMessage(v.Default)
	}
	return args
}

// Fallback records a figure that was not found under its expected label and was taken
// from a fixed position instead
type Fallback struct {
	Name   string `json:"name"`
	ISIN   string `json:"isin"`
	Field  string `json:"field"`
	Wanted string `json:"wanted"`
	Used   string `json:"used"`
}

// Result is the outcome of a strategy computation
type Result struct {
	// Ranking is the ranked table in the order it should be presented
	Ranking   *dataframe.DataFrame
	Fallbacks []Fallback
}

type Strategy interface {
	Compute(ctx context.Context, estimateYear int) (*Result, error)
}
