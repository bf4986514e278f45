package strategies

import (
	"embed"
	"fmt"
	"io"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvdogs/strategies/dogs"
	"github.com/penny-vault/pvdogs/strategies/strategy"
	"github.com/rs/zerolog/log"
)

//go:embed **/*.md **/*.toml
var resources embed.FS

var StrategyList = []*strategy.StrategyInfo{}

var StrategyMap = make(map[string]*strategy.StrategyInfo)

// InitializeStrategyMap registers every strategy shipped with the binary
func InitializeStrategyMap() {
	StrategyList = []*strategy.StrategyInfo{}
	StrategyMap = make(map[string]*strategy.StrategyInfo)

	Register("dogs", dogs.New)

	sort.Slice(StrategyList, func(i, j int) bool {
		return StrategyList[i].Shortcode < StrategyList[j].Shortcode
	})
}

func readResource(fn string) ([]byte, error) {
	file, err := resources.Open(fn)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// Register loads the metadata of strategyPkg (strategy.toml and description.md) and
// associates it with factory
func Register(strategyPkg string, factory strategy.StrategyFactory) {
	subLog := log.With().Str("Strategy", strategyPkg).Logger()

	// read description
	fn := fmt.Sprintf("%s/description.md", strategyPkg)
	doc, err := readResource(fn)
	if err != nil {
		subLog.Error().Err(err).Str("File", fn).Msg("failed to read file")
	}
	longDescription := string(doc)

	// load config file
	fn = fmt.Sprintf("%s/strategy.toml", strategyPkg)
	doc, err = readResource(fn)
	if err != nil {
		subLog.Error().Err(err).Str("File", fn).Msg("failed to read file")
		return
	}

	var strat strategy.StrategyInfo
	if err := toml.Unmarshal(doc, &strat); err != nil {
		subLog.Error().Err(err).Str("File", fn).Msg("failed to parse toml file")
		return
	}

	strat.LongDescription = longDescription
	strat.Factory = factory

	StrategyList = append(StrategyList, &strat)
	StrategyMap[strat.Shortcode] = &strat
}
