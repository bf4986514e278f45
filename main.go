package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/penny-vault/pvdogs/cmd"

	"github.com/spf13/viper"
)

func configureViper() {
	// read config file
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/pvdogs/")
	viper.AddConfigPath("$HOME/.config/pvdogs")
	viper.AddConfigPath(".")

	// PVDOGS_PORTAL_BASE_URL overrides portal.base_url and so on
	viper.SetEnvPrefix("PVDOGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}
}

func main() {
	configureViper()
	cmd.Execute()
}
