package commands

import (
	"github.com/natterlabs/natter/src/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var _config = config.NewDefaultConfig()

// RootCmd is the root command for natter.
var RootCmd = &cobra.Command{
	Use:              "natter",
	Short:            "natter gossiping node",
	TraverseChildren: true,
}

// bindFlagsLoadViper binds the command's flags and environment variables
// (NATTER_*) into viper and unmarshals the result into the config object.
func bindFlagsLoadViper(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	viper.SetEnvPrefix("NATTER")
	viper.AutomaticEnv()

	return viper.Unmarshal(_config)
}
