package commands

import (
	"github.com/spf13/cobra"

	"github.com/zialiel/zialiel/src/config"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for Zialiel
var RootCmd = &cobra.Command{
	Use:              "zialiel",
	Short:            "zialiel ledger",
	TraverseChildren: true,
}
