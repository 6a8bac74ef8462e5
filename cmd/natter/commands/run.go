package commands

import (
	"os"

	"github.com/natterlabs/natter/src/node"
	"github.com/natterlabs/natter/src/net"
	"github.com/natterlabs/natter/src/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRunCmd returns the command that starts a natter node.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runNatter,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNatter(cmd *cobra.Command, args []string) error {
	logger := _config.Logger()

	svc, err := service.New(_config.Service)
	if err != nil {
		logger.Error("Cannot initialize service:", err)
		return err
	}

	// The protocol owns stdin and stdout; logging goes to stderr.
	trans := net.NewStreamTransport(os.Stdin, os.Stdout, logger)

	n := node.NewNode(_config, trans, svc)

	return n.Run()
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds flags to the Run command.
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().StringP("service", "s", _config.Service, "Protocol to run: broadcast, echo, unique-ids")
	cmd.Flags().Duration("gossip-interval", _config.GossipInterval, "Time between gossip ticks")
	cmd.Flags().Int("max-handlers", _config.MaxHandlers, "Max concurrent message handlers")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := bindFlagsLoadViper(cmd); err != nil {
		return err
	}

	_config.Logger().WithFields(logrus.Fields{
		"log":             _config.LogLevel,
		"service":         _config.Service,
		"gossip-interval": _config.GossipInterval,
		"max-handlers":    _config.MaxHandlers,
	}).Debug("RUN")

	return nil
}
