package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/devsync/pkg/models"
	"github.com/sdejongh/devsync/pkg/netaddr"
)

// NewAddressCommand creates the address command
func NewAddressCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Show the address a device should use to reach this computer",
		Long: `Pick the IPv4 address of the active network interface whose route has
the lowest metric, the same address "sync" advertises to a device.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := createLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Close()

			addr, err := netaddr.NewResolver(nil, nil, logger).Resolve(commandContext(cmd))
			if err != nil {
				category := models.CategoryNoActiveInterfaces
				if errors.Is(err, netaddr.ErrNoRoutableInterface) {
					category = models.CategoryNoRoutableInterface
				}
				return &ExitError{Code: 2, Err: fmt.Errorf("%s", category.Message())}
			}

			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, addr.Address)
				return nil
			}
			fmt.Fprintf(out, "Address:   %s\n", addr.Address)
			fmt.Fprintf(out, "Interface: %s (%s)\n", addr.InterfaceName, addr.InterfaceType)
			fmt.Fprintf(out, "Metric:    %d\n", addr.Metric)
			fmt.Fprintf(out, "Listening: port %d for device announcements\n", cfg.Peer.ListenPort)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the address")

	return cmd
}
