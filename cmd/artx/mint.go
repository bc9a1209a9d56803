package main

import (
	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/service"
)

func newMintCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	var editions int

	cmd := &cobra.Command{
		Use:   "mint <xid>",
		Short: "Mint an asset into a limited-edition token",
		Args:  requireXIDs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := callerID(global)
			if err != nil {
				return err
			}
			return withRepository(cfg, func(repo *service.Repository) error {
				asset, err := repo.MintAsset(cmd.Context(), args[0], caller, editions)
				if err != nil {
					return err
				}
				if global.structured() {
					return writeJSON(asset)
				}
				return writePlain("%s minted with %d editions\n", asset.XID, asset.Mint.Editions)
			})
		},
	}

	cmd.Flags().IntVarP(&editions, "editions", "n", 1, "number of editions")
	return cmd
}
