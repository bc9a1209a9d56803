package main

import (
	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/models"
	"artx/internal/service"
)

func newShowCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <xid> [<xid>...]",
		Short: "Show asset details",
		Args:  requireXIDs(1, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cfg, func(repo *service.Repository) error {
				assets := make([]models.Asset, 0, len(args))
				for _, xid := range args {
					asset, err := repo.GetAsset(cmd.Context(), xid)
					if err != nil {
						return err
					}
					assets = append(assets, asset)
				}

				if global.structured() {
					if len(assets) == 1 {
						return writeJSON(assets[0])
					}
					return writeJSON(assets)
				}
				if len(assets) == 1 {
					return writeAssetDetail(assets[0])
				}
				return writeAssetList(assets)
			})
		},
	}

	return cmd
}
