package main

import (
	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/models"
	"artx/internal/service"
)

func newCollectionCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	var deleted bool

	cmd := &cobra.Command{
		Use:   "collection <owner> [<slot>]",
		Short: "List the assets of one collection",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot := 0
			if deleted {
				slot = models.DeletedSlot
			} else if len(args) == 2 {
				parsed, err := parseSlot(args[1])
				if err != nil {
					return err
				}
				slot = parsed
			}
			// Anonymous callers see public tokens only.
			caller, _ := callerID(global)

			return withRepository(cfg, func(repo *service.Repository) error {
				assets, err := repo.GetCollection(cmd.Context(), args[0], slot, caller)
				if err != nil {
					return err
				}
				if global.structured() {
					return writeJSON(assets)
				}
				return writeAssetList(assets)
			})
		},
	}

	cmd.Flags().BoolVar(&deleted, "deleted", false, "list deleted assets (owner only)")
	return cmd
}
