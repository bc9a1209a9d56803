package main

import (
	"errors"

	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/models"
	"artx/internal/service"
)

type editCmdOptions struct {
	title  string
	slot   int
	delete bool
}

func newEditCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	opts := &editCmdOptions{}
	cmd := &cobra.Command{
		Use:   "edit <xid>",
		Short: "Edit an asset's title or collection, or delete it",
		Args:  requireXIDs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, cfg, global, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "new title")
	cmd.Flags().IntVarP(&opts.slot, "collection", "c", 0, "move to collection slot")
	cmd.Flags().BoolVar(&opts.delete, "delete", false, "move the asset to the deleted collection")
	return cmd
}

func runEdit(cmd *cobra.Command, cfg *config.Config, global *globalOptions, opts *editCmdOptions, xid string) error {
	caller, err := callerID(global)
	if err != nil {
		return err
	}
	patch, err := buildAssetPatch(cmd, opts)
	if err != nil {
		return err
	}

	return withRepository(cfg, func(repo *service.Repository) error {
		asset, err := repo.UpdateAsset(cmd.Context(), xid, caller, patch)
		if err != nil {
			return err
		}
		if global.structured() {
			return writeJSON(asset)
		}
		return writePlain("%s\n", formatAssetLine(asset))
	})
}

func buildAssetPatch(cmd *cobra.Command, opts *editCmdOptions) (models.AssetPatch, error) {
	patch := models.AssetPatch{}
	if cmd.Flags().Changed("title") {
		patch.Title = &opts.title
	}
	if opts.delete {
		if cmd.Flags().Changed("collection") {
			return patch, errors.New("--delete and --collection are mutually exclusive")
		}
		slot := models.DeletedSlot
		patch.CollectionSlot = &slot
	} else if cmd.Flags().Changed("collection") {
		patch.CollectionSlot = &opts.slot
	}
	if patch.Empty() {
		return patch, errors.New("no fields to update")
	}
	return patch, nil
}
