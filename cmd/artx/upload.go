package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/models"
	"artx/internal/service"
)

type uploadCmdOptions struct {
	slot  int
	title string
}

func newUploadCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	opts := &uploadCmdOptions{}
	cmd := &cobra.Command{
		Use:   "upload <file> [<file>...]",
		Short: "Upload image files as new assets",
		Args:  requireAtLeastArgs(1, "at least one file is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, cfg, global, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.slot, "collection", "c", 0, "target collection slot")
	cmd.Flags().StringVar(&opts.title, "title", "", "title for a single uploaded file")
	return cmd
}

func runUpload(cmd *cobra.Command, cfg *config.Config, global *globalOptions, opts *uploadCmdOptions, args []string) error {
	owner, err := callerID(global)
	if err != nil {
		return err
	}
	if opts.title != "" && len(args) > 1 {
		return errors.New("--title applies to a single file; use a collection default title for batches")
	}

	files := make([]service.UploadFile, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, service.UploadFile{Data: data, OriginalName: filepath.Base(path), Title: opts.title})
	}

	return withRepository(cfg, func(repo *service.Repository) error {
		created, err := repo.UploadBatch(cmd.Context(), owner, opts.slot, files)
		if writeErr := writeUploaded(global, created); writeErr != nil {
			return writeErr
		}
		return err
	})
}

func writeUploaded(global *globalOptions, created []models.Asset) error {
	if len(created) == 0 {
		return nil
	}
	if global.structured() {
		return writeJSON(created)
	}
	return writeAssetList(created)
}
