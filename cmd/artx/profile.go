package main

import (
	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/service"
)

func newProfileCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [<id>]",
		Short: "Show an agent's collections, tokens and deleted assets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, _ := callerID(global)
			owner := caller
			if len(args) == 1 {
				owner = args[0]
			}
			if owner == "" {
				return requireAtLeastOneID(cmd, args)
			}

			return withRepository(cfg, func(repo *service.Repository) error {
				profile, err := repo.Collections.Profile(cmd.Context(), owner, caller)
				if err != nil {
					return err
				}
				if global.structured() {
					return writeJSON(profile)
				}
				return writeProfile(profile)
			})
		},
	}
}
