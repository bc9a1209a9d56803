package main

import (
	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/service"
)

func newAgentsCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List all agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cfg, func(repo *service.Repository) error {
				agents, err := repo.ListAgents(cmd.Context())
				if err != nil {
					return err
				}
				if global.structured() {
					return writeJSON(agents)
				}
				return writeAgentList(agents)
			})
		},
	}
}
