package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/models"
	"artx/internal/service"
)

func newAgentCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect and edit agent profiles",
	}

	cmd.AddCommand(
		newAgentShowCmd(cfg, global),
		newAgentSaveCmd(cfg, global),
		newAgentRenameCmd(cfg, global),
		newAgentAddCollectionCmd(cfg, global),
		newAgentGrantCmd(cfg, global),
	)
	return cmd
}

func newAgentShowCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "show [<id>]",
		Short: "Show an agent profile (defaults to the caller)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := agentArgOrCaller(global, args)
			if err != nil {
				return err
			}
			return withRepository(cfg, func(repo *service.Repository) error {
				agent, err := repo.GetAgent(cmd.Context(), id, create)
				if err != nil {
					return err
				}
				return writeAgent(global, agent)
			})
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "create the agent with defaults if absent")
	return cmd
}

func newAgentSaveCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <profile.json>",
		Short: "Replace the caller's profile from a JSON document",
		Args:  requireExactlyArgs(1, "profile file is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := callerID(global)
			if err != nil {
				return err
			}
			agent, err := readAgentFile(args[0])
			if err != nil {
				return err
			}
			return withRepository(cfg, func(repo *service.Repository) error {
				saved, err := repo.SaveAgent(cmd.Context(), agent, caller)
				if err != nil {
					return err
				}
				return writeAgent(global, saved)
			})
		},
	}
}

func newAgentRenameCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name>",
		Short: "Change the caller's display name",
		Args:  requireExactlyArgs(1, "name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := callerID(global)
			if err != nil {
				return err
			}
			return withRepository(cfg, func(repo *service.Repository) error {
				agent, err := repo.Agents.Rename(cmd.Context(), caller, caller, args[0])
				if err != nil {
					return err
				}
				return writeAgent(global, agent)
			})
		},
	}
}

func newAgentAddCollectionCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	var defaultTitle string

	cmd := &cobra.Command{
		Use:   "add-collection <name>",
		Short: "Append a collection to the caller's profile",
		Args:  requireExactlyArgs(1, "collection name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := callerID(global)
			if err != nil {
				return err
			}
			return withRepository(cfg, func(repo *service.Repository) error {
				agent, slot, err := repo.Agents.AddCollection(cmd.Context(), caller, caller, args[0], defaultTitle)
				if err != nil {
					return err
				}
				if global.structured() {
					return writeJSON(agent)
				}
				return writePlain("added collection %q at slot %d\n", args[0], slot)
			})
		},
	}

	cmd.Flags().StringVar(&defaultTitle, "default-title", "", "default title template; %N% is replaced by a sequence number")
	return cmd
}

func newAgentGrantCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <id> <amount>",
		Short: "Grant platform credits to an agent",
		Args:  requireExactlyArgs(2, "agent id and amount are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePositiveInt64(args[1])
			if err != nil {
				return err
			}
			return withRepository(cfg, func(repo *service.Repository) error {
				agent, err := repo.Agents.GrantCredits(cmd.Context(), args[0], amount)
				if err != nil {
					return err
				}
				if global.structured() {
					return writeJSON(agent)
				}
				return writePlain("%s now has %d credits\n", agent.ID, agent.Credits)
			})
		},
	}
}

func agentArgOrCaller(global *globalOptions, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return callerID(global)
}

func readAgentFile(path string) (models.Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Agent{}, err
	}
	var agent models.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return models.Agent{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return agent, nil
}

func writeAgent(global *globalOptions, agent models.Agent) error {
	if global.structured() {
		return writeJSON(agent)
	}
	return writeAgentDetail(agent)
}
