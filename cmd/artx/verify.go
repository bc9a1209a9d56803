package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/models"
	"artx/internal/service"
)

func newVerifyCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recheck stored assets and agent records for tampering or corruption",
	}

	cmd.AddCommand(
		newVerifyTargetCmd(cfg, global, models.VerifyTargetAsset, func(ctx context.Context, repo *service.Repository, id string) models.VerificationResult {
			return repo.VerifyAsset(ctx, id)
		}),
		newVerifyTargetCmd(cfg, global, models.VerifyTargetAgent, func(ctx context.Context, repo *service.Repository, id string) models.VerificationResult {
			return repo.VerifyAgent(ctx, id)
		}),
		newVerifyAllCmd(cfg, global),
	)
	return cmd
}

type verifyFunc func(ctx context.Context, repo *service.Repository, id string) models.VerificationResult

func newVerifyTargetCmd(cfg *config.Config, global *globalOptions, target models.VerificationTarget, verify verifyFunc) *cobra.Command {
	return &cobra.Command{
		Use:   string(target) + " <id> [<id>...]",
		Short: "Verify individual " + string(target) + " records",
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cfg, func(repo *service.Repository) error {
				results := make([]models.VerificationResult, 0, len(args))
				failed := 0
				for _, id := range args {
					res := verify(cmd.Context(), repo, id)
					if !res.Verified {
						failed++
					}
					results = append(results, res)
				}
				if err := writeVerification(global, results); err != nil {
					return err
				}
				return verificationError(failed, len(results))
			})
		},
	}
}

func newVerifyAllCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Verify every asset and agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cfg, func(repo *service.Repository) error {
				report, err := repo.Verifier.VerifyAll(cmd.Context())
				if err != nil {
					return err
				}
				if global.structured() {
					if err := writeJSON(report); err != nil {
						return err
					}
				} else {
					if err := writeVerificationResults(report.Failures); err != nil {
						return err
					}
					if err := writePlain("checked %d, verified %d, failed %d\n", report.Checked, report.Verified, report.Failed); err != nil {
						return err
					}
				}
				return verificationError(report.Failed, report.Checked)
			})
		},
	}
}

func writeVerification(global *globalOptions, results []models.VerificationResult) error {
	if global.structured() {
		if len(results) == 1 {
			return writeJSON(results[0])
		}
		return writeJSON(results)
	}
	return writeVerificationResults(results)
}

func verificationError(failed, checked int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("verification failed for %d of %d records", failed, checked)
}
