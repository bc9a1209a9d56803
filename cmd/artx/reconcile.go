package main

import (
	"time"

	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/service"
)

type reconcileCmdOptions struct {
	apply   bool
	grace   time.Duration
	reindex bool
}

type reconcileOutput struct {
	Sweep   service.SweepResult    `json:"sweep"`
	Reindex *service.ReindexResult `json:"reindex,omitempty"`
}

func newReconcileCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	opts := &reconcileCmdOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Find asset folders left without a metadata record and rebuild the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cfg, func(repo *service.Repository) error {
				return runReconcile(cmd, repo, global, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.apply, "apply", false, "remove orphaned folders (default is a dry run)")
	cmd.Flags().DurationVar(&opts.grace, "grace", service.DefaultOrphanGrace, "ignore folders modified more recently than this")
	cmd.Flags().BoolVar(&opts.reindex, "reindex", false, "rebuild the collection index from asset records")
	return cmd
}

func runReconcile(cmd *cobra.Command, repo *service.Repository, global *globalOptions, opts *reconcileCmdOptions) error {
	out := reconcileOutput{}
	sweep, err := repo.Reconciler.Sweep(cmd.Context(), !opts.apply, opts.grace)
	if err != nil {
		return err
	}
	out.Sweep = sweep

	if opts.reindex {
		res, err := repo.Reconciler.Reindex(cmd.Context())
		if err != nil {
			return err
		}
		out.Reindex = &res
	}

	if global.structured() {
		return writeJSON(out)
	}
	verb, affected := "removed", sweep.DeletedCount
	if sweep.DryRun {
		verb, affected = "would remove", sweep.CandidateCount
	}
	if err := writePlain("orphans in %s: %d found, %s %d (%d bytes), %d failed\n",
		sweep.Root, sweep.CandidateCount, verb, affected, sweep.ReclaimedBytes, sweep.FailedCount); err != nil {
		return err
	}
	for _, xid := range sweep.Candidates {
		if err := writePlain("  %s\n", xid); err != nil {
			return err
		}
	}
	if out.Reindex != nil {
		return writePlain("reindex: scanned %d, appended %d, moved %d, removed %d, skipped %d\n",
			out.Reindex.Scanned, out.Reindex.Appended, out.Reindex.Moved, out.Reindex.Removed, out.Reindex.Skipped)
	}
	return nil
}
