package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"artx/internal/store"
)

func requireAtLeastArgs(min int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < min {
			return errors.New(message)
		}
		return nil
	}
}

func requireExactlyArgs(count int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != count {
			return errors.New(message)
		}
		return nil
	}
}

// requireXIDs rejects malformed asset ids before the repository is opened.
func requireXIDs(min, max int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		switch {
		case len(args) < min && min == 1:
			return errors.New("xid is required")
		case len(args) < min:
			return fmt.Errorf("at least %d xids are required", min)
		case max > 0 && len(args) > max:
			if max == 1 {
				return errors.New("exactly one xid is required")
			}
			return fmt.Errorf("at most %d xids are allowed", max)
		}
		for _, arg := range args {
			if !store.ValidXID(arg) {
				return fmt.Errorf("invalid xid %q", arg)
			}
		}
		return nil
	}
}

func requireAtLeastOneID(cmd *cobra.Command, args []string) error {
	return requireAtLeastArgs(1, "id is required")(cmd, args)
}
