package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const callerEnvKey = "ARTX_AGENT"

// callerID resolves the identity the command acts as.
func callerID(opts *globalOptions) (string, error) {
	if value := strings.TrimSpace(opts.caller); value != "" {
		return value, nil
	}
	if value := strings.TrimSpace(os.Getenv(callerEnvKey)); value != "" {
		return value, nil
	}
	return "", errors.New("caller identity is required (use --as or " + callerEnvKey + ")")
}

func parseSlot(value string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid collection slot %q", value)
	}
	return slot, nil
}

func parsePositiveInt64(value string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive integer, got %q", value)
	}
	return n, nil
}
