package main

import (
	"log/slog"

	"artx/internal/config"
	"artx/internal/service"
)

func withRepository(cfg *config.Config, fn func(*service.Repository) error) error {
	repo, err := service.Open(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer repo.Close()

	return fn(repo)
}
