package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"artx/internal/format"
	"artx/internal/models"
	"artx/internal/service"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeAssetList(assets []models.Asset) error {
	for _, asset := range assets {
		if err := writePlain("%s\n", formatAssetLine(asset)); err != nil {
			return err
		}
	}
	return nil
}

func writeAssetDetail(asset models.Asset) error {
	lines := []string{
		fmt.Sprintf("xid: %s", asset.XID),
		fmt.Sprintf("kind: %s", asset.Kind),
		fmt.Sprintf("owner: %s", asset.Owner),
		fmt.Sprintf("title: %s", asset.Title),
		fmt.Sprintf("collection: %s", formatSlot(asset.CollectionSlot)),
		fmt.Sprintf("created: %s", formatTime(asset.Created)),
		fmt.Sprintf("updated: %s", formatTime(asset.Updated)),
		fmt.Sprintf("file: %s (%d bytes)", asset.File.RelativePath, asset.File.SizeBytes),
		fmt.Sprintf("address: %s", asset.File.ContentAddress),
		fmt.Sprintf("image: %dx%d %s, %d-bit", asset.Image.Width, asset.Image.Height, asset.Image.Format, asset.Image.ColorDepth),
	}
	if asset.File.OriginalName != "" {
		lines = append(lines, fmt.Sprintf("original_name: %s", asset.File.OriginalName))
	}
	if len(asset.Image.Palette) > 0 {
		lines = append(lines, fmt.Sprintf("palette: %s", strings.Join(asset.Image.Palette, " ")))
	}
	if asset.Mint != nil {
		lines = append(lines,
			fmt.Sprintf("editions: %d", asset.Mint.Editions),
			fmt.Sprintf("minted_at: %s", formatTime(asset.Mint.MintedAt)),
		)
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatAssetLine(asset models.Asset) string {
	marker := "○"
	if asset.IsToken() {
		marker = "◆"
	}
	return fmt.Sprintf("%s %s [%s] - %s", marker, asset.XID, formatSlot(asset.CollectionSlot), asset.Title)
}

func writeAgentDetail(agent models.Agent) error {
	lines := []string{
		fmt.Sprintf("id: %s", agent.ID),
		fmt.Sprintf("name: %s", agent.Name),
		fmt.Sprintf("credits: %d", agent.Credits),
		fmt.Sprintf("created_at: %s", formatTime(agent.CreatedAt)),
		"collections:",
	}
	for i, c := range agent.Collections {
		line := fmt.Sprintf("  %d: %s", i, c.Name)
		if c.DefaultTitle != "" {
			line += fmt.Sprintf(" (default title %q)", c.DefaultTitle)
		}
		lines = append(lines, line)
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeAgentList(agents []models.Agent) error {
	for _, agent := range agents {
		if err := writePlain("%s - %s (%d collections)\n", agent.ID, agent.Name, len(agent.Collections)); err != nil {
			return err
		}
	}
	return nil
}

func writeProfile(profile service.Profile) error {
	lines := []string{fmt.Sprintf("%s - %s", profile.Agent.ID, profile.Agent.Name)}
	for _, c := range profile.Collections {
		lines = append(lines, fmt.Sprintf("  [%d] %s: %d", c.Slot, c.Name, c.Count))
	}
	lines = append(lines, fmt.Sprintf("tokens: %d", len(profile.Tokens)))
	for _, token := range profile.Tokens {
		lines = append(lines, "  "+formatAssetLine(token))
	}
	if len(profile.Deleted) > 0 {
		lines = append(lines, fmt.Sprintf("deleted: %d", len(profile.Deleted)))
		for _, asset := range profile.Deleted {
			lines = append(lines, "  "+formatAssetLine(asset))
		}
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeVerificationResults(results []models.VerificationResult) error {
	for _, res := range results {
		status := "ok"
		if !res.Verified {
			status = "FAILED: " + res.Error
		}
		if err := writePlain("%s %s %s\n", res.Target, res.ID, status); err != nil {
			return err
		}
	}
	return nil
}

func formatSlot(slot int) string {
	if slot == models.DeletedSlot {
		return "deleted"
	}
	return fmt.Sprintf("%d", slot)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
