package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"jabber-relay/internal"
)

// runConfig prints the effective configuration. Secrets are masked; the
// point is spotting a missing connect target or a routing mistake, not
// leaking credentials into a terminal scrollback.
func runConfig(cfg internal.Config) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Setting", "Value"})

	rows := [][]string{
		{"domain", cfg.Domain},
		{"host", cfg.Host},
		{"port", cfg.Port},
		{"acceptAllCerts", fmt.Sprintf("%t", cfg.AcceptAllCerts)},
		{"username", cfg.Username},
		{"password", mask(cfg.Password)},
		{"nickname", cfg.EffectiveNickname()},
		{"defaultRoom", cfg.DefaultRoom},
		{"useProjectRooms", fmt.Sprintf("%t", cfg.UseProjectRooms)},
		{"projectRooms", formatProjectRooms(cfg.ProjectRooms)},
		{"postPersonalRepos", fmt.Sprintf("%t", cfg.PostPersonalRepos)},
		{"postBranches", fmt.Sprintf("%t", cfg.PostBranches)},
		{"postTags", fmt.Sprintf("%t", cfg.PostTags)},
		{"canonicalUrl", cfg.CanonicalURL},
		{"shortCommitIdLength", fmt.Sprintf("%d", cfg.ShortIDLength)},
		{"maxCommitsShown", fmt.Sprintf("%d", cfg.MaxCommitsShown)},
		{"deliveryWorkers", fmt.Sprintf("%d", cfg.DeliveryWorkers)},
		{"deliveryQueueSize", fmt.Sprintf("%d", cfg.DeliveryQueueSize)},
		{"drainTimeout", cfg.DrainTimeout.String()},
		{"logLevel", cfg.LogLevel},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

func formatProjectRooms(rooms map[string]string) string {
	if len(rooms) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(rooms))
	for repo, room := range rooms {
		pairs = append(pairs, repo+" -> "+room)
	}
	return strings.Join(pairs, "\n")
}
