package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"filekeeper/internal/model"
	"filekeeper/internal/repository"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Targets []model.TargetSnapshot `json:"targets"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		if len(result.Targets) == 0 {
			fmt.Println("no targets watched")
			return nil
		}

		fmt.Printf("%-16s %-13s %-36s %-8s %-9s %-6s %-5s %s\n",
			"TARGET", "STATE", "PATH", "RESTORED", "UNCHANGED", "FAILED", "LOST", "LAST RESTORE")

		for _, snap := range result.Targets {
			lastRestore := "-"
			if snap.LastRestore != nil {
				lastRestore = snap.LastRestore.Format("2006-01-02 15:04:05")
			}

			uptime := time.Since(snap.StartedAt).Round(time.Second)
			fmt.Printf("%-16s %-13s %-36s %-8d %-9d %-6d %-5d %s\n",
				snap.Name, snap.State, snap.Target, snap.Restored, snap.Unchanged, snap.Failed, snap.Lost, lastRestore)
			fmt.Printf("                 source: %s, uptime: %s\n", snap.Source, uptime)
			if snap.LastError != "" {
				fmt.Printf("                 last error: %s\n", snap.LastError)
			}
		}

		printHistoryStats()
		return nil
	},
}

// printHistoryStats is best effort; status works without a history store.
func printHistoryStats() {
	resp, err := http.Get(daemonURL("/history/stats"))
	if err != nil {
		return
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return
	}

	var stats repository.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return
	}

	fmt.Printf("\nhistory: %d restores, %d succeeded, %d failed\n", stats.Total, stats.Success, stats.Failed)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
