package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"filekeeper/internal/model"

	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyTarget string
	historyFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View restore history",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		q.Set("n", strconv.Itoa(historyN))
		if historyTarget != "" {
			q.Set("target", historyTarget)
		}
		if historyFailed {
			q.Set("failed", "true")
		}

		resp, err := http.Get(daemonURL("/history") + "?" + q.Encode())
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("daemon returned %s", resp.Status)
		}

		var histories []model.History
		if err := json.NewDecoder(resp.Body).Decode(&histories); err != nil {
			return err
		}

		if len(histories) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, h := range histories {
			status := "✓"
			if h.Status == model.StatusFailed {
				status = "✗"
			}

			fmt.Printf("%s [%s] %-16s %-9s %-14s %s\n",
				status,
				h.RestoredAt.Format("2006-01-02 15:04:05"),
				h.Target,
				h.Trigger,
				h.Result,
				h.DstPath,
			)
			if h.ErrMsg != "" {
				fmt.Printf("  %s: %s\n", h.ErrKind, h.ErrMsg)
			}
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().StringVar(&historyTarget, "target", "", "only show entries for this target")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show failed restores")
	rootCmd.AddCommand(historyCmd)
}
