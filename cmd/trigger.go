package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"filekeeper/internal/daemon"

	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger [name]",
	Short: "Ask the running daemon to restore a target now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Post(
			daemonURL("/targets/"+url.PathEscape(args[0])+"/restore"),
			"application/json",
			nil)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("unknown target %q", args[0])
		}

		var result daemon.RestoreResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode restore response: %w", err)
		}

		if result.Error != "" {
			return fmt.Errorf("restore of %s failed (%s): %s", result.Target, result.Kind, result.Error)
		}

		fmt.Printf("%s: %s\n", result.Target, result.Result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}
