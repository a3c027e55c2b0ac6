package cmd

import (
	"fmt"
	"io"

	"filekeeper/internal/daemon"
	"filekeeper/internal/logger"
	"filekeeper/internal/model"
	"filekeeper/internal/restorer"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [name...]",
	Short: "Restore all or the named targets once and exit",
	RunE:  runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	targets, err := cfg.WatchTargets()
	if err != nil {
		return err
	}

	selected, err := selectTargets(targets, args)
	if err != nil {
		return err
	}

	registry := daemon.NewRegistry(selected, openHistory(cfg.DBPath))
	r := restorer.New()

	failed := 0
	for _, t := range selected {
		outcome := r.Restore(t, model.TriggerManual)
		registry.Report(outcome)
		printOutcome(cmd.OutOrStdout(), outcome)

		if !outcome.Success {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d restores failed", failed, len(selected))
	}

	return nil
}

// selectTargets keeps configuration order. Unknown names are an error.
func selectTargets(targets []model.WatchTarget, names []string) ([]model.WatchTarget, error) {
	if len(names) == 0 {
		return targets, nil
	}

	byName := make(map[string]model.WatchTarget, len(targets))
	for _, t := range targets {
		byName[t.Name] = t
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown target %q", name)
		}
		wanted[name] = true
	}

	selected := make([]model.WatchTarget, 0, len(wanted))
	for _, t := range targets {
		if wanted[t.Name] {
			selected = append(selected, t)
		}
	}

	return selected, nil
}

func printOutcome(w io.Writer, outcome model.RestoreOutcome) {
	status := "✓"
	if !outcome.Success {
		status = "✗"
	}

	_, _ = fmt.Fprintf(w, "%s %-16s %-14s %s\n",
		status, outcome.Target.Name, outcome.Result(), outcome.Target.TargetPath)

	if outcome.Err != nil {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", outcome.Kind, outcome.Err)
	}
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
