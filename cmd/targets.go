package cmd

import (
	"fmt"

	"filekeeper/internal/model"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type targetView struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Mode   string `yaml:"mode"`
	UID    *int   `yaml:"uid,omitempty"`
	GID    *int   `yaml:"gid,omitempty"`
}

func newTargetView(t model.WatchTarget) targetView {
	v := targetView{
		Name:   t.Name,
		Source: t.SourcePath,
		Target: t.TargetPath,
		Mode:   fmt.Sprintf("%04o", uint32(t.Mode)),
	}
	if t.UID >= 0 {
		v.UID = new(t.UID)
	}
	if t.GID >= 0 {
		v.GID = new(t.GID)
	}
	return v
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Validate and print the configured targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := cfg.WatchTargets()
		if err != nil {
			return err
		}

		views := make([]targetView, 0, len(targets))
		for _, t := range targets {
			views = append(views, newTargetView(t))
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer func(enc *yaml.Encoder) {
			_ = enc.Close()
		}(enc)

		return enc.Encode(map[string]any{"targets": views})
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
