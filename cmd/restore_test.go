package cmd

import (
	"bytes"
	"errors"
	"testing"

	"filekeeper/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTargets(t *testing.T) {
	targets := []model.WatchTarget{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	all, err := selectTargets(targets, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := selectTargets(targets, []string{"c", "a", "c"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "a", some[0].Name)
	assert.Equal(t, "c", some[1].Name)

	_, err = selectTargets(targets, []string{"a", "zzz"})
	assert.ErrorContains(t, err, `unknown target "zzz"`)
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, model.RestoreOutcome{
		Target:  model.WatchTarget{Name: "app", TargetPath: "/etc/app.json"},
		Success: true,
	})
	assert.Contains(t, buf.String(), "✓ app")
	assert.Contains(t, buf.String(), "restored")

	buf.Reset()
	printOutcome(&buf, model.RestoreOutcome{
		Target: model.WatchTarget{Name: "app", TargetPath: "/etc/app.json"},
		Kind:   model.KindTargetWriteFailed,
		Err:    errors.New("read-only file system"),
	})
	assert.Contains(t, buf.String(), "✗ app")
	assert.Contains(t, buf.String(), "TARGET_WRITE_FAILED: read-only file system")
}

func TestNewTargetView(t *testing.T) {
	v := newTargetView(model.WatchTarget{Name: "a", SourcePath: "/p/a", TargetPath: "/etc/a", Mode: 0640, UID: -1, GID: 0})
	assert.Equal(t, "0640", v.Mode)
	assert.Nil(t, v.UID)
	require.NotNil(t, v.GID)
	assert.Equal(t, 0, *v.GID)
}
