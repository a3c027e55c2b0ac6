package model

import (
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

const DefaultMode os.FileMode = 0600

// WatchTarget pairs a trusted source file with the target it regenerates.
// It is built once at configuration load and never mutated afterwards.
type WatchTarget struct {
	Name       string      `json:"name" yaml:"name"`
	SourcePath string      `json:"source" yaml:"source"`
	TargetPath string      `json:"target" yaml:"target"`
	Mode       os.FileMode `json:"mode" yaml:"mode"`
	UID        int         `json:"uid" yaml:"uid"`
	GID        int         `json:"gid" yaml:"gid"`
}

// NewWatchTarget validates and normalizes a target definition. A uid or gid
// of -1 leaves that part of the ownership untouched.
func NewWatchTarget(name, source, target string, mode os.FileMode, uid, gid int) (WatchTarget, error) {
	if source == "" || target == "" {
		return WatchTarget{}, zerr.With(zerr.Wrap(ErrPathInvalid, "source and target are required"), "target", name)
	}

	if !filepath.IsAbs(source) {
		return WatchTarget{}, zerr.With(zerr.Wrap(ErrPathInvalid, "source must be an absolute path"), "source", source)
	}

	if !filepath.IsAbs(target) {
		return WatchTarget{}, zerr.With(zerr.Wrap(ErrPathInvalid, "target must be an absolute path"), "target", target)
	}

	source = filepath.Clean(source)
	target = filepath.Clean(target)
	if source == target {
		return WatchTarget{}, zerr.With(zerr.Wrap(ErrPathInvalid, "source and target must be distinct"), "path", source)
	}

	if mode == 0 {
		mode = DefaultMode
	}

	if name == "" {
		name = filepath.Base(target)
	}

	return WatchTarget{
		Name:       name,
		SourcePath: source,
		TargetPath: target,
		Mode:       mode.Perm(),
		UID:        uid,
		GID:        gid,
	}, nil
}

func (t WatchTarget) ChangesOwner() bool {
	return t.UID >= 0 || t.GID >= 0
}
