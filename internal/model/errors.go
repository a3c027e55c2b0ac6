package model

import (
	"errors"

	"go.trai.ch/zerr"
)

type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindPathInvalid       ErrorKind = "PATH_INVALID"
	KindSourceReadFailed  ErrorKind = "SOURCE_READ_FAILED"
	KindTargetWriteFailed ErrorKind = "TARGET_WRITE_FAILED"
	KindSubscriptionLost  ErrorKind = "SUBSCRIPTION_LOST"
)

var (
	// ErrPathInvalid is fatal and only ever returned while loading targets.
	ErrPathInvalid = zerr.New("invalid target path")

	ErrSourceReadFailed  = zerr.New("failed to read source")
	ErrTargetWriteFailed = zerr.New("failed to write target")
	ErrSubscriptionLost  = zerr.New("change subscription lost")
)

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPathInvalid):
		return KindPathInvalid
	case errors.Is(err, ErrSourceReadFailed):
		return KindSourceReadFailed
	case errors.Is(err, ErrTargetWriteFailed):
		return KindTargetWriteFailed
	case errors.Is(err, ErrSubscriptionLost):
		return KindSubscriptionLost
	default:
		return KindNone
	}
}
