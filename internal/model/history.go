package model

import (
	"time"

	"gorm.io/gorm"
)

type RestoreStatus string

const (
	StatusSuccess RestoreStatus = "SUCCESS"
	StatusFailed  RestoreStatus = "FAILED"
)

type History struct {
	gorm.Model
	Status      RestoreStatus `gorm:"not null"`
	Target      string        `gorm:"not null;index"`
	SrcPath     string        `gorm:"not null"`
	DstPath     string        `gorm:"not null"`
	Trigger     string        `gorm:"not null"`
	Result      string        `gorm:"not null"`
	BytesCopied int64
	Checksum    string
	ErrKind     string
	ErrMsg      string
	RestoredAt  time.Time `gorm:"not null"`
}
