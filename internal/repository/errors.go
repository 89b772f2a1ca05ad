package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrDuplicate    = errors.New("record already exists")
	ErrDocumentGone = errors.New("document no longer exists")
	ErrOwnerTaken   = errors.New("user already belongs to an organization")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
