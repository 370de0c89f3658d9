package dto

import (
	"errors"
)

var (
	ErrNotFound         = errors.New("errRecordNotFound")
	ErrDuplicateMessage = errors.New("errDuplicateMessage")
	ErrJournalDisabled  = errors.New("errJournalDisabled")
)
