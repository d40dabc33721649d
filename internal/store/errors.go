package store

import "errors"

var (
	ErrEmptyContent      = errors.New("message content is empty")
	ErrContentTooLong    = errors.New("message content exceeds the allowed length")
	ErrNotMessageAuthor  = errors.New("only the message author may modify it")
	ErrEditWindowExpired = errors.New("edit window has expired")
	ErrMessageWithdrawn  = errors.New("message has been withdrawn")
	ErrMessageNotFound   = errors.New("message not found")
)
