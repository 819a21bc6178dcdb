package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrFolderCreation marks a failure to create the destination folder.
	// It is logged and swallowed.
	ErrFolderCreation = errors.New("folder creation fault")
	// ErrMove marks a failed rename. It ends processing of the event.
	ErrMove = errors.New("move fault")
)
