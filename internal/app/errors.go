package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrInactiveUser      = errors.New("inactive user")
	ErrUserNotFound      = errors.New("user not found")
	ErrForbidden         = errors.New("forbidden")

	ErrOrganizationNotFound     = errors.New("organization not found")
	ErrOrganizationExists       = errors.New("organization already exists")
	ErrNoOrganization           = errors.New("you don't belong to an organization, create one first")
	ErrAlreadyInOrganization    = errors.New("user already belongs to an organization")
	ErrOrganizationNameMismatch = errors.New("organization name does not match yours")

	ErrUnsupportedFileType  = errors.New("only PDF and TXT files are allowed")
	ErrFileTooLarge         = errors.New("file too large")
	ErrDocumentExists       = errors.New("file already exists, send confirm=true to replace")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrConfirmationRequired = errors.New("confirmation required, send confirm=true to proceed")

	ErrExtraction                 = errors.New("text extraction failed")
	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUpstream                   = errors.New("upstream service error")
	ErrIngestionInProgress        = errors.New("document ingestion already in progress")
)
