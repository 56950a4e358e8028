package services

import "errors"

// Service-level error taxonomy. Controllers map these onto HTTP codes:
// validation 400, not found 404, permission 403, the rest business errors.
var (
	ErrValidation    = errors.New("invalid request")
	ErrNotFound      = errors.New("record not found")
	ErrPermission    = errors.New("operation not permitted for this user")
	ErrFileNotFound  = errors.New("local file not found")
	ErrNothingToSync = errors.New("no local or cloud file to sync")
	ErrNotApproved   = errors.New("degree is not approved")
)
