package utils

import "errors"

var (
	ErrAdminIDNotFound = errors.New("authentication required: admin ID not found")
	ErrUnauthorized    = errors.New("unauthorized access")
)
