package errors

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")

	ErrTokenNotFound = errors.New("reset token not found or expired")
)
