package services

import "errors"

// Validation errors
var (
	ErrEmptyUsername      = errors.New("username is required")
	ErrPasswordTooShort   = errors.New("password must be at least 4 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// Conflict errors
var (
	ErrUserAlreadyExists  = errors.New("an account with that username already exists")
	ErrTransactionIDTaken = errors.New("transaction id is already in use")
)

// Lookup and credential errors
var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)
