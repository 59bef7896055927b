package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("database already exists")
	ErrInvalidName   = errors.New("invalid name")
	ErrReservedName  = errors.New("name is reserved")
	ErrUnauthorized  = errors.New("unauthorized")
)
