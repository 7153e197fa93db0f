package dbobj

import "errors"

var (
	ErrKeyAlreadyExists = errors.New("key already exists")
	ErrKeyNotFound      = errors.New("key not found")
	ErrNoRowsAffected   = errors.New("no rows affected")
	ErrMissingKey       = errors.New("object has no key value")
	ErrNoKeyField       = errors.New("table definition has no key field")
)
