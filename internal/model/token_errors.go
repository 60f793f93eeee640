package model

import "errors"

var (
	ErrTokenExpired        = errors.New("access token expired")
	ErrTokenSubjectMissing = errors.New("access token subject missing")
	ErrTokenMalformed      = errors.New("access token malformed")
)
