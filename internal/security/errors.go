package security

import "errors"

var (
	ErrLocalSecretMissing = errors.New("this side has no secret configured")
	ErrPeerSecretMissing  = errors.New("other side has no secret configured")
	ErrSecretMismatch     = errors.New("secrets differ")
)
