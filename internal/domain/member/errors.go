package member

import "errors"

var ErrProfileNotFound = errors.New("profile not found")
