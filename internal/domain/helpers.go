package domain

import (
	"errors"
	"strings"
)

var (
	ErrMissingAssetIndex = errors.New("version manifest has no asset index")
	ErrUnsupportedOS     = errors.New("unsupported operating system")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrAmbiguous         = errors.New("matches more than one instance")
	ErrNotAuthenticated  = errors.New("not authenticated, run `sml auth` first")
)

// ShortID is the 8 character prefix used to address an instance.
func ShortID(uuid string) string {
	if len(uuid) > 8 {
		return uuid[:8]
	}
	return uuid
}

func SanitizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}
