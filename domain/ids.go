package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// LocalIDPrefix marks tasks created by a disconnected client. The view
// layer uses it to render an "unsynced" indicator.
const LocalIDPrefix = "local-"

// NewID returns a server-issued task id: a ULID, so ids sort roughly by
// creation time while remaining collision resistant.
func NewID() string {
	return ulid.Make().String()
}

// NewLocalID returns a client-issued id for a task created while offline.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was issued by a disconnected client and has
// never been acknowledged by the server.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}
