package ordered

import (
	"strconv"

	"github.com/google/uuid"
)

// ID identifies an item inside a Collection. An ID is either Remote (assigned
// by the server to a persisted record) or Local (a placeholder minted for a
// record that has not been saved yet). The two spaces never compare equal:
// Remote(7) and Local("7") are different IDs.
//
// The zero ID is not a valid identity.
type ID struct {
	remote int64
	local  string
}

// Remote wraps a server-assigned id.
func Remote(id int64) ID {
	return ID{remote: id}
}

// Local wraps a placeholder token. Tokens must be non-empty.
func Local(token string) ID {
	return ID{local: token}
}

// NewLocal mints a fresh placeholder id.
func NewLocal() ID {
	return Local(uuid.NewString())
}

// IsLocal reports whether the id is a placeholder.
func (id ID) IsLocal() bool {
	return id.local != ""
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return id.local == "" && id.remote == 0
}

// RemoteID returns the server id and true for a Remote id.
func (id ID) RemoteID() (int64, bool) {
	if id.local != "" || id.remote == 0 {
		return 0, false
	}
	return id.remote, true
}

func (id ID) String() string {
	if id.local != "" {
		return "local:" + id.local
	}
	return strconv.FormatInt(id.remote, 10)
}
