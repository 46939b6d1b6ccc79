package idom

import (
	stderrors "errors"
	"sync/atomic"
)

// ErrUsage is wrapped by every error raised for misuse of the patch API.
var ErrUsage = stderrors.New("idom: usage error")

// ErrHostTree is wrapped by errors raised when the host tree cannot satisfy
// an operation, such as inserting next to a root that has no parent.
var ErrHostTree = stderrors.New("idom: host tree error")

const defaultKeyAttributeName = "key"

var (
	debug        atomic.Bool
	keyAttribute atomic.Pointer[string]
)

func init() {
	name := defaultKeyAttributeName
	keyAttribute.Store(&name)
}

// SetDebug enables or disables debug assertions for all patches.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// Debug reports whether debug assertions are enabled.
func Debug() bool {
	return debug.Load()
}

// KeyAttributeName returns the attribute imported as a node's key when
// adopting existing markup. An empty name means key import is disabled.
func KeyAttributeName() string {
	return *keyAttribute.Load()
}

// SetKeyAttributeName sets the attribute imported as a node's key. Passing
// an empty name disables key import.
func SetKeyAttributeName(name string) {
	keyAttribute.Store(&name)
}
