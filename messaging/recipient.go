package messaging

import (
	"weak"
)

// Policy selects how a messenger holds on to its recipients. It is fixed when
// the messenger is constructed; both policies share the same registry and
// dispatch machinery.
type Policy int

const (
	// StrongRecipients keeps every registered recipient alive until it is
	// explicitly unregistered.
	StrongRecipients Policy = iota
	// WeakRecipients never keeps a recipient alive. Once nothing else
	// references the recipient its registrations go dead and are purged on a
	// later registry pass.
	WeakRecipients
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case StrongRecipients:
		return "strong"
	case WeakRecipients:
		return "weak"
	default:
		return "unknown"
	}
}

// RecipientRef tracks one subscriber under one lifecycle policy.
type RecipientRef interface {
	// Key returns a stable comparable identity for the recipient. The key
	// never keeps the recipient alive, and two refs to the same recipient
	// always produce equal keys.
	Key() any

	// Alive reports whether the recipient can still receive dispatch. Safe to
	// call after the recipient has been collected.
	Alive() bool

	// Value resolves the recipient. ok is false once the recipient is dead.
	Value() (recipient any, ok bool)
}

type strongRef struct {
	recipient any
}

// NewStrongRef wraps a recipient under direct ownership. The recipient value
// must be comparable; registered recipients are pointers, which always are.
func NewStrongRef(recipient any) RecipientRef {
	return strongRef{recipient: recipient}
}

func (r strongRef) Key() any { return r.recipient }

func (r strongRef) Alive() bool { return true }

func (r strongRef) Value() (any, bool) { return r.recipient, true }

type weakRef[R any] struct {
	ptr weak.Pointer[R]
}

// NewWeakRef wraps a recipient behind a runtime weak pointer. The registry
// holding the ref does not keep the recipient reachable; Alive flips to false
// once the garbage collector reclaims it.
func NewWeakRef[R any](recipient *R) RecipientRef {
	return weakRef[R]{ptr: weak.Make(recipient)}
}

// Key returns the weak pointer itself: weak pointers to the same object
// compare equal, and holding one does not extend the recipient's lifetime.
func (r weakRef[R]) Key() any { return r.ptr }

func (r weakRef[R]) Alive() bool { return r.ptr.Value() != nil }

func (r weakRef[R]) Value() (any, bool) {
	v := r.ptr.Value()
	if v == nil {
		return nil, false
	}
	return v, true
}
