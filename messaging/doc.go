// Package messaging implements the registry and dispatch engine behind a
// courier messenger.
//
// The Registry maps (message type, channel token) to an ordered list of
// (recipient, handler) registrations, serialized by a single mutex per
// registry. The Dispatcher resolves a send into a point-in-time snapshot of
// that list and invokes the handlers outside the lock, which is what lets a
// handler register or unregister during its own invocation.
//
// Recipient lifecycle is a per-messenger policy: StrongRecipients holds
// subscribers until they unregister, WeakRecipients tracks them through
// runtime weak pointers and lazily purges registrations whose subscriber has
// been collected.
//
// Most callers use the root courier package, which layers typed generic
// helpers over these pieces.
package messaging
