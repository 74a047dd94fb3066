// Package courier is an in-process publish/subscribe messenger. Components
// register interest in typed messages, optionally scoped to a channel token,
// and a sender broadcasts a message instance to all matching registrants
// without either side holding a direct reference to the other. A request
// variant routes a message to handlers until exactly one writes a
// single-assignment reply slot; a collection variant aggregates ordered
// responses from every handler.
//
// Messages are plain structs embedding contracts.BaseMessage (or BaseRequest
// / BaseCollectionRequest for the request shapes); the concrete type is the
// dispatch key:
//
//	type UserRenamed struct {
//		contracts.BaseMessage
//		NewName string
//	}
//
//	m := courier.NewStrongReferenceMessenger()
//	courier.Register(m, inbox, func(ctx context.Context, r *Inbox, msg *UserRenamed) error {
//		r.Names = append(r.Names, msg.NewName)
//		return nil
//	})
//	err := m.Send(ctx, &UserRenamed{BaseMessage: contracts.NewBaseMessage("UserRenamed"), NewName: "ada"})
//
// A weak-reference messenger never keeps its recipients alive; registrations
// whose recipient has been garbage collected stop receiving dispatch and are
// purged lazily. Dispatch always happens on the sender's goroutine, in
// registration order, outside the registry lock, so handlers may register and
// unregister freely during their own invocation.
//
// The messenger is purely in-process: no delivery guarantees across process
// restarts, no persistence, no cross-process transport.
package courier
