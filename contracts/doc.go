// Package contracts defines the message types and interfaces for the courier
// in-process messenger.
//
// This package defines the shapes a message can take:
//   - Message: base interface; the concrete type is the dispatch key
//   - Request: carries a single-assignment reply slot for one response
//   - CollectionRequest: aggregates ordered responses from all handlers
//
// Concrete message types embed BaseMessage, BaseRequest, or
// BaseCollectionRequest and add their own payload fields.
package contracts
