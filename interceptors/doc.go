// Package interceptors provides a cross-cutting pipeline wrapped around every
// handler invocation of a courier dispatch.
//
// Interceptors are installed on a messenger and run for each (handler,
// message) pair in snapshot order, outermost first:
//
//	m := courier.NewStrongReferenceMessenger(
//		courier.WithInterceptors(
//			interceptors.NewLoggingInterceptor(logger),
//			interceptors.NewFilteringInterceptor(filter, interceptors.SkipSilently),
//		),
//	)
//
// An interceptor error is indistinguishable from a handler error to the
// sender: it aborts the remaining handlers of that send.
package interceptors
