// Package server provides HTTP routing, middleware, sessions and the server lifecycle for the web app.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so a
// wrong method answers 405 and wildcards are read with PathValue.
//
// # Middleware
//
// [Logging] tags each request with an id and logs its outcome. [Recovery]
// turns panics into 500 responses. [SessionManager.Middleware] loads the
// visitor's session from its cookie, hands it to the handler through the
// request context and saves it afterwards when it changed.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Lifecycle
//
// [Server.Run] serves until its context is canceled, then drains in-flight
// requests for up to [ShutdownTimeout].
package server
