// Package httpserver provides the local status server run next to the demo
// client: liveness and readiness checks, drain control for load balancers,
// the Prometheus metrics endpoint and optional pprof.
//
// Components contribute routes by implementing RouteRegistrar:
//
//	func (h *MyHandler) RegisterRoutes(r chi.Router) {
//	    r.Get("/sessions", h.handleSessions)
//	}
//
//	srv, _ := httpserver.New(cfg, handler)
//	srv.RunInBackground()
//	defer srv.Shutdown()
package httpserver
