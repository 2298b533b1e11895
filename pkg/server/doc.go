// Package server exposes an engine over HTTP and WebSocket.
//
// Pointer events arrive as small JSON posts and are fed to the engine's
// interaction state machine. After every change the current frame is pushed
// to all connected WebSocket clients, so any number of rendering surfaces
// can follow one engine.
//
// # Routes
//
//	GET  /healthz                    liveness
//	GET  /metrics                    Prometheus metrics
//	GET  /api/graph                  current frame
//	GET  /api/delta?node=&mode=      delta readout, nothing is applied
//	POST /api/events/hover           {"node", "primary", "secondary"}
//	POST /api/events/hover-end
//	POST /api/events/modifiers       {"primary", "secondary"}
//	POST /api/events/dblclick        {"node", "primary", "secondary"}
//	POST /api/events/drag-start
//	POST /api/toggle                 {"node", "mode"}
//	POST /api/selection              {"ids", "widen"}
//	POST /api/reset
//	POST /api/sessions               save the view, returns the session
//	POST /api/sessions/{id}/restore  restore a saved view
//	GET  /ws                         frame stream
//
// Errors are JSON objects {"code", "error"} with the status derived from
// the error code.
package server
