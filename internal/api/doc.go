// Package api provides the HTTP REST API for VentLogic Core.
//
// It exposes the structured contracts the configuration wizard consumes:
// the discovered target list, declared features, the decision matrix,
// and the reconciliation preview/apply endpoints. The engine renders no
// UI; every response is JSON.
//
// # Endpoints
//
// All routes live under /api/v1:
//
//	GET  /health                    — liveness and version
//	GET  /targets                   — current target population
//	GET  /features                  — declared feature descriptors
//	GET  /matrix                    — full decision matrix
//	PUT  /matrix/{target}/{feature} — record one decision (persist only)
//	POST /reconcile/preview         — plan without side effects
//	POST /reconcile/apply           — run a full cycle, return the report
//
// # Lifecycle
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
