// Package devtools serves a live inspector for a registry and tracker.
//
// The server exposes read-only JSON snapshots and a websocket stream of
// registry events:
//
//	GET /healthz        liveness probe
//	GET /api/registry   registered keys, factories, scopes and tags
//	GET /api/tracker    observer and subscription counts
//	GET /api/events     the most recent registry events
//	GET /ws             live registry events as JSON text frames
//	GET /metrics        Prometheus metrics, when a gatherer is configured
//
// Wire the hub into the registry so it sees every mutation:
//
//	hub := devtools.NewHub(devtools.HubOptions{BufferSize: 256})
//	registry := inject.New(inject.WithHook(hub.Hook()))
//	srv := devtools.NewServer(devtools.Options{Registry: registry, Tracker: tracker, Hub: hub})
//	err := srv.Start(ctx)
package devtools
