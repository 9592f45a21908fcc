// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

/*
Package supervisor runs the control plane's long-lived services under a
suture v4 supervisor tree.

Every background component that must survive a crash lives here: if the
schedule evaluator panics at 3am, suture restarts it and the screens keep
playing. The tree gives Erlang/OTP-style semantics in Go: automatic restart
with backoff, failure isolation between layers, and an orderly shutdown when
the root context ends.

# Layout

Services are grouped into three child supervisors so one subsystem's
instability cannot take down another:

	RootSupervisor ("signage")
	├── StorageSupervisor ("storage-layer")
	│   ├── EventPipelineService (if EVENTS_ENABLED)
	│   └── ScreenshotGCService
	├── ScreensSupervisor ("screens-layer")
	│   ├── WebSocketHubService
	│   ├── RunnerService "offline-scanner"
	│   ├── RunnerService "schedule-evaluator"
	│   └── RunnerService "mood-engine" (if MOOD_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The split means a crash loop in the mood engine never drops screen
connections for longer than the hub's own restart, and event-pipeline
trouble never costs API availability. Each child supervisor counts failures
independently.

# Usage

main.go builds the tree once, adds services into their layers, then serves:

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddStorageService(services.NewScreenshotGCService(shots))
	tree.AddScreenService(services.NewWebSocketHubService(hub))
	tree.AddScreenService(services.NewRunnerService("schedule-evaluator", evaluator))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	// ... signal handling ...
	for err := range errCh {
	    logging.Error().Err(err).Msg("Supervisor tree error")
	}

The Add methods return a suture.ServiceToken; RemoveScreenService accepts one
back for the rare case where a screens-layer service must be detached at
runtime.

# Restart Policy

TreeConfig carries the four knobs suture exposes, applied uniformly to the
root and all three children:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // failures tolerated before backoff
	    FailureDecay:     30.0,             // halving interval for the counter, seconds
	    FailureBackoff:   15 * time.Second, // pause once the threshold trips
	    ShutdownTimeout:  10 * time.Second, // per-service stop grace
	}

Zero values fall back to those defaults (DefaultTreeConfig returns them).
The counter decays continuously, so one crash a minute restarts immediately
forever, while five crashes in quick succession trip a 15 second pause. A
child whose services keep dying eventually fails upward into the root, which
applies the same policy to the child as a unit.

# Service Contract

Everything added to the tree implements suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Serve runs the component and must return promptly once ctx ends. Returning
nil means done-for-good (no restart); any other error means crashed
(restart); suture.ErrDoNotRestart and suture.ErrTerminateSupervisorTree keep
their library meanings. The wrappers in the services subpackage adapt the
control plane's components (Start/Stop pairs, Run(ctx) loops, http.Server)
to this contract.

# Deliberately Unsupervised

DuckDB is an embedded library, not a service; its handle is opened in main
and closed on exit, and a fault there is fatal by design. The embedded NATS
server is owned by the event pipeline: EventPipelineService supervises the
consume loop only, while connection teardown stays on main's shutdown path
so a mid-flight restart cannot permanently tear down the broker.

# Shutdown

Cancelling the context handed to Serve or ServeBackground stops the tree.
Each service gets ShutdownTimeout to return; after that,
UnstoppedServiceReport names the stragglers:

	report, _ := tree.UnstoppedServiceReport()
	for _, entry := range report {
	    logging.Warn().Str("service", entry.Name).Msg("Service did not stop")
	}

A service that shows up there is almost always blocked on I/O without a
deadline or waiting on a channel nobody closes.
*/
package supervisor
