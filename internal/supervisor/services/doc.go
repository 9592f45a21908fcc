// Signage - Multi-Tenant Digital Signage Control Plane
// Copyright 2026 Parkwise
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parkwise/signage

/*
Package services adapts the control plane's components to suture.Service so
the supervisor tree can own their lifecycles.

The components were not written against suture; they expose three different
lifecycle shapes, and each wrapper here translates one of them into the
single contract suture understands:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# The Three Shapes

Start/Stop engines (RunnerService). The offline scanner, the schedule
evaluator and the mood engine all expose Start(ctx) error / Stop() error.
RunnerService starts the engine, parks on ctx, and drains it with Stop when
the supervisor says so. One wrapper, named per instance:

	tree.AddScreenService(services.NewRunnerService("schedule-evaluator", evaluator))
	tree.AddScreenService(services.NewRunnerService("offline-scanner", scanner))

Run loops (EventPipelineService, ScreenshotGCService). The event pipeline
and the screenshot store's GC already block on a context; Serve just
delegates. The pipeline wrapper deliberately does NOT call Close: teardown
of the NATS connection and the embedded broker belongs to main's shutdown
path, because a supervised restart that killed the broker would be a
permanent outage, while a restarted consume loop resumes its durable
JetStream consumer harmlessly.

ListenAndServe (HTTPServerService). *http.Server blocks on ListenAndServe
and is stopped from outside via Shutdown. The wrapper runs the listener in a
goroutine, waits for either a listener error or ctx cancellation, then
shuts down with its own timeout so in-flight requests can drain.

# Restart Semantics

The wrappers map component outcomes onto what suture expects from Serve's
return value:

	nil          done for good, not restarted
	ctx.Err()    clean shutdown after cancellation
	other error  crash; the layer supervisor restarts with backoff

Start and Stop failures come back wrapped ("schedule-evaluator start
failed: ...") so the supervisor log names the culprit without extra fields.
A restarted hub starts empty and screens re-register on reconnect; a
restarted runner re-reads its state from the database. Nothing here assumes
a wrapper runs at most once per process.

# Wiring

main.go constructs the components, wraps them, and files each wrapper into
its tree layer:

	tree.AddStorageService(services.NewEventPipelineService(pipeline))
	tree.AddStorageService(services.NewScreenshotGCService(shots))
	tree.AddScreenService(services.NewWebSocketHubService(hub))
	tree.AddScreenService(services.NewRunnerService("mood-engine", moodEngine))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

See internal/supervisor for the layer layout and restart policy.
*/
package services
