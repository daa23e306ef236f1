/*
Package supervisor repairs a lost backend connection in the background.

A Supervisor ticks on a periodic.Task. A tick does nothing while the backend
reports itself connected. Otherwise it closes the stale connection, waits the
reconnect delay, reconnects, probes the backend and stores the probe result as
the new connection state:

	sup := supervisor.New(backend,
	    supervisor.WithInterval(10*time.Second),
	    supervisor.WithLogger(log),
	)
	sup.Start(ctx)
	defer sup.Shutdown()

Failures are logged and retried on the next tick. Nothing is returned to the
callers of the orchestrator, which short-circuit while the backend is down.
*/
package supervisor
