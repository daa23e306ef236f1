/*
Package periodic runs a hook on a fixed interval in a background goroutine.

The hook runs as soon as the task starts, then once per interval:

	task := periodic.New(func(ctx context.Context) {
	    checkSomething(ctx)
	}, periodic.WithInterval(10*time.Second))
	task.Start(ctx)
	defer task.Shutdown()

SetInterval takes effect immediately: the pending wait restarts with the new
interval. Shutdown cancels the context passed to a running hook and returns
once the loop has exited. A panicking hook is logged and the loop continues.
*/
package periodic
