// Package asynckit provides small primitives for bridging and shaping
// asynchronous work: externally settled futures, timeout races, and
// trailing-edge debounce / leading-edge throttle wrappers.
//
// The heavier machinery lives in the subpackages: asynckit/retry for
// backoff retries and asynckit/pool for bounded-concurrency processing.
//
// # Future
//
// Future[T] bridges callback-style completion into value-style code:
//
//	f := asynckit.NewFuture[*Response]()
//	client.Send(req, func(resp *Response, err error) {
//	    if err != nil {
//	        f.Reject(err)
//	        return
//	    }
//	    f.Resolve(resp)
//	})
//	resp, err := f.Wait(ctx)
//
// # Timeout
//
// Timeout races an operation against a deadline without cancelling the
// operation itself; the timer is always released:
//
//	cfg, err := asynckit.Timeout(ctx, 2*time.Second, "load config", loadConfig)
//
// # Debounce and Throttle
//
// Debounce coalesces bursts of calls into one trailing invocation with
// the latest argument; Throttle caps the invocation rate with a leading
// call plus at most one trailing call per interval. Both can be
// silenced deterministically with Cancel before teardown.
package asynckit
