// Package clock abstracts the passage of time so that idle timeouts and
// token expiry can be tested without sleeping.
//
// Production code takes a Clock and is given Real(). Tests use Fake(t0),
// which only moves when Advance is called:
//
//	fc := clock.Fake(time.Unix(1_700_000_000, 0))
//	go watcher(fc)                  // registers a ticker
//	fc.WaitForTimers(1)             // wait until it has
//	fc.Advance(time.Minute)         // fire it deterministically
package clock
