// Package saga implements the durable orchestration core: saga
// instances, the append-only step log, deterministic replay, and the
// retry-until-event combinator.
//
// A saga handler is ordinary Go code that calls Do (durable activity
// invocation) and AwaitEvent (bounded wait for an external signal). The
// runner re-executes the handler from the top on every resumption; the
// execution context walks the persisted step log with a cursor, returning
// recorded results for steps already in the log and performing real work
// only past the end of it. This reproduces replay determinism without
// language-level coroutines: as long as the handler is deterministic
// given its input and recorded results, a resumed run reconstructs the
// exact decision sequence of the interrupted one without duplicating
// side effects.
package saga
