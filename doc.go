// Package rx provides push-based reactive streams for Go.
//
// An [Observable] is a sequence that pushes values to an [Observer]:
// zero or more OnNext calls followed by at most one OnComplete or
// OnError. Subscribing returns a [Subscription] that cancels the whole
// pipeline instance and exposes its lifecycle; each Subscribe call runs
// the chain with fresh operator state. Unless a scheduler is involved,
// everything is synchronous on the subscriber's goroutine.
//
// # Building Pipelines
//
// Sources come from [FromSlice], [Just], [Range], [FromChan],
// [Interval], [Defer], [Create], and friends. Type-preserving operators
// chain fluently through [Binder]:
//
//	evens, err := rx.From(rx.Range(0, 10)).
//	    Where(func(v int) bool { return v%2 == 0 }).
//	    Take(3).
//	    ToSlice(ctx)
//
// Operators that change the element type are free functions, because a
// Go method cannot introduce new type parameters: [Select],
// [SelectMany], [GroupBy], [Zip], [CombineLatest], [Scan], [Reduce],
// [Buffer]. Re-enter the fluent chain with [From].
//
// # Filtering and Distinctness
//
//   - [Where], [Take], [Skip], [TakeWhile], [SkipWhile]: positional and
//     predicate filtering. Take cancels upstream once satisfied.
//   - [DistinctUntilChanged] / [DistinctUntilChangedFunc]: suppress
//     consecutive duplicates, remembering only the last forwarded value.
//   - [Distinct]: forward each value once per subscription.
//
// # Combining
//
// [Merge] interleaves streams, [Zip] pairs them by arrival index,
// [CombineLatest] combines the freshest value of each side, [Race]
// mirrors whichever source emits first, and [MergeAll] flattens a
// stream of streams ([SelectManyLimit] bounds how many run at once).
//
// # Grouping
//
// [GroupBy] demultiplexes a stream into keyed sub-streams delivered as
// [GroupedObservable] values. The group is announced downstream before
// its first value is routed, and a key never announces twice.
//
// # Schedulers
//
// Time and threading live in [github.com/reactkit/rx/sched]. [Delay],
// [Debounce], and [LimitWindow] take a scheduler for their clocks;
// [ObserveOn]
// marshals delivery onto one through an ordered queue (bounded via
// [WithQueueCapacity] and [WithDropOldest]); [SubscribeOn] moves the
// subscription itself. The sched package provides immediate,
// trampoline, event-loop, worker-pool, and virtual-time
// implementations.
//
// # Subjects
//
// [Subject] multicasts pushed values to every current subscriber;
// [ReplaySubject] replays a bounded tail to late ones. Both report
// delivery counters via [SubjectStats].
//
// # Error Handling
//
// User callbacks fail by returning an error or by panicking; either way
// the operator converts the fault into the pipeline's error signal,
// wrapped in an [*OpError] naming the operator, with panics captured as
// [*PanicError] including the stack. Inspect chains with [OpOf],
// [CauseOf], and [IsPanic]. [Catch], [OnErrorReturn], [Retry], and
// [BackoffRetry] turn error signals back into flowing streams.
//
// Subscription teardowns run LIFO on every exit path; if one panics,
// the rest still run and the first panic is re-raised afterwards.
//
// # Blocking Collectors
//
// [ToSlice], [ForEach], [First], and [Count] subscribe and block until
// the stream terminates or the context is canceled; ToSlice and Count
// return partial results alongside any error, following [io.Reader]
// conventions. [ToChan] bridges a stream into channels.
package rx
