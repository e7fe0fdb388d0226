package rx

// Option configures delivery operators such as [ObserveOn].
type Option func(*config)

type config struct {
	queueCap   int
	dropOldest bool
}

func defaultConfig() config {
	return config{}
}

// WithQueueCapacity bounds the delivery queue to n pending values.
// When the queue is full, the incoming value is dropped, or the oldest
// queued value if [WithDropOldest] is also set. Terminal signals are
// never dropped.
//
// The default is an unbounded queue: nothing is ever dropped and memory
// grows with the gap between producer and consumer. A bound trades
// completeness for a fixed footprint, so it is opt-in.
// WithQueueCapacity panics if n <= 0.
func WithQueueCapacity(n int) Option {
	if n <= 0 {
		panic("rx: WithQueueCapacity requires n > 0")
	}
	return func(c *config) {
		c.queueCap = n
	}
}

// WithDropOldest changes the full-queue policy of [WithQueueCapacity] to
// evict the oldest queued value in favor of the incoming one, keeping
// the freshest values at the cost of the oldest.
func WithDropOldest() Option {
	return func(c *config) {
		c.dropOldest = true
	}
}
