package rx

import "context"

// GroupedObservable is one keyed sub-stream produced by [GroupBy]. It
// carries the key that selected it and behaves like a hot stream scoped
// to the parent subscription: values routed to the group before a
// consumer subscribes are not replayed.
type GroupedObservable[K comparable, V any] interface {
	Observable[V]
	Key() K
}

type groupedObservable[K comparable, V any] struct {
	*Subject[V]
	key K
}

func (g *groupedObservable[K, V]) Key() K { return g.key }

// GroupBy demultiplexes the source into keyed sub-streams. The first
// value with a fresh key creates the group and emits it downstream
// before the value is routed into it, so a consumer that subscribes
// inside its group handler sees every value of that group. A key never
// announces a second group.
//
// The parent's terminal signal reaches every open group first and the
// downstream observer second; unsubscribing the parent completes the
// groups and drops the grouping table.
func GroupBy[T any, K comparable](src Observable[T], key func(T) K) Observable[GroupedObservable[K, T]] {
	if src == nil {
		panic("rx: GroupBy requires a non-nil source")
	}
	if key == nil {
		panic("rx: GroupBy requires a non-nil key selector")
	}
	return GroupByValue(src, key, func(v T) (T, error) { return v, nil })
}

// GroupByValue is [GroupBy] with a value selector applied to each
// element before it is routed into its group.
func GroupByValue[T any, K comparable, V any](src Observable[T], key func(T) K, value func(T) (V, error)) Observable[GroupedObservable[K, V]] {
	if src == nil {
		panic("rx: GroupByValue requires a non-nil source")
	}
	if key == nil {
		panic("rx: GroupByValue requires a non-nil key selector")
	}
	if value == nil {
		panic("rx: GroupByValue requires a non-nil value selector")
	}
	return &observable[GroupedObservable[K, V]]{connect: func(ctx context.Context, sub *Subscription, dst Observer[GroupedObservable[K, V]]) {
		groups := make(map[K]*Subject[V])

		fail := func(err error) {
			for _, g := range groups {
				g.Error(err)
			}
			dst.OnError(err)
		}

		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				var k K
				if err := guarded("group_by", func() error {
					k = key(v)
					return nil
				}); err != nil {
					fail(err)
					return
				}

				g, ok := groups[k]
				if !ok {
					g = NewSubject[V]()
					groups[k] = g
					dst.OnNext(&groupedObservable[K, V]{Subject: g, key: k})
				}

				var out V
				if err := guarded("group_by", func() error {
					var err error
					out, err = value(v)
					return err
				}); err != nil {
					fail(err)
					return
				}
				g.Next(out)
			},
			OnComplete: func() {
				for _, g := range groups {
					g.Complete()
				}
				dst.OnComplete()
			},
			OnError: fail,
		})

		sub.AddTeardown(func() {
			for _, g := range groups {
				g.Complete()
			}
			clear(groups)
		})
	}}
}
