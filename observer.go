package rx

// Observer receives the signals of an observable sequence: zero or more
// OnNext calls followed by at most one OnComplete or OnError. Any field
// may be nil, in which case that signal is ignored.
//
// The struct replaces the callback overload sets found in other Rx
// implementations; callers set exactly the fields they care about.
type Observer[T any] struct {
	OnNext     func(T)
	OnComplete func()
	OnError    func(error)
}
