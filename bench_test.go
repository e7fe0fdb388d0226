package rx

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkPipeline(b *testing.B) {
	sizes := []int{100, 10000, 100000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("Select/Size=%d", size), func(b *testing.B) {
			items := make([]int, size)
			for i := 0; i < size; i++ {
				items[i] = i
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				src := FromSlice(items)
				doubled := Select(src, func(v int) (int, error) {
					return v * 2, nil
				})
				_, _ = ToSlice(context.Background(), doubled)
			}
		})

		b.Run(fmt.Sprintf("Fluent/Size=%d", size), func(b *testing.B) {
			items := make([]int, size)
			for i := 0; i < size; i++ {
				items[i] = i
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = From(FromSlice(items)).
					Where(func(v int) bool { return v%2 == 0 }).
					Take(size / 2).
					ToSlice(context.Background())
			}
		})
	}
}

func BenchmarkFromSlice(b *testing.B) {
	for _, size := range []int{100, 10000, 100000} {
		items := make([]int, size)
		for i := range items {
			items[i] = i
		}
		b.Run(fmt.Sprintf("Size=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = ToSlice(context.Background(), FromSlice(items))
			}
		})
	}
}

func BenchmarkDistinct(b *testing.B) {
	for _, card := range []int{10, 1000} {
		size := 10000
		items := make([]int, size)
		for i := range items {
			items[i] = i % card
		}
		b.Run(fmt.Sprintf("Cardinality=%d", card), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = ToSlice(context.Background(), Distinct(FromSlice(items)))
			}
		})
	}
}

func BenchmarkDistinctUntilChanged(b *testing.B) {
	size := 10000
	items := make([]int, size)
	for i := range items {
		items[i] = i / 10
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ToSlice(context.Background(), DistinctUntilChanged(FromSlice(items)))
	}
}

func BenchmarkReduce(b *testing.B) {
	for _, size := range []int{100, 10000, 100000} {
		items := make([]int, size)
		for i := range items {
			items[i] = i
		}
		b.Run(fmt.Sprintf("Size=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				sum := Reduce(FromSlice(items), 0, func(acc, v int) (int, error) {
					return acc + v, nil
				})
				_, _ = First(ctx, sum)
			}
		})
	}
}

func BenchmarkSelectMany(b *testing.B) {
	sub := []int{1, 2, 3, 4, 5}
	for _, size := range []int{100, 1000} {
		items := make([]int, size)
		for i := range items {
			items[i] = i
		}
		b.Run(fmt.Sprintf("Size=%d/SubSize=5", size), func(b *testing.B) {
			b.ReportAllocs()
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				fm := SelectMany(FromSlice(items), func(int) Observable[int] {
					return FromSlice(sub)
				})
				_, _ = ToSlice(ctx, fm)
			}
		})
	}
}

func BenchmarkSubjectFanout(b *testing.B) {
	for _, subscribers := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("Subscribers=%d", subscribers), func(b *testing.B) {
			ctx := context.Background()
			s := NewSubject[int]()
			for i := 0; i < subscribers; i++ {
				s.Subscribe(ctx, Observer[int]{OnNext: func(int) {}})
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Next(i)
			}
		})
	}
}
