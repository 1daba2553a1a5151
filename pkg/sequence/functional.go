// Package sequence wraps iter.Seq with the few chainable helpers the
// simulation needs.
package sequence

import "iter"

type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From iterates data in order. The slice is not copied.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{seq: func(yield func(T) bool) {
		for _, v := range data {
			if !yield(v) {
				return
			}
		}
	}}
}

func (i *Iterator[T]) Seq() iter.Seq[T] { return i.seq }

// Filter keeps the elements for which keep returns true.
func (i *Iterator[T]) Filter(keep func(T) bool) *Iterator[T] {
	return &Iterator[T]{seq: func(yield func(T) bool) {
		for v := range i.seq {
			if keep(v) && !yield(v) {
				return
			}
		}
	}}
}

// Collect drains the iterator into a new slice.
func (i *Iterator[T]) Collect() []T {
	var out []T
	for v := range i.seq {
		out = append(out, v)
	}
	return out
}

// Fold threads acc through fn for every element.
func Fold[T, A any](it *Iterator[T], acc A, fn func(A, T) A) A {
	for v := range it.seq {
		acc = fn(acc, v)
	}
	return acc
}
