// Package internal holds iterator helpers shared by the emulator packages.
package internal

import (
	"cmp"
	"iter"
	"slices"
)

// IterSeq2Concat chains key/value iterators in order.
func IterSeq2Concat[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}

// IterSeq2Sorted yields the pairs of seq ordered by key.
// When a key repeats, the last value seen wins.
func IterSeq2Sorted[K cmp.Ordered, V any](seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		values := map[K]V{}
		for key, value := range seq {
			values[key] = value
		}

		keys := make([]K, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		for _, key := range keys {
			if !yield(key, values[key]) {
				return
			}
		}
	}
}
