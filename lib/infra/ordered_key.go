package infra

import "cmp"

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
// If future releases of Go add new predeclared unsigned integer types,
// this constraint will be modified to include them.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint that permits any integer type.
// If future releases of Go add new predeclared integer types,
// this constraint will be modified to include them.
type Integer interface {
	Signed | Unsigned
}

// Float is a constraint that permits any floating-point type.
// If future releases of Go add new predeclared floating-point types,
// this constraint will be modified to include them.
type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// Comparator performs a three-way comparison.
// Assume i is the new value.
//  1. i == j (return 0)
//  2. i > j (return 1), turn to right part.
//  3. i < j (return -1), turn to left part.
//
// Equality decisions of the ordered sets are made by a zero result only,
// never by identity.
type Comparator[T any] func(i, j T) int

// OrderedKeyComparator returns the natural ascending comparator.
// NaN sorts before every other float and equals itself.
func OrderedKeyComparator[K OrderedKey]() Comparator[K] {
	return func(i, j K) int {
		return cmp.Compare(i, j)
	}
}

// ReverseComparator flips the order of c.
func ReverseComparator[T any](c Comparator[T]) Comparator[T] {
	return func(i, j T) int {
		return c(j, i)
	}
}
