package list

import "sync/atomic"

const (
	nodeHeadMarked uint32 = 1 << iota
	nodeDeadMarked
)

// Store the concurrent state of a set node.
type flagBits struct {
	bits uint32
}

// Bit flag set from 0 to 1.
func (f *flagBits) atomicSet(bits uint32) {
	for {
		old := atomic.LoadUint32(&f.bits)
		if old&bits == bits {
			return
		}
		if atomic.CompareAndSwapUint32(&f.bits, old, old|bits) {
			return
		}
	}
}

func (f *flagBits) atomicIsSet(bit uint32) bool {
	return (atomic.LoadUint32(&f.bits) & bit) != 0
}
