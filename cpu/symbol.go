package cpu

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// SymbolTable maps labels to absolute addresses.
type SymbolTable struct {
	label map[string]uint16
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{label: make(map[string]uint16, 16)}
}

// Define binds a label to an address. Labels may only be defined once.
func (st *SymbolTable) Define(label string, addr uint16) (err error) {
	if st.label == nil {
		st.label = make(map[string]uint16, 16)
	}

	_, ok := st.label[label]
	if ok {
		err = ErrLabelDuplicate
		return
	}

	st.label[label] = addr
	return
}

// Lookup returns the address of a label.
func (st *SymbolTable) Lookup(label string) (addr uint16, ok bool) {
	addr, ok = st.label[label]
	return
}

// Len is the number of labels defined.
func (st *SymbolTable) Len() int {
	return len(st.label)
}

// All iterates over the labels ordered by address, then by name.
func (st *SymbolTable) All() iter.Seq2[string, uint16] {
	names := slices.SortedFunc(maps.Keys(st.label), func(a, b string) int {
		return cmp.Or(cmp.Compare(st.label[a], st.label[b]), cmp.Compare(a, b))
	})

	return func(yield func(string, uint16) bool) {
		for _, name := range names {
			if !yield(name, st.label[name]) {
				return
			}
		}
	}
}

// Label returns the first label, by name, bound to an address.
func (st *SymbolTable) Label(addr uint16) (label string, ok bool) {
	for name, value := range st.All() {
		if value == addr {
			return name, true
		}
	}
	return
}
