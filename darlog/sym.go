// Interned string type for the strings that repeat across darshan-parser output: module names,
// counter names, and record ids.  A large log mentions POSIX_BYTES_READ once per record but the
// name is the same string every time; interning turns the per-record counter maps into maps on a
// 4-byte pointer-free key.
//
// There is a global, thread-safe store of Sym values.  Casual uses can use StringToSym() to map a
// string to its Sym.  For performance-sensitive uses there are a couple of other options:
//
//  - In multi-threaded situations with a lot of string creation the store can become contended.
//    In this case, use SymCache (see further down) as a thread-local cache.
//
//  - Conversions between string and []byte incur allocations in both directions, in principle.
//    If this becomes a bottleneck, use BytesToSym() and the AllocBytes method of the cache to
//    avoid these conversions both at the caller and within this code.
//
// Facts about Sym:
//
// - Sym is 4 bytes and pointer-free
// - StringToSym("") == 0
// - For a given s, StringToSym(s) == StringToSym(s)
// - For distinct s1 != s2, StringToSym(s1) != StringToSym(s2)
// - Sym itself can NOT be compared with "<" et al
// - However we can compare u1.String() vs u2.String() with "<" et al
// - StringToSym(s).String() is not necessarily the same object as s
// - If u=StringToSym(s) then u.String() === u.String() (same object)

package darlog

import (
	"strings"
	"sync"
)

type Sym uint32

var (
	tableLock   sync.RWMutex
	internTable symtable
	revTable    []string
)

// The zero value of Sym is the empty string

const SymEmpty Sym = 0 // StringToSym("")

func init() {
	internTable = newSymtable()
	revTable = make([]string, 0)
	_ = StringToSym("")
}

// Return the Sym for the string.  This is guaranteed not to retain s.

func StringToSym(s string) Sym {
	u, _ := stringToSymAndString(s)
	return u
}

func BytesToSym(bs []byte) Sym {
	u, _ := bytesToSymAndString(bs)
	return u
}

func (u Sym) String() string {
	tableLock.RLock()
	defer tableLock.RUnlock()
	return revTable[u]
}

func stringToSymAndString(s string) (Sym, string) {
	h := hashString(s)

	tableLock.RLock()
	if probe := internTable.getString(h, s); probe != nil {
		tableLock.RUnlock()
		return probe.sym, probe.name
	}
	tableLock.RUnlock()

	tableLock.Lock()
	defer tableLock.Unlock()

	// Maybe it changed while we were unlocked
	if probe := internTable.getString(h, s); probe != nil {
		return probe.sym, probe.name
	}

	name := strings.Clone(s)
	sym := Sym(len(revTable))
	revTable = append(revTable, name)

	internTable.insert(h, name, sym)
	return sym, name
}

func bytesToSymAndString(bs []byte) (Sym, string) {
	h := hashBytes(bs)

	tableLock.RLock()
	if probe := internTable.getBytes(h, bs); probe != nil {
		tableLock.RUnlock()
		return probe.sym, probe.name
	}
	tableLock.RUnlock()

	tableLock.Lock()
	defer tableLock.Unlock()

	// Maybe it changed while we were unlocked
	if probe := internTable.getBytes(h, bs); probe != nil {
		return probe.sym, probe.name
	}

	name := string(bs)
	sym := Sym(len(revTable))
	revTable = append(revTable, name)

	internTable.insert(h, name, sym)
	return sym, name
}

// An interface for either the caching allocator or the no-op facade.

type SymAllocator interface {
	Alloc(s string) Sym
	AllocBytes(bs []byte) Sym
}

// This is an unsynchronized cache that is a facade for the global Sym store.  Use this in a
// thread-local way if the global store is very contended, eg one cache per parse worker.

type SymCache struct {
	cache symtable
}

func NewSymCache() *SymCache {
	return &SymCache{cache: newSymtable()}
}

func (uc *SymCache) Alloc(s string) Sym {
	h := hashString(s)
	if probe := uc.cache.getString(h, s); probe != nil {
		return probe.sym
	}
	sym, name := stringToSymAndString(s)
	uc.cache.insert(h, name, sym)
	return sym
}

func (uc *SymCache) AllocBytes(bs []byte) Sym {
	h := hashBytes(bs)
	if probe := uc.cache.getBytes(h, bs); probe != nil {
		return probe.sym
	}
	sym, name := bytesToSymAndString(bs)
	uc.cache.insert(h, name, sym)
	return sym
}

// This is just an entry point into the global Sym store, with the same API as the cache above.

type SymFacade struct {
	dummy int
}

func NewSymFacade() *SymFacade {
	return &SymFacade{dummy: 37}
}

func (uf *SymFacade) Alloc(s string) Sym {
	return StringToSym(s)
}

func (uf *SymFacade) AllocBytes(bs []byte) Sym {
	return BytesToSym(bs)
}

// symtable maps a string or []byte to a symnode, treating the two key types as equivalent.  The
// node carries the name and the Sym value of that name.

const (
	inverseLoad     uint32 = 3
	initialCapacity uint32 = 100
)

type symtable struct {
	table     []*symnode
	size      uint32
	divisor   uint32
	remaining uint32
}

type symnode struct {
	hash hashcode
	name string
	sym  Sym
	next *symnode
}

func newSymtable() symtable {
	size := inverseLoad * initialCapacity
	return symtable{
		table:     make([]*symnode, size),
		size:      0,
		divisor:   size,
		remaining: initialCapacity,
	}
}

func (ht *symtable) getString(h hashcode, s string) *symnode {
	slot := uint32(h) % ht.divisor
	probe := ht.table[slot]
	for probe != nil && s != probe.name {
		probe = probe.next
	}
	return probe
}

func (ht *symtable) getBytes(h hashcode, bs []byte) *symnode {
	slot := uint32(h) % ht.divisor
	probe := ht.table[slot]
	for probe != nil {
		name := probe.name
		found := true
		if len(name) != len(bs) {
			found = false
		} else {
			for i := range name {
				if name[i] != bs[i] {
					found = false
					break
				}
			}
		}
		if found {
			break
		}
		probe = probe.next
	}
	return probe
}

func (ht *symtable) insert(h hashcode, name string, sym Sym) {
	ht.maybeRehash()
	ht.remaining--
	ht.size++
	slot := uint32(h) % ht.divisor
	node := &symnode{
		hash: h,
		sym:  sym,
		name: name,
		next: ht.table[slot],
	}
	ht.table[slot] = node
}

func (ht *symtable) maybeRehash() {
	if ht.remaining == 0 {
		newSize := 2 * uint32(len(ht.table))
		newRemaining := uint32(len(ht.table)) / inverseLoad
		newTable := make([]*symnode, newSize)
		for _, l := range ht.table {
			for l != nil {
				p := l
				l = l.next
				slot := uint32(p.hash) % newSize
				p.next = newTable[slot]
				newTable[slot] = p
			}
		}
		ht.table = newTable
		ht.divisor = newSize
		ht.remaining = newRemaining
	}
}

// hashString and hashBytes must return the same values for the same bytes in the same order.

type hashcode uint32

func hashString(s string) hashcode {
	h := uint32(0)
	for i := range s {
		h = (h << 3) ^ uint32(s[i])
	}
	return hashcode(h)
}

func hashBytes(bs []byte) hashcode {
	h := uint32(0)
	for _, c := range bs {
		h = (h << 3) ^ uint32(c)
	}
	return hashcode(h)
}
