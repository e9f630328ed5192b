package slice

import (
	"context"
	"fmt"
	"sync"
)

// ID identifies a canonical slice within one Store.
type ID uint32

// Reserved primitive slices (block size 0).
const (
	False ID = 0
	True  ID = 1
)

// Canonical key layout: | bs (10b) | left (20b) | right (20b) |.
const (
	idBits = 20
	bsBits = 10

	// MaxSlices is the size of the id space, primitives included.
	MaxSlices = 1 << idBits

	// MaxBlockSize is the largest block size a key can encode.
	MaxBlockSize = 1<<bsBits - 1

	// MaxExpandBlockSize is the largest block size Cells will expand.
	MaxExpandBlockSize = 24
)

// Stats reports table sizes of a Store.
type Stats struct {
	// Slices is the number of issued ids, primitives included.
	Slices int
	// Nexts is the number of memoized quarter-step results.
	Nexts int
	// MaxSlices is the id ceiling of this store.
	MaxSlices int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxSlices lowers the id ceiling. Values outside [2, MaxSlices] are ignored.
func WithMaxSlices(n int) Option {
	return func(s *Store) {
		if n >= 2 && n <= MaxSlices {
			s.maxSlices = n
		}
	}
}

type node struct {
	bs    int
	left  ID
	right ID
}

// Store canonicalizes slices for one rule and memoizes their quarter-step
// evolution.
//
// Contract:
//   - Canonicalization: equal (bs, left, right) triples always map to one ID.
//   - Immutability: an issued ID never changes meaning and is never freed.
//   - Concurrency: safe for concurrent use; inserts are atomic on miss and
//     the Next memo is first-writer-wins.
type Store struct {
	rule      Rule
	maxSlices int

	mu    sync.RWMutex
	nodes []node // indexed by ID
	index map[uint64]ID
	nexts map[ID]ID
}

// NewStore creates an empty store for rule.
func NewStore(rule Rule, opts ...Option) *Store {
	s := &Store{
		rule:      rule,
		maxSlices: MaxSlices,
		nodes:     []node{{}, {}}, // False, True
		index:     make(map[uint64]ID),
		nexts:     make(map[ID]ID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rule returns the rule this store evolves slices with.
func (s *Store) Rule() Rule {
	return s.rule
}

// Primitive returns the reserved id for a single cell.
func (s *Store) Primitive(state bool) ID {
	if state {
		return True
	}
	return False
}

// IsTrue reports whether id is the true primitive.
func (s *Store) IsTrue(id ID) bool {
	return id == True
}

// Composite returns the id of the slice formed by placing left next to right.
// Both must have the same block size.
func (s *Store) Composite(left, right ID) (ID, error) {
	lbs, err := s.BlockSize(left)
	if err != nil {
		return 0, err
	}
	rbs, err := s.BlockSize(right)
	if err != nil {
		return 0, err
	}
	if lbs != rbs {
		return 0, fmt.Errorf("%w: left %d, right %d", ErrSizeMismatch, lbs, rbs)
	}
	return s.intern(lbs+1, left, right)
}

// BlockSize returns log2 of the width of id.
func (s *Store) BlockSize(id ID) (int, error) {
	n, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return n.bs, nil
}

// Left returns the left half of a composite slice.
func (s *Store) Left(id ID) (ID, error) {
	l, _, err := s.children(id)
	return l, err
}

// Right returns the right half of a composite slice.
func (s *Store) Right(id ID) (ID, error) {
	_, r, err := s.children(id)
	return r, err
}

// Next returns the slice of block size bs-1 obtained by advancing id by
// 2^(bs-2) steps and keeping the center half. id must have bs >= 2.
//
// ctx is consulted before any work that is not memoized yet; when it is done
// Next fails with ErrCancelled and caches nothing for id.
func (s *Store) Next(ctx context.Context, id ID) (ID, error) {
	n, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	if n.bs < 2 {
		return 0, fmt.Errorf("%w: next requires block size >= 2, got %d", ErrTooSmall, n.bs)
	}

	s.mu.RLock()
	next, ok := s.nexts[id]
	s.mu.RUnlock()
	if ok {
		return next, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	if n.bs == 2 {
		next, err = s.stepCells(n)
	} else {
		next, err = s.stepHalves(ctx, n)
	}
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if prev, ok := s.nexts[id]; ok {
		next = prev
	} else {
		s.nexts[id] = next
	}
	s.mu.Unlock()
	return next, nil
}

// stepCells applies the rule directly to a 4-cell slice.
func (s *Store) stepCells(n node) (ID, error) {
	ll, lr, err := s.children(n.left)
	if err != nil {
		return 0, err
	}
	rl, rr, err := s.children(n.right)
	if err != nil {
		return 0, err
	}
	a, b, c, d := ll == True, lr == True, rl == True, rr == True
	return s.intern(1, s.Primitive(s.rule.Apply(a, b, c)), s.Primitive(s.rule.Apply(b, c, d)))
}

// stepHalves advances three overlapping quarter windows, then two more,
// each by 2^(bs-3) steps.
func (s *Store) stepHalves(ctx context.Context, n node) (ID, error) {
	_, lr, err := s.children(n.left)
	if err != nil {
		return 0, err
	}
	rl, _, err := s.children(n.right)
	if err != nil {
		return 0, err
	}
	center, err := s.intern(n.bs-1, lr, rl)
	if err != nil {
		return 0, err
	}

	mL, err := s.Next(ctx, n.left)
	if err != nil {
		return 0, err
	}
	mC, err := s.Next(ctx, center)
	if err != nil {
		return 0, err
	}
	mR, err := s.Next(ctx, n.right)
	if err != nil {
		return 0, err
	}

	nL, err := s.nextOf(ctx, n.bs-1, mL, mC)
	if err != nil {
		return 0, err
	}
	nR, err := s.nextOf(ctx, n.bs-1, mC, mR)
	if err != nil {
		return 0, err
	}
	return s.intern(n.bs-1, nL, nR)
}

func (s *Store) nextOf(ctx context.Context, bs int, left, right ID) (ID, error) {
	id, err := s.intern(bs, left, right)
	if err != nil {
		return 0, err
	}
	return s.Next(ctx, id)
}

// FromCells builds the slice for a run of cells. len(cells) must be a power of two.
func (s *Store) FromCells(cells []bool) (ID, error) {
	w := len(cells)
	if w == 0 || w&(w-1) != 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidWidth, w)
	}
	level := make([]ID, w)
	for i, c := range cells {
		level[i] = s.Primitive(c)
	}
	for bs := 1; len(level) > 1; bs++ {
		up := make([]ID, len(level)/2)
		for i := range up {
			id, err := s.intern(bs, level[2*i], level[2*i+1])
			if err != nil {
				return 0, err
			}
			up[i] = id
		}
		level = up
	}
	return level[0], nil
}

// Cells expands id into its 2^bs cell states, left to right.
func (s *Store) Cells(id ID) ([]bool, error) {
	bs, err := s.BlockSize(id)
	if err != nil {
		return nil, err
	}
	if bs > MaxExpandBlockSize {
		return nil, fmt.Errorf("%w: block size %d exceeds %d", ErrTooLarge, bs, MaxExpandBlockSize)
	}
	out := make([]bool, 0, 1<<bs)
	return s.appendCells(out, id)
}

func (s *Store) appendCells(out []bool, id ID) ([]bool, error) {
	if id == False || id == True {
		return append(out, id == True), nil
	}
	l, r, err := s.children(id)
	if err != nil {
		return nil, err
	}
	if out, err = s.appendCells(out, l); err != nil {
		return nil, err
	}
	return s.appendCells(out, r)
}

// Stats returns the current table sizes.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Slices:    len(s.nodes),
		Nexts:     len(s.nexts),
		MaxSlices: s.maxSlices,
	}
}

func (s *Store) lookup(id ID) (node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.nodes) {
		return node{}, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return s.nodes[id], nil
}

func (s *Store) children(id ID) (ID, ID, error) {
	n, err := s.lookup(id)
	if err != nil {
		return 0, 0, err
	}
	if n.bs == 0 {
		return 0, 0, fmt.Errorf("%w: id %d", ErrNoChildren, id)
	}
	return n.left, n.right, nil
}

// intern returns the id for (bs, left, right), issuing one on miss.
func (s *Store) intern(bs int, left, right ID) (ID, error) {
	if bs > MaxBlockSize {
		return 0, fmt.Errorf("%w: block size %d exceeds key field", ErrCapacityExceeded, bs)
	}
	key := packKey(bs, left, right)

	s.mu.RLock()
	id, ok := s.index[key]
	s.mu.RUnlock()
	if ok {
		return id, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.index[key]; ok {
		return id, nil
	}
	if len(s.nodes) >= s.maxSlices {
		return 0, fmt.Errorf("%w: %d ids issued", ErrCapacityExceeded, len(s.nodes))
	}
	id = ID(len(s.nodes))
	s.nodes = append(s.nodes, node{bs: bs, left: left, right: right})
	s.index[key] = id
	return id, nil
}

func packKey(bs int, left, right ID) uint64 {
	return uint64(bs)<<(2*idBits) | uint64(left)<<idBits | uint64(right)
}
