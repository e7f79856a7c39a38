package chunker

// FlushFunc receives a completed chunk: its index, its units (seed first) and
// the accumulated size.
type FlushFunc[U any] func(index int, units []U, size int64) error

// Accumulator packs units into chunks under a byte budget.
//
// A unit is admitted while the running size plus the unit's size stays within
// maxSize. When it would not, the current accumulation is flushed first and
// the unit starts the next chunk. A unit that alone exceeds maxSize is still
// admitted into an empty accumulation, so nothing is ever dropped. A seed
// counts as content: a unit that does not fit next to the seed flushes a
// seed-only chunk first.
type Accumulator[U any] struct {
	maxSize  int64
	seed     []U
	seedSize int64
	units    []U
	size     int64
	index    int
	flushed  int
	flush    FlushFunc[U]
}

// NewAccumulator returns an accumulator whose first chunk gets index 1.
func NewAccumulator[U any](maxSize int64, flush FlushFunc[U]) *Accumulator[U] {
	return &Accumulator[U]{
		maxSize: maxSize,
		index:   1,
		flush:   flush,
	}
}

// Seed sets units repeated at the head of every chunk. Their size counts
// against the budget from the moment a chunk begins. A seeded accumulator
// that never receives a unit still flushes one chunk holding only the seed,
// and so does one whose first unit overflows the seed.
// Seed must be called before the first Offer.
func (a *Accumulator[U]) Seed(units []U, size int64) {
	a.seed = units
	a.seedSize = size
	a.size = size
}

// Offer admits u, flushing the current chunk first if u would overflow it.
func (a *Accumulator[U]) Offer(u U, unitSize int64) error {
	if (len(a.units) > 0 || len(a.seed) > 0) && a.size+unitSize > a.maxSize {
		if err := a.emit(); err != nil {
			return err
		}
	}
	a.units = append(a.units, u)
	a.size += unitSize
	return nil
}

// Finish flushes the trailing chunk, if any.
func (a *Accumulator[U]) Finish() error {
	if len(a.units) == 0 && (len(a.seed) == 0 || a.flushed > 0) {
		return nil
	}
	return a.emit()
}

// Flushed returns how many chunks have been flushed so far.
func (a *Accumulator[U]) Flushed() int {
	return a.flushed
}

func (a *Accumulator[U]) emit() error {
	units := make([]U, 0, len(a.seed)+len(a.units))
	units = append(units, a.seed...)
	units = append(units, a.units...)

	if err := a.flush(a.index, units, a.size); err != nil {
		return err
	}

	a.index++
	a.flushed++
	a.units = nil
	a.size = a.seedSize
	return nil
}
