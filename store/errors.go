package store

import "errors"

// ErrGenerationGone is returned by Handle.Put when the handle's store was
// deleted between acquisition and the write. The write is dropped; callers
// treat this as a benign outcome of a purge winning the race.
var ErrGenerationGone = errors.New("store: generation deleted since handle was acquired")
