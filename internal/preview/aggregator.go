// Package preview decodes selected images into displayable thumbnails.
//
// Decodes run concurrently and complete in any order. The Aggregator writes
// every result into a slot reserved for the file's position in the original
// selection and only reports a batch as ready once every slot is filled.
// Each selection is tagged with a generation; results belonging to a
// superseded generation are dropped.
package preview

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/face-compare/internal/intake"
)

// Entry is the preview of one file. It is created once and never modified.
type Entry struct {
	Key        int    `json:"key"` // index in the original selection
	DataURI    string `json:"data_uri,omitempty"`
	SourceName string `json:"source_name"`
	Failed     bool   `json:"failed,omitempty"` // decode failed, render a placeholder
}

// Snapshot is a read-only view of the aggregation state.
type Snapshot struct {
	Generation uint64  `json:"generation"`
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Ready      bool    `json:"ready"`
	Entries    []Entry `json:"entries,omitempty"` // ordered by Key, only set when Ready
}

type batch struct {
	generation uint64
	slots      []Entry
	filled     []bool
	completed  int
	settled    chan struct{}
	superseded chan struct{}
	cancel     context.CancelFunc
}

// Aggregator collects previews of the current selection in selection order.
type Aggregator struct {
	decoder Decoder
	notify  func(generation uint64)

	mu         sync.Mutex
	generation uint64
	current    *batch
}

// NewAggregator creates an aggregator. notify, if not nil, is called once
// per generation when it settles, outside of any lock.
func NewAggregator(decoder Decoder, notify func(generation uint64)) *Aggregator {
	return &Aggregator{
		decoder: decoder,
		notify:  notify,
	}
}

// Start replaces the current selection with files and schedules one decode
// per file. It returns immediately with the new generation.
func (a *Aggregator) Start(files []*intake.ImageFile) uint64 {
	ctx, cancel := context.WithCancel(context.Background())

	a.mu.Lock()
	a.retireLocked()
	a.generation++
	b := &batch{
		generation: a.generation,
		slots:      make([]Entry, len(files)),
		filled:     make([]bool, len(files)),
		settled:    make(chan struct{}),
		superseded: make(chan struct{}),
		cancel:     cancel,
	}
	a.current = b
	empty := len(files) == 0
	if empty {
		close(b.settled)
		cancel()
	}
	a.mu.Unlock()

	for i, f := range files {
		go a.decode(ctx, b, i, f)
	}

	if empty && a.notify != nil {
		a.notify(b.generation)
	}
	return b.generation
}

// Clear drops the current selection. In-flight decodes are cancelled and
// their results discarded.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.retireLocked()
}

// retireLocked supersedes the current batch. Caller must hold a.mu.
func (a *Aggregator) retireLocked() {
	if a.current == nil {
		return
	}
	a.current.cancel()
	close(a.current.superseded)
	a.current = nil
}

func (a *Aggregator) decode(ctx context.Context, b *batch, index int, f *intake.ImageFile) {
	entry := Entry{Key: index, SourceName: f.Name}

	uri, err := a.safeDecode(ctx, f)
	if err != nil {
		entry.Failed = true
	} else {
		entry.DataURI = uri
	}
	a.complete(b, entry)
}

func (a *Aggregator) safeDecode(ctx context.Context, f *intake.ImageFile) (uri string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return a.decoder.Decode(ctx, f)
}

func (a *Aggregator) complete(b *batch, entry Entry) {
	a.mu.Lock()
	if a.current != b || b.filled[entry.Key] {
		a.mu.Unlock()
		return
	}
	b.slots[entry.Key] = entry
	b.filled[entry.Key] = true
	b.completed++
	settled := b.completed == len(b.slots)
	if settled {
		close(b.settled)
		b.cancel()
	}
	a.mu.Unlock()

	if settled && a.notify != nil {
		a.notify(b.generation)
	}
}

// Generation returns the tag of the current selection, 0 if none.
func (a *Aggregator) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return 0
	}
	return a.current.generation
}

// Snapshot returns the current aggregation state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := a.current
	if b == nil {
		return Snapshot{}
	}

	s := Snapshot{
		Generation: b.generation,
		Total:      len(b.slots),
		Completed:  b.completed,
		Ready:      b.completed == len(b.slots),
	}
	if s.Ready {
		s.Entries = make([]Entry, len(b.slots))
		copy(s.Entries, b.slots)
	}
	return s
}

// Wait blocks until the current selection has settled. If the selection is
// replaced while waiting, Wait follows the replacement.
func (a *Aggregator) Wait(ctx context.Context) error {
	for {
		a.mu.Lock()
		b := a.current
		a.mu.Unlock()
		if b == nil {
			return nil
		}

		select {
		case <-b.settled:
			a.mu.Lock()
			cur := a.current
			a.mu.Unlock()
			if cur == b || cur == nil {
				return nil
			}
		case <-b.superseded:
		case <-ctx.Done():
			return fmt.Errorf("waiting for previews: %w", ctx.Err())
		}
	}
}
