// Package loader - Batched iteration over a dataset with concurrent sample loading.
package loader

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/nvr-ai/go-detset/transforms"
	"github.com/pkg/errors"
)

// Source is a random-access collection of samples.
type Source interface {
	Len() int
	Get(idx int) (*transforms.Sample, error)
}

// Batch is a group of samples kept as parallel lists rather than stacked tensors, since
// detection images and targets differ in size.
type Batch struct {
	// Indices are the source indices of Samples.
	Indices []int
	Samples []*transforms.Sample
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int {
	return len(b.Samples)
}

// Options configures a Loader.
type Options struct {
	// Indices restricts iteration to these source indices. Nil iterates the whole source.
	Indices []int
	// BatchSize is the number of samples per batch. The last batch may be smaller.
	BatchSize int
	// Shuffle reorders the indices at the start of every epoch.
	Shuffle bool
	// Seed makes shuffling reproducible; nil seeds from the clock.
	Seed *int64
	// NumWorkers is the number of goroutines loading samples of a batch. 0 loads serially.
	NumWorkers int
}

// Loader yields batches of a Source, one epoch at a time.
type Loader struct {
	source  Source
	indices []int
	opts    Options

	mu    sync.Mutex
	rng   *rand.Rand
	order []int
	pos   int
}

// New returns a loader positioned at the start of its first epoch.
//
// Arguments:
// - source: The samples to iterate.
// - opts: Batching, shuffling and worker settings.
//
// Returns:
// - The loader.
// - error if the batch size is not positive or an index is out of range.
func New(source Source, opts Options) (*Loader, error) {
	if opts.BatchSize < 1 {
		return nil, errors.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.NumWorkers < 0 {
		return nil, errors.Errorf("worker count must not be negative, got %d", opts.NumWorkers)
	}

	indices := opts.Indices
	if indices == nil {
		indices = make([]int, source.Len())
		for i := range indices {
			indices[i] = i
		}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= source.Len() {
			return nil, errors.Errorf("index %d out of range [0, %d)", idx, source.Len())
		}
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	l := &Loader{
		source:  source,
		indices: append([]int(nil), indices...),
		opts:    opts,
		rng:     rand.New(rand.NewSource(seed)),
	}
	l.Reset()
	return l, nil
}

// Len returns the number of batches per epoch.
func (l *Loader) Len() int {
	return (len(l.indices) + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// NumSamples returns the number of samples per epoch.
func (l *Loader) NumSamples() int {
	return len(l.indices)
}

// Reset starts a new epoch, reshuffling when enabled.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.order = append(l.order[:0], l.indices...)
	if l.opts.Shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.pos = 0
}

// Next loads the next batch of the current epoch.
//
// Returns:
// - The batch, with samples in epoch order.
// - io.EOF once the epoch is exhausted, the context error if ctx ends first, or the
//   first error returned by the source.
func (l *Loader) Next(ctx context.Context) (*Batch, error) {
	l.mu.Lock()
	if l.pos >= len(l.order) {
		l.mu.Unlock()
		return nil, io.EOF
	}
	end := min(l.pos+l.opts.BatchSize, len(l.order))
	indices := append([]int(nil), l.order[l.pos:end]...)
	l.pos = end
	l.mu.Unlock()

	samples, err := l.load(ctx, indices)
	if err != nil {
		return nil, err
	}
	return &Batch{Indices: indices, Samples: samples}, nil
}

// load fetches the samples of one batch on up to NumWorkers goroutines. The first
// failure cancels the remaining jobs.
func (l *Loader) load(ctx context.Context, indices []int) ([]*transforms.Sample, error) {
	samples := make([]*transforms.Sample, len(indices))

	if l.opts.NumWorkers == 0 {
		for i, idx := range indices {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s, err := l.source.Get(idx)
			if err != nil {
				return nil, errors.Wrapf(err, "load sample %d", idx)
			}
			samples[i] = s
		}
		return samples, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, len(indices))
	for i := range indices {
		jobs <- i
	}
	close(jobs)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < min(l.opts.NumWorkers, len(indices)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					fail(err)
					return
				}
				s, err := l.source.Get(indices[i])
				if err != nil {
					fail(errors.Wrapf(err, "load sample %d", indices[i]))
					return
				}
				samples[i] = s
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return samples, nil
}
