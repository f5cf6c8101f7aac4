package dataset

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidSplit is returned for train fractions outside (0, 1].
var ErrInvalidSplit = errors.New("invalid train/test split")

// Split assigns every record of a dataset to either the train or the test set.
type Split struct {
	// IsTest[i] is true when record i belongs to the test set.
	IsTest []bool
}

// Len returns the number of records covered by the split.
func (s Split) Len() int {
	return len(s.IsTest)
}

// TestIndices returns the test record indices in ascending order.
func (s Split) TestIndices() []int {
	return s.indices(true)
}

// TrainIndices returns the train record indices in ascending order.
func (s Split) TrainIndices() []int {
	return s.indices(false)
}

func (s Split) indices(test bool) []int {
	var out []int
	for i, t := range s.IsTest {
		if t == test {
			out = append(out, i)
		}
	}
	return out
}

// SplitTrainTest partitions n records into train and test sets.
//
// The test set receives floor(n*(1-trainPct))+1 records (capped at n), drawn from a
// permutation of [0, n) seeded with seed. The extra test record matches the sizing
// existing datasets were created with and is kept for compatibility.
//
// Arguments:
// - n: Number of records.
// - trainPct: Train fraction in (0, 1].
// - seed: Permutation seed; nil seeds from the clock and is not reproducible.
//
// Returns:
// - The split. The same n and seed always yield the same split.
// - ErrInvalidSplit if trainPct is out of range or n is negative.
//
// @example
// seed := int64(1)
// split, err := dataset.SplitTrainTest(39, 0.75, &seed) // 10 test, 29 train
func SplitTrainTest(n int, trainPct float64, seed *int64) (Split, error) {
	if trainPct <= 0 || trainPct > 1 || math.IsNaN(trainPct) {
		return Split{}, errors.Wrapf(ErrInvalidSplit, "trainPct %v not in (0, 1]", trainPct)
	}
	if n < 0 {
		return Split{}, errors.Wrapf(ErrInvalidSplit, "negative record count %d", n)
	}

	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	perm := rand.New(rand.NewSource(s)).Perm(n)

	testCount := int(math.Floor(float64(n) * (1 - trainPct)))
	testSize := min(testCount+1, n)

	split := Split{IsTest: make([]bool, n)}
	for _, i := range perm[:testSize] {
		split.IsTest[i] = true
	}
	return split, nil
}
