package benchmark

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxInstances caps a split. Selecting by instance id scans this range.
const MaxInstances = 500

// DefaultSplit runs the second instance of the dataset.
const DefaultSplit = "1:2"

// Split is the half open range [Start, End) of dataset positions.
type Split struct {
	Start int
	End   int
}

func (s Split) String() string {
	return strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.End)
}

// Len is the number of positions in the split.
func (s Split) Len() int {
	return s.End - s.Start
}

// ParseSplit parses "start:end".
func ParseSplit(s string) (Split, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Split{}, fmt.Errorf("invalid test split %q: want start:end", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return Split{}, fmt.Errorf("invalid test split %q: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return Split{}, fmt.Errorf("invalid test split %q: %w", s, err)
	}
	if start < 0 || end <= start {
		return Split{}, fmt.Errorf("invalid test split %q: want 0 <= start < end", s)
	}
	if end-start > MaxInstances {
		return Split{}, fmt.Errorf("invalid test split %q: at most %d instances", s, MaxInstances)
	}
	return Split{Start: start, End: end}, nil
}

// ResolveSplit picks the split of a run. Explicit instance ids override the
// requested split with the whole range.
func ResolveSplit(split string, instanceIDs []string) (Split, error) {
	if len(instanceIDs) > 0 {
		return Split{Start: 0, End: MaxInstances}, nil
	}
	if split == "" {
		split = DefaultSplit
	}
	return ParseSplit(split)
}

// ParseInstanceIDs splits a comma separated list, dropping blanks.
func ParseInstanceIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
