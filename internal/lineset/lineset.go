package lineset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Range is an inclusive span of 1-based line numbers.
type Range struct {
	Start int
	End   int
}

// Len returns the number of lines covered by the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// LineSet is a set of 1-based line numbers stored as sorted, merged ranges.
// It serializes to compact notation like "5,7-8,12".
type LineSet struct {
	ranges []Range
}

// New creates a LineSet from individual line numbers.
func New(lines ...int) LineSet {
	rs := make([]Range, 0, len(lines))
	for _, n := range lines {
		if n > 0 {
			rs = append(rs, Range{n, n})
		}
	}
	return LineSet{ranges: normalize(rs)}
}

// FromRange creates a LineSet covering [start, end].
func FromRange(start, end int) LineSet {
	if start <= 0 || end < start {
		return LineSet{}
	}
	return LineSet{ranges: []Range{{start, end}}}
}

// FromString parses compact notation like "5", "5-7", or "5,7-8,12".
func FromString(s string) (LineSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LineSet{}, nil
	}

	var rs []Range
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "-"); idx >= 0 {
			start, err := strconv.Atoi(strings.TrimSpace(part[:idx]))
			if err != nil {
				return LineSet{}, fmt.Errorf("invalid range start %q: %w", part[:idx], err)
			}
			end, err := strconv.Atoi(strings.TrimSpace(part[idx+1:]))
			if err != nil {
				return LineSet{}, fmt.Errorf("invalid range end %q: %w", part[idx+1:], err)
			}
			if start <= 0 || end < start {
				return LineSet{}, fmt.Errorf("invalid range %d-%d", start, end)
			}
			rs = append(rs, Range{start, end})
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return LineSet{}, fmt.Errorf("invalid line number %q: %w", part, err)
		}
		if n <= 0 {
			return LineSet{}, fmt.Errorf("invalid line number %d", n)
		}
		rs = append(rs, Range{n, n})
	}

	return LineSet{ranges: normalize(rs)}, nil
}

// String returns the compact notation: "5,7-8,12".
func (ls LineSet) String() string {
	parts := make([]string, 0, len(ls.ranges))
	for _, r := range ls.ranges {
		if r.Start == r.End {
			parts = append(parts, strconv.Itoa(r.Start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
	}
	return strings.Join(parts, ",")
}

// IsEmpty returns true if the set contains no lines.
func (ls LineSet) IsEmpty() bool {
	return len(ls.ranges) == 0
}

// Lines expands the set into sorted line numbers.
func (ls LineSet) Lines() []int {
	if len(ls.ranges) == 0 {
		return nil
	}
	lines := make([]int, 0, ls.Len())
	for _, r := range ls.ranges {
		for i := r.Start; i <= r.End; i++ {
			lines = append(lines, i)
		}
	}
	return lines
}

// Len returns the number of lines in the set.
func (ls LineSet) Len() int {
	n := 0
	for _, r := range ls.ranges {
		n += r.Len()
	}
	return n
}

// Max returns the largest line number, or 0 if empty.
func (ls LineSet) Max() int {
	if len(ls.ranges) == 0 {
		return 0
	}
	return ls.ranges[len(ls.ranges)-1].End
}

// Contains returns true if the given line number is in the set.
func (ls LineSet) Contains(line int) bool {
	i := sort.Search(len(ls.ranges), func(i int) bool { return ls.ranges[i].End >= line })
	return i < len(ls.ranges) && ls.ranges[i].Start <= line
}

// Overlaps returns true if any line in [start, end] is in the set.
func (ls LineSet) Overlaps(start, end int) bool {
	i := sort.Search(len(ls.ranges), func(i int) bool { return ls.ranges[i].End >= start })
	return i < len(ls.ranges) && ls.ranges[i].Start <= end
}

// Intersects returns true if the two sets share at least one line.
func (ls LineSet) Intersects(other LineSet) bool {
	for _, r := range other.ranges {
		if ls.Overlaps(r.Start, r.End) {
			return true
		}
	}
	return false
}

// Union returns the lines present in either set.
func (ls LineSet) Union(other LineSet) LineSet {
	rs := make([]Range, 0, len(ls.ranges)+len(other.ranges))
	rs = append(rs, ls.ranges...)
	rs = append(rs, other.ranges...)
	return LineSet{ranges: normalize(rs)}
}

// MarshalJSON serializes as a JSON string in compact notation.
func (ls LineSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ls.String())
}

// UnmarshalJSON accepts a compact-notation string or null.
func (ls *LineSet) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		ls.ranges = nil
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("line set must be a string: %w", err)
	}
	parsed, err := FromString(str)
	if err != nil {
		return err
	}
	ls.ranges = parsed.ranges
	return nil
}

// normalize sorts ranges and merges overlapping or adjacent ones.
func normalize(rs []Range) []Range {
	if len(rs) == 0 {
		return nil
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })
	out := []Range{rs[0]}
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
