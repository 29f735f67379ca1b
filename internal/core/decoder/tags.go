package decoder

import (
	"fmt"

	"firestige.xyz/wardriver/internal/core"
)

// TagSet is a set of tagged-parameter IDs.
type TagSet [4]uint64

// NewTagSet builds a set from tag IDs.
func NewTagSet(ids ...uint8) TagSet {
	var s TagSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s *TagSet) Add(id uint8) {
	s[id>>6] |= 1 << (id & 63)
}

// Has reports whether id is in the set.
func (s TagSet) Has(id uint8) bool {
	return s[id>>6]&(1<<(id&63)) != 0
}

// Empty reports whether no ID is set.
func (s TagSet) Empty() bool {
	return s[0]|s[1]|s[2]|s[3] == 0
}

// ScanTags walks (id, length, value) triples and copies the values of wanted tags.
//
// If a triple would read past the end of params the scan stops with
// ErrTagOverrun; tags collected before that point are returned with the error.
// A repeated tag ID keeps the last value.
func ScanTags(params []byte, wanted TagSet) (map[uint8][]byte, error) {
	tags := make(map[uint8][]byte)

	pos := 0
	for pos < len(params) {
		if pos+2 > len(params) {
			return tags, fmt.Errorf("%w: tag header at %d, region is %d bytes",
				core.ErrTagOverrun, pos, len(params))
		}
		id := params[pos]
		n := int(params[pos+1])
		end := pos + 2 + n
		if end > len(params) {
			return tags, fmt.Errorf("%w: tag 0x%02x declares %d bytes at %d, region is %d bytes",
				core.ErrTagOverrun, id, n, pos, len(params))
		}

		if wanted.Has(id) {
			value := make([]byte, n)
			copy(value, params[pos+2:end])
			tags[id] = value
		}

		pos = end
	}

	return tags, nil
}
