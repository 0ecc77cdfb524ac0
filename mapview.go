package fits

import "strings"

const (
	// maxValueWidth is the widest value that fits a single card.
	maxValueWidth = 70

	// wrapWidth is the chunk size used when hard-wrapping a long
	// line; each chunk but the last gets a continuation backslash,
	// keeping every stored value within maxValueWidth.
	wrapWidth = 69
)

// MapView is a dynamic key/value view over a Header. It hides the
// card structure behind get/set/delete semantics: multi-line and long
// values are packed across several cards on write and reassembled on
// read, commentary keywords expose their comment text as the value,
// and duplicate-keyword cards appear as a single logical entry.
//
// The view holds no data of its own; it is a pure projection over the
// Header it wraps. Enumeration state is invalidated by any structural
// mutation of the underlying Header; callers must restart enumeration
// after mutating.
type MapView struct {
	header *Header
	iter   *keyIterator
}

// NewMapView creates a map view over the given header.
func NewMapView(h *Header) *MapView {
	return &MapView{header: h}
}

// Header returns the underlying header.
func (m *MapView) Header() *Header {
	return m.header
}

// commentType reports whether the keyword is treated as commentary:
// the first existing card decides, falling back to the keyword
// convention when no card exists yet.
func (m *MapView) commentType(keyword string) bool {
	if card, ok := m.header.FirstCard(keyword); ok {
		return card.IsComment()
	}
	return IsCommentKeyword(keyword)
}

// Get returns the logical value stored under the keyword. A single
// card collapses to its native scalar; multiple cards reassemble into
// a newline-joined string with continuation backslashes stripped.
// Commentary keywords return their text with a trailing newline.
func (m *MapView) Get(keyword string) (any, bool) {
	keyword = CanonicalKeyword(keyword)
	cards := m.header.CardsByKeyword(keyword)
	if len(cards) == 0 {
		return nil, false
	}

	if cards[0].IsComment() {
		parts := make([]string, 0, len(cards))
		for _, card := range cards {
			parts = append(parts, card.Comment)
		}
		text := strings.Join(parts, "\n")
		text = strings.ReplaceAll(text, "\\\n", "")
		return text + "\n", true
	}

	if len(cards) == 1 {
		return cards[0].Value.Native(), true
	}

	parts := make([]string, 0, len(cards))
	for _, card := range cards {
		parts = append(parts, card.Value.Text())
	}
	text := strings.Join(parts, "\n")
	return strings.ReplaceAll(text, "\\\n", ""), true
}

// Set stores a value under the keyword. Scalars that fit one card are
// stored typed; sequences, multi-line strings and long strings are
// broken into physical lines (long lines hard-wrapped with a
// continuation backslash) and spread across one card per line. The
// existing cards for the keyword are reconciled against the needed
// count: excess cards are removed from the tail of the occurrence
// list, missing cards are appended at the end of the header.
//
// Set returns ErrInvalidValue when the value is neither a scalar nor
// a sequence of scalars.
func (m *MapView) Set(keyword string, value any) error {
	keyword = CanonicalKeyword(keyword)

	scalar, lines, err := encodeValue(value)
	if err != nil {
		return err
	}

	isComment := m.commentType(keyword)
	if isComment && lines == nil {
		// Commentary payloads always go through the line path.
		lines = []string{scalar.Text()}
	}

	need := 1
	if lines != nil {
		need = len(lines)
	}

	positions := m.header.PositionsByKeyword(keyword)

	// Shrink from the tail of the occurrence list, keeping leading
	// cards in place. Removing the highest positions first leaves
	// the kept positions valid.
	if len(positions) > need {
		for i := len(positions) - 1; i >= need; i-- {
			m.header.Remove(positions[i])
		}
		positions = positions[:need]
	}

	// Grow by appending fresh cards at the end of the header.
	if len(positions) < need {
		for i := len(positions); i < need; i++ {
			card := &Card{Keyword: keyword}
			if isComment {
				card.Type = TypeComment
			}
			m.header.Append(card) // err impossible, card is non-nil
		}
		positions = m.header.PositionsByKeyword(keyword)
	}

	for i, pos := range positions {
		card, _ := m.header.At(pos)
		switch {
		case isComment:
			card.Type = TypeComment
			card.Value = Value{}
			card.Comment = lines[i]
		case lines == nil:
			card.Type = TypeUnset
			card.Value = scalar
		default:
			card.Value = String(lines[i])
			// More than one physical line must round-trip as
			// text even when a chunk looks numeric.
			if len(lines) > 1 {
				card.Type = TypeString
			} else {
				card.Type = TypeUnset
			}
		}
	}

	return nil
}

// Exists reports whether at least one card holds the keyword.
func (m *MapView) Exists(keyword string) bool {
	return len(m.header.PositionsByKeyword(keyword)) > 0
}

// Delete removes every card holding the keyword and returns the
// removed cards.
func (m *MapView) Delete(keyword string) []*Card {
	return m.header.RemoveByKeyword(keyword)
}

// Clear empties the underlying header and resets enumeration state.
func (m *MapView) Clear() {
	m.header.Clear()
	m.iter = nil
}

// FirstKey starts an enumeration and returns the first keyword, or
// false if the header is empty. Each distinct keyword is yielded
// exactly once, in first-occurrence order.
func (m *MapView) FirstKey() (string, bool) {
	m.iter = newKeyIterator(m.header)
	return m.iter.next()
}

// NextKey advances the enumeration started by FirstKey, skipping
// cards whose keyword was already yielded, and returns the next
// distinct keyword or false when the sequence is exhausted. Calling
// NextKey without FirstKey starts a fresh enumeration.
func (m *MapView) NextKey() (string, bool) {
	if m.iter == nil {
		return m.FirstKey()
	}
	return m.iter.next()
}

// Keys returns every distinct keyword in first-occurrence order,
// using a fresh iterator that leaves FirstKey/NextKey state alone.
func (m *MapView) Keys() []string {
	var keys []string
	it := newKeyIterator(m.header)
	for keyword, ok := it.next(); ok; keyword, ok = it.next() {
		keys = append(keys, keyword)
	}
	return keys
}

// keyIterator walks header positions yielding each distinct keyword
// once. It holds its own cursor and seen-set so independent
// enumerations do not interfere.
type keyIterator struct {
	header *Header
	cursor int
	seen   map[string]bool
}

func newKeyIterator(h *Header) *keyIterator {
	return &keyIterator{header: h, seen: make(map[string]bool)}
}

func (it *keyIterator) next() (string, bool) {
	for ; it.cursor < it.header.Len(); it.cursor++ {
		keyword, _ := it.header.KeywordAt(it.cursor)
		if it.seen[keyword] {
			continue
		}
		it.seen[keyword] = true
		it.cursor++
		return keyword, true
	}
	return "", false
}

// encodeValue turns an arbitrary value into either a single typed
// scalar (lines == nil) or an ordered list of physical line values.
func encodeValue(value any) (scalar Value, lines []string, err error) {
	switch v := value.(type) {
	case nil:
		return Value{}, nil, nil
	case bool:
		return Logical(v), nil, nil
	case int:
		return Integer(int64(v)), nil, nil
	case int32:
		return Integer(int64(v)), nil, nil
	case int64:
		return Integer(v), nil, nil
	case float32:
		return Float(float64(v)), nil, nil
	case float64:
		return Float(v), nil, nil
	case string:
		if !strings.Contains(v, "\n") && len(v) <= maxValueWidth {
			return String(v), nil, nil
		}
		return Value{}, wrapLines(strings.Split(v, "\n")), nil
	case Value:
		if v.Kind() == ValueString {
			return encodeValue(v.Str())
		}
		return v, nil, nil
	case []string:
		return Value{}, wrapLines(splitLogical(v)), nil
	case []any:
		logical := make([]string, 0, len(v))
		for _, elem := range v {
			switch e := elem.(type) {
			case string:
				logical = append(logical, strings.Split(e, "\n")...)
			default:
				s, l, err := encodeValue(elem)
				if err != nil || l != nil {
					return Value{}, nil, ErrInvalidValue
				}
				logical = append(logical, s.Text())
			}
		}
		return Value{}, wrapLines(logical), nil
	}
	return Value{}, nil, ErrInvalidValue
}

// splitLogical expands embedded newlines so every element is a single
// logical line.
func splitLogical(elems []string) []string {
	logical := make([]string, 0, len(elems))
	for _, elem := range elems {
		logical = append(logical, strings.Split(elem, "\n")...)
	}
	return logical
}

// wrapLines hard-wraps every logical line longer than maxValueWidth
// into wrapWidth-sized chunks, suffixing each chunk but the last with
// a continuation backslash.
func wrapLines(logical []string) []string {
	out := make([]string, 0, len(logical))
	for _, line := range logical {
		for len(line) > maxValueWidth {
			out = append(out, line[:wrapWidth]+"\\")
			line = line[wrapWidth:]
		}
		out = append(out, line)
	}
	return out
}
