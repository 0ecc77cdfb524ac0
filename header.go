package fits

import "strings"

// Header is an ordered collection of cards mirroring the on-disk card
// order, plus a derived keyword index. Since FITS keywords are
// case-insensitive, the Header methods are case-insensitive as well.
//
// A Header is not safe for concurrent use: every operation requires
// exclusive access for the duration of the call. Cards are held by
// pointer and may legitimately be shared across several positions
// (see Insert and ReplaceByKeyword); mutating a shared card is
// visible at every position that holds it.
type Header struct {
	sequence []*Card
	index    map[string][]int
}

// NewHeader creates a new header from zero or more cards, in order.
// The cards are shared, not copied.
func NewHeader(cards ...*Card) *Header {
	h := &Header{sequence: append([]*Card(nil), cards...)}
	h.rebuildIndex()
	return h
}

// NewHeaderFromImages creates a header by decoding an ordered list of
// card images, each decoded independently.
func NewHeaderFromImages(images []string) (*Header, error) {
	cards := make([]*Card, 0, len(images))
	for _, image := range images {
		card, err := ParseCard(image)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return NewHeader(cards...), nil
}

// rebuildIndex re-derives the keyword index from the sequence. It is
// called in full after every structural mutation; the index is never
// patched incrementally.
func (h *Header) rebuildIndex() {
	h.index = make(map[string][]int, len(h.sequence))
	for i, card := range h.sequence {
		h.index[card.Keyword] = append(h.index[card.Keyword], i)
	}
}

// Len returns the number of cards in the header.
func (h *Header) Len() int {
	return len(h.sequence)
}

// At returns the card at position i, or false if i is out of bounds.
func (h *Header) At(i int) (*Card, bool) {
	if i < 0 || i >= len(h.sequence) {
		return nil, false
	}
	return h.sequence[i], true
}

// KeywordAt returns the keyword of the card at position i, or false
// if i is out of bounds.
func (h *Header) KeywordAt(i int) (string, bool) {
	card, ok := h.At(i)
	if !ok {
		return "", false
	}
	return card.Keyword, true
}

// CardsByKeyword returns every card whose keyword matches, in stored
// order. The result is empty when the keyword is absent.
func (h *Header) CardsByKeyword(keyword string) []*Card {
	positions := h.index[CanonicalKeyword(keyword)]
	cards := make([]*Card, 0, len(positions))
	for _, i := range positions {
		cards = append(cards, h.sequence[i])
	}
	return cards
}

// FirstCard returns the first card whose keyword matches, or false if
// the keyword is absent.
func (h *Header) FirstCard(keyword string) (*Card, bool) {
	positions := h.index[CanonicalKeyword(keyword)]
	if len(positions) == 0 {
		return nil, false
	}
	return h.sequence[positions[0]], true
}

// PositionsByKeyword returns the ascending positions at which the
// keyword occurs. The result is empty when the keyword is absent.
func (h *Header) PositionsByKeyword(keyword string) []int {
	return append([]int(nil), h.index[CanonicalKeyword(keyword)]...)
}

// ValuesByKeyword returns the values of every matching card, in
// stored order.
func (h *Header) ValuesByKeyword(keyword string) []Value {
	positions := h.index[CanonicalKeyword(keyword)]
	values := make([]Value, 0, len(positions))
	for _, i := range positions {
		values = append(values, h.sequence[i].Value)
	}
	return values
}

// CommentsByKeyword returns the comments of every matching card, in
// stored order.
func (h *Header) CommentsByKeyword(keyword string) []string {
	positions := h.index[CanonicalKeyword(keyword)]
	comments := make([]string, 0, len(positions))
	for _, i := range positions {
		comments = append(comments, h.sequence[i].Comment)
	}
	return comments
}

// normalizePosition resolves a possibly negative position against the
// sequence length and clamps it to [0, length].
func (h *Header) normalizePosition(position int) int {
	if position < 0 {
		position += len(h.sequence)
	}
	if position < 0 {
		position = 0
	}
	if position > len(h.sequence) {
		position = len(h.sequence)
	}
	return position
}

// Insert inserts a card at the given position without copying it: the
// header shares the card with the caller, and with any other position
// the same card occupies. Position may equal Len (append) or be
// negative, counted from the end.
func (h *Header) Insert(position int, card *Card) error {
	if card == nil {
		return ErrNilCard
	}
	position = h.normalizePosition(position)
	h.sequence = append(h.sequence, nil)
	copy(h.sequence[position+1:], h.sequence[position:])
	h.sequence[position] = card
	h.rebuildIndex()
	return nil
}

// Append adds a card at the end of the header.
func (h *Header) Append(card *Card) error {
	return h.Insert(len(h.sequence), card)
}

// Replace replaces the card at the given position and returns the
// card previously occupying it. Replacing an out-of-bounds position
// is a no-op returning nil.
func (h *Header) Replace(position int, card *Card) (*Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	if position < 0 {
		position += len(h.sequence)
	}
	if position < 0 || position >= len(h.sequence) {
		return nil, nil
	}
	previous := h.sequence[position]
	h.sequence[position] = card
	h.rebuildIndex()
	return previous, nil
}

// Remove removes the card at the given position and returns it, or
// false if the position is out of bounds.
func (h *Header) Remove(position int) (*Card, bool) {
	if position < 0 {
		position += len(h.sequence)
	}
	if position < 0 || position >= len(h.sequence) {
		return nil, false
	}
	removed := h.sequence[position]
	h.sequence = append(h.sequence[:position], h.sequence[position+1:]...)
	h.rebuildIndex()
	return removed, true
}

// ReplaceByKeyword replaces every occurrence of the keyword with the
// same card and returns the replaced cards in original order. Note
// that this aliases one card across every replaced position: mutating
// the supplied card afterwards mutates all of them.
func (h *Header) ReplaceByKeyword(keyword string, card *Card) ([]*Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	positions := h.index[CanonicalKeyword(keyword)]
	if len(positions) == 0 {
		return nil, nil
	}
	replaced := make([]*Card, 0, len(positions))
	for _, i := range positions {
		replaced = append(replaced, h.sequence[i])
		h.sequence[i] = card
	}
	h.rebuildIndex()
	return replaced, nil
}

// RemoveByKeyword removes every occurrence of the keyword and returns
// the removed cards in original order.
func (h *Header) RemoveByKeyword(keyword string) []*Card {
	positions := h.index[CanonicalKeyword(keyword)]
	if len(positions) == 0 {
		return nil
	}
	removed := make([]*Card, 0, len(positions))
	kept := make([]*Card, 0, len(h.sequence)-len(positions))
	next := 0
	for i, card := range h.sequence {
		if next < len(positions) && positions[next] == i {
			removed = append(removed, card)
			next++
			continue
		}
		kept = append(kept, card)
	}
	h.sequence = kept
	h.rebuildIndex()
	return removed
}

// Splice removes length cards starting at offset, inserts the
// replacement cards in their place, and returns the removed cards.
// A negative offset counts from the end. Out-of-range arguments are
// clamped to the sequence bounds.
func (h *Header) Splice(offset, length int, replacements ...*Card) []*Card {
	offset = h.normalizePosition(offset)
	if length < 0 {
		length = 0
	}
	if length > len(h.sequence)-offset {
		length = len(h.sequence) - offset
	}

	removed := append([]*Card(nil), h.sequence[offset:offset+length]...)

	tail := append([]*Card(nil), h.sequence[offset+length:]...)
	h.sequence = append(h.sequence[:offset], replacements...)
	h.sequence = append(h.sequence, tail...)
	h.rebuildIndex()
	return removed
}

// SpliceFrom removes every card from offset through the end and
// returns them. A negative offset counts from the end.
func (h *Header) SpliceFrom(offset int) []*Card {
	offset = h.normalizePosition(offset)
	return h.Splice(offset, len(h.sequence)-offset)
}

// Clear removes every card and returns the removed sequence.
func (h *Header) Clear() []*Card {
	return h.SpliceFrom(0)
}

// Cards returns the ordered card sequence. The cards are shared
// references, not copies; the slice itself is a copy.
func (h *Header) Cards() []*Card {
	return append([]*Card(nil), h.sequence...)
}

// CardImages returns the ordered 80-column renderings of every card.
func (h *Header) CardImages() []string {
	images := make([]string, 0, len(h.sequence))
	for _, card := range h.sequence {
		images = append(images, card.Image())
	}
	return images
}

// String renders the header as all card images joined by newlines,
// with a trailing newline.
func (h *Header) String() string {
	var b strings.Builder
	b.Grow(len(h.sequence) * (CardLength + 1))
	for _, card := range h.sequence {
		b.WriteString(card.Image())
		b.WriteByte('\n')
	}
	return b.String()
}
