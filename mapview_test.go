package fits

import (
	"strings"
	"testing"
)

func TestMapViewGetScalar(t *testing.T) {
	view := NewMapView(sampleHeader())

	value, ok := view.Get("bitpix")
	if !ok || value.(int64) != 16 {
		t.Errorf("expected 16, got %v", value)
	}

	value, ok = view.Get("SIMPLE")
	if !ok || value.(bool) != true {
		t.Errorf("expected true, got %v", value)
	}

	value, ok = view.Get("TELESCOP")
	if !ok || value.(string) != "KECK" {
		t.Errorf("expected KECK, got %v", value)
	}

	if _, ok := view.Get("NOPE"); ok {
		t.Error("absent keyword must report not found")
	}
}

func TestMapViewGetCommentary(t *testing.T) {
	view := NewMapView(sampleHeader())

	// Commentary keywords join their comments and always carry a
	// trailing newline.
	value, ok := view.Get("HISTORY")
	if !ok || value.(string) != "first\nsecond\n" {
		t.Errorf("expected %q, got %q", "first\nsecond\n", value)
	}
}

func TestMapViewSetScalar(t *testing.T) {
	h := NewHeader()
	view := NewMapView(h)

	if err := view.Set("OBJECT", "M31"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := view.Set("NAXIS", 2); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := view.Set("EXPTIME", 30.5); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := view.Set("SIMPLE", true); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if h.Len() != 4 {
		t.Fatalf("expected 4 cards, got %d", h.Len())
	}
	checkIndex(t, h)

	// Scalars stay typed.
	card, _ := h.FirstCard("NAXIS")
	if card.Value.Kind() != ValueInteger || card.Value.Int() != 2 {
		t.Error("integer scalar was not stored typed")
	}
	card, _ = h.FirstCard("EXPTIME")
	if card.Value.Kind() != ValueFloat {
		t.Error("float scalar was not stored typed")
	}

	if err := view.Set("BAD", struct{}{}); err != ErrInvalidValue {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestMapViewMultiLineRoundTrip(t *testing.T) {
	h := NewHeader()
	view := NewMapView(h)

	if err := view.Set("HISTORY", "a\nb\nc"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if got := len(h.CardsByKeyword("HISTORY")); got != 3 {
		t.Fatalf("expected 3 HISTORY cards, got %d", got)
	}

	value, ok := view.Get("HISTORY")
	if !ok || value.(string) != "a\nb\nc\n" {
		t.Errorf("expected %q, got %q", "a\nb\nc\n", value)
	}
}

func TestMapViewLongStringWrapping(t *testing.T) {
	h := NewHeader()
	view := NewMapView(h)

	long := strings.Repeat("x", 150)
	if err := view.Set("TELESCOP", long); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	cards := h.CardsByKeyword("TELESCOP")
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards for a 150-char value, got %d", len(cards))
	}
	for i, card := range cards {
		if len(card.Value.Str()) > maxValueWidth {
			t.Errorf("card %d value is wider than %d", i, maxValueWidth)
		}
		if i < len(cards)-1 && !strings.HasSuffix(card.Value.Str(), "\\") {
			t.Errorf("card %d is missing its continuation backslash", i)
		}
		// More than one physical line forces the STRING tag.
		if card.Type != TypeString {
			t.Errorf("card %d was not forced to STRING", i)
		}
	}

	value, ok := view.Get("TELESCOP")
	if !ok || value.(string) != long {
		t.Errorf("reassembled value is wrong: %d chars", len(value.(string)))
	}
	if strings.ContainsAny(value.(string), "\\\n") {
		t.Error("reassembled value contains continuation artifacts")
	}
}

func TestMapViewShrinkOnSet(t *testing.T) {
	h := NewHeader()
	view := NewMapView(h)

	if err := view.Set("DETNAM", "a\nb\nc"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	leading, _ := h.FirstCard("DETNAM")
	before := h.PositionsByKeyword("DETNAM")

	if err := view.Set("DETNAM", "solo"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	checkIndex(t, h)

	after := h.PositionsByKeyword("DETNAM")
	if len(after) != 1 {
		t.Fatalf("expected 1 card after shrink, got %d", len(after))
	}
	// Excess cards are removed from the tail, so the leading card
	// survives in place.
	if after[0] != before[0] {
		t.Error("shrink did not preserve the leading card position")
	}
	survivor, _ := h.FirstCard("DETNAM")
	if survivor != leading {
		t.Error("shrink did not keep the leading card")
	}
	if survivor.Value.Str() != "solo" || survivor.Type != TypeUnset {
		t.Error("shrink survivor was not reassigned")
	}
}

func TestMapViewGrowInterleaved(t *testing.T) {
	h := NewHeader(
		NewCard("OBJECT", String("old"), ""),
		NewCard("OBSERVER", String("me"), ""),
	)
	view := NewMapView(h)

	if err := view.Set("OBJECT", "a\nb\nc"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	checkIndex(t, h)

	positions := h.PositionsByKeyword("OBJECT")
	if len(positions) != 3 {
		t.Fatalf("expected 3 OBJECT cards, got %d", len(positions))
	}
	// The existing card stays put; the new cards go to the end of
	// the header, after OBSERVER.
	if positions[0] != 0 || positions[1] != 2 || positions[2] != 3 {
		t.Errorf("unexpected OBJECT positions: %v", positions)
	}
}

func TestMapViewSequenceValues(t *testing.T) {
	h := NewHeader()
	view := NewMapView(h)

	if err := view.Set("HISTORY", []string{"one", "two"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, _ := view.Get("HISTORY")
	if value.(string) != "one\ntwo\n" {
		t.Errorf("expected %q, got %q", "one\ntwo\n", value)
	}

	// A single-element sequence forces string encoding for a
	// numeric-looking value.
	if err := view.Set("VERSION", []string{"123"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	card, _ := h.FirstCard("VERSION")
	if card.Value.Kind() != ValueString || card.Value.Str() != "123" {
		t.Error("single-element sequence was not stored as text")
	}

	if err := view.Set("MIXED", []any{"a", int64(1), true}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, _ = view.Get("MIXED")
	if value.(string) != "a\n1\nT" {
		t.Errorf("unexpected mixed sequence value: %q", value)
	}
}

func TestMapViewExistsDeleteClear(t *testing.T) {
	h := sampleHeader()
	view := NewMapView(h)

	if !view.Exists("history") || view.Exists("NOPE") {
		t.Error("Exists is broken")
	}

	removed := view.Delete("HISTORY")
	if len(removed) != 2 || view.Exists("HISTORY") {
		t.Error("Delete did not remove every occurrence")
	}
	checkIndex(t, h)

	view.Clear()
	if h.Len() != 0 {
		t.Error("Clear did not empty the header")
	}
	if _, ok := view.FirstKey(); ok {
		t.Error("enumeration over an empty header must report not found")
	}
}

func TestMapViewIterationSkipsDuplicates(t *testing.T) {
	h := NewHeader()
	view := NewMapView(h)

	view.Set("SIMPLE", true)
	view.Set("HISTORY", "a\nb\nc")
	view.Set("OBJECT", "M31")

	var keys []string
	for keyword, ok := view.FirstKey(); ok; keyword, ok = view.NextKey() {
		keys = append(keys, keyword)
	}

	want := []string{"SIMPLE", "HISTORY", "OBJECT"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}

	// Keys uses a fresh iterator with the same skip semantics.
	keys = view.Keys()
	if len(keys) != 3 || keys[1] != "HISTORY" {
		t.Errorf("Keys is broken: %v", keys)
	}
}

func TestMapViewCommentTypeInheritance(t *testing.T) {
	// A non-standard keyword whose existing card is commentary keeps
	// the commentary treatment on Set.
	h := NewHeader(NewCommentCard("NOTE", "old text"))
	view := NewMapView(h)

	if err := view.Set("NOTE", "new text"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	card, _ := h.FirstCard("NOTE")
	if !card.IsComment() || card.Comment != "new text" {
		t.Errorf("commentary treatment was not inherited: %+v", card)
	}

	value, _ := view.Get("NOTE")
	if value.(string) != "new text\n" {
		t.Errorf("expected trailing newline on commentary get, got %q", value)
	}
}
