package fits

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CardLength is the fixed width of a single card image.
	CardLength = 80

	// KeywordLength is the fixed width of the keyword field.
	KeywordLength = 8

	// BlockSize is the size of a FITS block: 36 card images.
	BlockSize = 2880

	// CardsPerBlock is the number of card images per FITS block.
	CardsPerBlock = BlockSize / CardLength
)

const (
	ValueAbsent ValueKind = iota
	ValueLogical
	ValueInteger
	ValueFloat
	ValueString
)

// ValueKind discriminates the variants of a card Value.
type ValueKind int

func (k ValueKind) String() string {
	switch k {
	case ValueAbsent:
		return "ValueAbsent"
	case ValueLogical:
		return "ValueLogical"
	case ValueInteger:
		return "ValueInteger"
	case ValueFloat:
		return "ValueFloat"
	case ValueString:
		return "ValueString"
	}
	return ""
}

// Value is the typed value of a card: absent, logical, integer,
// float or string. The zero Value is absent.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
}

// Logical returns a logical (boolean) Value.
func Logical(v bool) Value {
	return Value{kind: ValueLogical, b: v}
}

// Integer returns an integer Value.
func Integer(v int64) Value {
	return Value{kind: ValueInteger, i: v}
}

// Float returns a floating-point Value.
func Float(v float64) Value {
	return Value{kind: ValueFloat, f: v}
}

// String returns a string Value.
func String(v string) Value {
	return Value{kind: ValueString, s: v}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsAbsent() bool  { return v.kind == ValueAbsent }

// Bool returns the logical payload, false if the Value is not logical.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload, 0 if the Value is not an integer.
func (v Value) Int() int64 { return v.i }

// Float64 returns the float payload, 0 if the Value is not a float.
func (v Value) Float64() float64 { return v.f }

// Str returns the string payload, "" if the Value is not a string.
func (v Value) Str() string { return v.s }

// Native collapses the Value to its native Go representation:
// bool, int64, float64, string, or nil when absent.
func (v Value) Native() any {
	switch v.kind {
	case ValueLogical:
		return v.b
	case ValueInteger:
		return v.i
	case ValueFloat:
		return v.f
	case ValueString:
		return v.s
	}
	return nil
}

// Text returns the payload rendered as plain text, without any card
// formatting. Absent values render as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case ValueLogical:
		if v.b {
			return "T"
		}
		return "F"
	case ValueInteger:
		return strconv.FormatInt(v.i, 10)
	case ValueFloat:
		return formatFloat(v.f)
	case ValueString:
		return v.s
	}
	return ""
}

const (
	TypeUnset CardType = iota
	TypeString
	TypeLogical
	TypeInt
	TypeFloat
	TypeComment
)

// CardType is an explicit type tag that overrides the kind inferred
// from a card's Value when the card is rendered.
type CardType int

func (t CardType) String() string {
	switch t {
	case TypeUnset:
		return "TypeUnset"
	case TypeString:
		return "TypeString"
	case TypeLogical:
		return "TypeLogical"
	case TypeInt:
		return "TypeInt"
	case TypeFloat:
		return "TypeFloat"
	case TypeComment:
		return "TypeComment"
	}
	return ""
}

// Card is a single header card: keyword, typed value, optional comment
// and optional explicit type tag. Cards are shared by pointer; a Card
// inserted at several positions of a Header is the same Card, and
// mutating it is visible at every position.
type Card struct {
	Keyword string
	Value   Value
	Comment string
	Type    CardType
}

// NewCard creates a card with the given keyword, value and comment.
// The keyword is canonicalized to upper case.
func NewCard(keyword string, value Value, comment string) *Card {
	return &Card{
		Keyword: CanonicalKeyword(keyword),
		Value:   value,
		Comment: comment,
	}
}

// NewCommentCard creates a commentary card (COMMENT, HISTORY or blank
// keyword) whose payload is free text carried in the comment field.
func NewCommentCard(keyword, text string) *Card {
	return &Card{
		Keyword: CanonicalKeyword(keyword),
		Comment: text,
		Type:    TypeComment,
	}
}

// IsComment reports whether the card is a commentary card: its visible
// value is the comment field and it carries no typed value.
func (c *Card) IsComment() bool {
	return c.Type == TypeComment
}

// effectiveType resolves the explicit type tag against the kind
// inferred from the value.
func (c *Card) effectiveType() CardType {
	if c.Type != TypeUnset {
		return c.Type
	}
	switch c.Value.Kind() {
	case ValueLogical:
		return TypeLogical
	case ValueInteger:
		return TypeInt
	case ValueFloat:
		return TypeFloat
	case ValueString:
		return TypeString
	}
	return TypeUnset
}

// CanonicalKeyword returns the canonical form of a keyword: trimmed
// and upper-cased. Keyword matching is case-insensitive everywhere.
func CanonicalKeyword(keyword string) string {
	return strings.ToUpper(strings.TrimSpace(keyword))
}

// commentKeywords are the repeatable commentary keywords whose payload
// lives in the comment field.
var commentKeywords = map[string]bool{
	"COMMENT": true,
	"HISTORY": true,
	"":        true,
}

// IsCommentKeyword reports whether keyword designates a commentary
// card by convention, independently of any existing card's type tag.
func IsCommentKeyword(keyword string) bool {
	return commentKeywords[CanonicalKeyword(keyword)]
}

// Image renders the card as a fixed 80-column card image.
func (c *Card) Image() string {
	var b strings.Builder
	b.Grow(CardLength)

	keyword := c.Keyword
	if len(keyword) > KeywordLength {
		keyword = keyword[:KeywordLength]
	}
	b.WriteString(keyword)
	for b.Len() < KeywordLength {
		b.WriteByte(' ')
	}

	if c.effectiveType() == TypeComment {
		b.WriteString(c.Comment)
		return padImage(b.String())
	}

	b.WriteString("= ")

	switch c.effectiveType() {
	case TypeString:
		b.WriteByte('\'')
		quoted := strings.ReplaceAll(c.Value.Text(), "'", "''")
		b.WriteString(quoted)
		// Fixed format wants at least 8 characters between the quotes.
		for pad := 8 - len(quoted); pad > 0; pad-- {
			b.WriteByte(' ')
		}
		b.WriteByte('\'')
	case TypeLogical, TypeInt, TypeFloat:
		field := c.Value.Text()
		// Right-justify the value so it ends at column 30.
		for pad := 30 - KeywordLength - 2 - len(field); pad > 0; pad-- {
			b.WriteByte(' ')
		}
		b.WriteString(field)
	}

	if c.Comment != "" {
		b.WriteString(" / ")
		b.WriteString(c.Comment)
	}

	return padImage(b.String())
}

// padImage pads or truncates an image to exactly CardLength columns.
func padImage(image string) string {
	if len(image) >= CardLength {
		return image[:CardLength]
	}
	return image + strings.Repeat(" ", CardLength-len(image))
}

// ParseCard decodes a single card image into a Card. Parsing is
// lenient: a card whose value field cannot be typed is kept as a
// string, and commentary keywords keep their text in the comment
// field. An error is returned only for images longer than 80 columns.
func ParseCard(image string) (*Card, error) {
	if len(image) > CardLength {
		return nil, fmt.Errorf("card image is %d columns, expected at most %d: %w", len(image), CardLength, ErrBadCardImage)
	}

	image = padImage(image)
	keyword := CanonicalKeyword(image[:KeywordLength])
	rest := image[KeywordLength:]

	// Commentary cards and cards without the "= " value indicator
	// carry everything after the keyword as free text. Writers that
	// pad column 9 with a space are tolerated.
	if IsCommentKeyword(keyword) || !strings.HasPrefix(rest, "= ") {
		text := strings.TrimRight(rest, " ")
		text = strings.TrimPrefix(text, " ")
		return &Card{
			Keyword: keyword,
			Comment: text,
			Type:    TypeComment,
		}, nil
	}

	card := &Card{Keyword: keyword}
	field := rest[2:]

	if strings.HasPrefix(strings.TrimLeft(field, " "), "'") {
		value, remainder := parseQuoted(strings.TrimLeft(field, " "))
		card.Value = String(value)
		card.Comment = parseTrailingComment(remainder)
		return card, nil
	}

	valueText := field
	if slash := strings.Index(field, "/"); slash >= 0 {
		valueText = field[:slash]
		card.Comment = strings.TrimRight(strings.TrimPrefix(field[slash+1:], " "), " ")
	}
	valueText = strings.TrimSpace(valueText)

	switch {
	case valueText == "":
		// Valueless card, comment only.
	case valueText == "T":
		card.Value = Logical(true)
	case valueText == "F":
		card.Value = Logical(false)
	default:
		if i, err := strconv.ParseInt(valueText, 10, 64); err == nil {
			card.Value = Integer(i)
			break
		}
		// Fortran-style D exponents are accepted on input.
		normalized := strings.Map(func(r rune) rune {
			if r == 'D' || r == 'd' {
				return 'E'
			}
			return r
		}, valueText)
		if f, err := strconv.ParseFloat(normalized, 64); err == nil {
			card.Value = Float(f)
			break
		}
		card.Value = String(valueText)
	}

	return card, nil
}

// parseQuoted consumes a quoted string value (with '' escaping) and
// returns the unescaped content and the unconsumed remainder.
func parseQuoted(field string) (value, remainder string) {
	var b strings.Builder
	i := 1 // skip opening quote
	for i < len(field) {
		if field[i] == '\'' {
			if i+1 < len(field) && field[i+1] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			return strings.TrimRight(b.String(), " "), field[i+1:]
		}
		b.WriteByte(field[i])
		i++
	}
	// Unterminated string, keep what we have.
	return strings.TrimRight(b.String(), " "), ""
}

// parseTrailingComment extracts the " / comment" part that may follow
// a value field.
func parseTrailingComment(remainder string) string {
	if slash := strings.Index(remainder, "/"); slash >= 0 {
		return strings.TrimRight(strings.TrimPrefix(remainder[slash+1:], " "), " ")
	}
	return ""
}

// formatFloat renders a float the way card images expect: upper-case
// exponent, no unnecessary precision loss.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'G', -1, 64)
	// Make sure a plain integer-looking float stays a float.
	if !strings.ContainsAny(s, ".EIN") {
		s += "."
	}
	return s
}
