package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pair is one key/value of an object literal, in source order.
type Pair struct {
	Key   string
	Value any
}

// orderedObject keeps object keys in source order while parsing.
type orderedObject struct {
	pairs []Pair
}

func (o *orderedObject) plain() map[string]any {
	m := make(map[string]any, len(o.pairs))
	for _, p := range o.pairs {
		m[p.Key] = plain(p.Value)
	}
	return m
}

func plain(v any) any {
	switch val := v.(type) {
	case *orderedObject:
		return val.plain()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

// SyntaxError reports where a literal stopped being data-shaped.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("literal offset %d: %s", e.Offset, e.Msg)
}

// ParseLiteral parses a data-interchange shaped literal: objects, arrays,
// quoted strings, numbers, booleans, null and undefined, with JSON5 niceties
// (unquoted keys, single quotes, trailing commas, comments). Identifiers in
// value position, calls, spreads and template substitutions are rejected;
// nothing is ever evaluated. Objects decode to map[string]any, arrays to
// []any, numbers to float64.
func ParseLiteral(src string) (any, error) {
	v, err := parseDocument(src)
	if err != nil {
		return nil, err
	}
	return plain(v), nil
}

// ParseRecord parses an object literal and returns its top-level pairs in
// source order. Nested values are plain (see ParseLiteral).
func ParseRecord(src string) ([]Pair, error) {
	v, err := parseDocument(src)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*orderedObject)
	if !ok {
		return nil, &SyntaxError{Offset: 0, Msg: "not an object literal"}
	}
	return recordPairs(obj), nil
}

func recordPairs(obj *orderedObject) []Pair {
	out := make([]Pair, len(obj.pairs))
	for i, p := range obj.pairs {
		out[i] = Pair{Key: p.Key, Value: plain(p.Value)}
	}
	return out
}

func parseDocument(src string) (any, error) {
	p := &literalParser{src: src}
	p.skipSpace()
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing %q", p.peekText())
	}
	return v, nil
}

const maxLiteralDepth = 64

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *literalParser) peekText() string {
	end := p.pos + 12
	if end > len(p.src) {
		end = len(p.src)
	}
	return p.src[p.pos:end]
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "//"):
			nl := strings.IndexByte(p.src[p.pos:], '\n')
			if nl < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += nl + 1
			}
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 4
			}
		default:
			return
		}
	}
}

func (p *literalParser) value(depth int) (any, error) {
	if depth > maxLiteralDepth {
		return nil, p.errorf("nesting too deep")
	}
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}
	c := p.src[p.pos]
	switch {
	case c == '{':
		return p.object(depth)
	case c == '[':
		return p.array(depth)
	case c == '"' || c == '\'' || c == '`':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(rune(c)):
		return p.keyword()
	default:
		return nil, p.errorf("unexpected %q", string(c))
	}
}

func (p *literalParser) object(depth int) (any, error) {
	p.pos++ // {
	obj := &orderedObject{}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated object")
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return obj, nil
		}

		key, err := p.key()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++
		p.skipSpace()
		val, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		obj.pairs = append(obj.pairs, Pair{Key: key, Value: val})

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated object")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' in object, got %q", p.peekText())
		}
	}
}

func (p *literalParser) key() (string, error) {
	c := p.src[p.pos]
	switch {
	case c == '"' || c == '\'':
		s, err := p.str()
		if err != nil {
			return "", err
		}
		return s.(string), nil
	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.src) && (isIdentPart(rune(p.src[p.pos])) || p.src[p.pos] == '.') {
			p.pos++
		}
		return p.src[start:p.pos], nil
	case isIdentStart(rune(c)):
		return p.ident(), nil
	case c == '[':
		return "", p.errorf("computed keys are not data")
	case c == '.':
		return "", p.errorf("spread is not data")
	default:
		return "", p.errorf("invalid key start %q", string(c))
	}
}

func (p *literalParser) array(depth int) (any, error) {
	p.pos++ // [
	out := []any{}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return out, nil
		}
		val, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, val)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.errorf("expected ',' or ']' in array, got %q", p.peekText())
		}
	}
}

func (p *literalParser) str() (any, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return nil, p.errorf("unterminated escape")
			}
			if err := p.escape(&b); err != nil {
				return nil, err
			}
		case quote == '`' && c == '$' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '{':
			return nil, p.errorf("template substitution is not data")
		case c == '\n' && quote != '`':
			return nil, p.errorf("newline in string")
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return nil, p.errorf("unterminated string")
}

func (p *literalParser) escape(b *strings.Builder) error {
	c := p.src[p.pos+1]
	p.pos += 2
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'u':
		if p.pos < len(p.src) && p.src[p.pos] == '{' {
			end := strings.IndexByte(p.src[p.pos:], '}')
			if end < 0 {
				return p.errorf("bad unicode escape")
			}
			n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+end], 16, 32)
			if err != nil {
				return p.errorf("bad unicode escape")
			}
			b.WriteRune(rune(n))
			p.pos += end + 1
			return nil
		}
		return p.hexEscape(b, 4)
	case 'x':
		return p.hexEscape(b, 2)
	default:
		b.WriteByte(c)
	}
	return nil
}

func (p *literalParser) hexEscape(b *strings.Builder, n int) error {
	if p.pos+n > len(p.src) {
		return p.errorf("short hex escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return p.errorf("bad hex escape")
	}
	b.WriteRune(rune(v))
	p.pos += n
	return nil
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
		if p.pos < len(p.src) && isIdentStart(rune(p.src[p.pos])) {
			word := p.ident()
			if word == "Infinity" {
				if c == '-' {
					return math.Inf(-1), nil
				}
				return math.Inf(1), nil
			}
			return nil, p.errorf("identifier %q is not data", word)
		}
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '_' || c == 'e' || c == 'E' ||
			c == 'x' || c == 'X' || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == 'n' {
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && p.pos > start && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	text = strings.TrimSuffix(text, "n") // bigint
	text = strings.TrimPrefix(text, "+")

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	neg := strings.HasPrefix(text, "-")
	if i, err := strconv.ParseInt(strings.TrimPrefix(text, "-"), 0, 64); err == nil {
		if neg {
			i = -i
		}
		return float64(i), nil
	}
	p.pos = start
	return nil, p.errorf("invalid number %q", text)
}

func (p *literalParser) keyword() (any, error) {
	start := p.pos
	word := p.ident()
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	}
	p.pos = start
	return nil, p.errorf("identifier %q is not data", word)
}

func (p *literalParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentPart(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
