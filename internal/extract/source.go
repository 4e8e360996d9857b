package extract

import "strings"

// skipOpaque returns the index just past a string or comment starting at i,
// or i when src[i] starts neither.
func skipOpaque(src string, i int) int {
	if i >= len(src) {
		return i
	}
	switch c := src[i]; {
	case c == '"' || c == '\'' || c == '`':
		j := i + 1
		for j < len(src) {
			switch src[j] {
			case '\\':
				j += 2
				continue
			case c:
				return j + 1
			case '\n':
				if c != '`' {
					return j
				}
			}
			j++
		}
		return len(src)
	case strings.HasPrefix(src[i:], "//"):
		nl := strings.IndexByte(src[i:], '\n')
		if nl < 0 {
			return len(src)
		}
		return i + nl
	case strings.HasPrefix(src[i:], "/*"):
		end := strings.Index(src[i+2:], "*/")
		if end < 0 {
			return len(src)
		}
		return i + 2 + end + 2
	}
	return i
}

func isComment(src string, i int) bool {
	return strings.HasPrefix(src[i:], "//") || strings.HasPrefix(src[i:], "/*")
}

// matchBracket returns the index of the bracket closing the one at open,
// ignoring brackets inside strings and comments. It returns -1 when the
// source ends first.
func matchBracket(src string, open int) int {
	depth := 0
	for i := open; i < len(src); {
		if next := skipOpaque(src, i); next != i {
			i = next
			continue
		}
		switch src[i] {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// firstObject finds the first '{' at nesting depth one inside the bracketed
// span src[open:closing] and returns its bounds.
func firstObject(src string, open, closing int) (int, int, bool) {
	depth := 0
	for i := open; i <= closing; {
		if next := skipOpaque(src, i); next != i {
			i = next
			continue
		}
		switch src[i] {
		case '{':
			if depth == 1 {
				end := matchBracket(src, i)
				if end < 0 || end > closing {
					return 0, 0, false
				}
				return i, end, true
			}
			depth++
		case '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
		i++
	}
	return 0, 0, false
}

// splitTopLevel splits body at any of seps occurring outside nested brackets,
// strings and comments. Comments are dropped from the output. With angles set,
// '<' and '>' nest as well (generic type arguments).
func splitTopLevel(body, seps string, angles bool) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		out = append(out, cur.String())
		cur.Reset()
	}
	for i := 0; i < len(body); {
		if isComment(body, i) {
			i = skipOpaque(body, i)
			continue
		}
		if next := skipOpaque(body, i); next != i {
			cur.WriteString(body[i:next])
			i = next
			continue
		}
		c := body[i]
		switch {
		case c == '{' || c == '[' || c == '(' || (angles && c == '<'):
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		case angles && c == '>' && (i == 0 || body[i-1] != '='):
			depth--
		case depth == 0 && strings.IndexByte(seps, c) >= 0:
			flush()
			i++
			continue
		}
		cur.WriteByte(c)
		i++
	}
	flush()
	return out
}

// indexTopLevel returns the first index of sep in s outside brackets and
// strings, or -1.
func indexTopLevel(s string, sep byte) int {
	depth := 0
	for i := 0; i < len(s); {
		if next := skipOpaque(s, i); next != i {
			i = next
			continue
		}
		switch c := s[i]; {
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		case c == sep && depth == 0:
			return i
		}
		i++
	}
	return -1
}

func unquote(s string) string {
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}
