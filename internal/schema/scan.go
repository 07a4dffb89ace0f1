package schema

import "strings"

// closers maps an opening quote byte to its closing byte.
var closers = map[byte]byte{
	'\'': '\'',
	'"':  '"',
	'[':  ']',
	'`':  '`',
}

func isQuote(b byte) bool {
	_, ok := closers[b]
	return ok
}

// skipQuoted returns the index just past the quoted run that opens at s[i].
// A doubled closer ('' or ]]) is an escape and does not end the run.
// Unterminated runs end at len(s).
func skipQuoted(s string, i int) int {
	closer := closers[s[i]]
	for j := i + 1; j < len(s); j++ {
		if s[j] != closer {
			continue
		}
		if j+1 < len(s) && s[j+1] == closer {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}

// matchParen returns the index of the ')' that closes the '(' at s[open],
// or -1 when the parentheses are unbalanced.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); {
		switch c := s[i]; {
		case isQuote(c):
			i = skipQuoted(s, i)
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// stripComments removes -- line comments and /* */ block comments that sit
// outside quoted runs. Line breaks are kept.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isQuote(c):
			end := skipQuoted(s, i)
			b.WriteString(s[i:end])
			i = end
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return b.String()
			}
			i += nl
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			b.WriteByte(' ')
			i += end + 4
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// mask blanks out the inside of string literals and parenthesized groups so
// keyword searches only see top-level text. The result has the same length
// as s, so indexes found in it apply to s.
func mask(s string) string {
	out := []byte(s)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'':
			end := skipQuoted(s, i)
			for j := i + 1; j < end-1; j++ {
				out[j] = '_'
			}
			i = end
		case c == '(':
			end := matchParen(s, i)
			if end < 0 {
				end = len(s)
			}
			for j := i + 1; j < end; j++ {
				out[j] = '_'
			}
			i = end
		default:
			i++
		}
	}
	return string(out)
}

// readIdentifier reads one identifier at the start of s: a bracket, double or
// backtick quoted name, or a bare word. It returns the unquoted name and the
// remainder of s.
func readIdentifier(s string) (name, rest string, quoted bool) {
	if s == "" {
		return "", "", false
	}
	if isQuote(s[0]) && s[0] != '\'' {
		end := skipQuoted(s, 0)
		closer := string(closers[s[0]])
		inner := s[1:end]
		inner = strings.TrimSuffix(inner, closer)
		return strings.ReplaceAll(inner, closer+closer, closer), s[end:], true
	}
	end := strings.IndexAny(s, " \t\r\n(),.;")
	if end < 0 {
		end = len(s)
	}
	return s[:end], s[end:], false
}

// SplitIdentifier splits a possibly qualified, possibly quoted name such as
// [dbo].[User], "public"."user" or dbo.User into its unquoted parts.
func SplitIdentifier(name string) []string {
	var parts []string
	s := strings.TrimSpace(name)
	for s != "" {
		part, rest, _ := readIdentifier(s)
		if part != "" {
			parts = append(parts, part)
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, ".") {
			break
		}
		s = strings.TrimSpace(rest[1:])
	}
	return parts
}
