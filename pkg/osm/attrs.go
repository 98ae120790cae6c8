package osm

import "strings"

// AttrVisitor is called once per key/value pair, in line order.
type AttrVisitor func(key, value string)

// VisitAttributes walks key="value" pairs in text, calling visit for each.
// Values may be quoted with ' or " and are passed through verbatim; no
// character entities are decoded. The walk stops silently at the first
// pair that does not parse (no '=', no opening quote, or no closing quote),
// dropping the rest of the text. It returns the number of pairs visited.
func VisitAttributes(text string, visit AttrVisitor) int {
	n := 0
	for {
		eq := strings.IndexByte(text, '=')
		if eq < 0 {
			return n
		}
		key := strings.TrimSpace(text[:eq])

		rest := text[eq+1:]
		if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
			return n
		}
		quote := rest[0]
		rest = rest[1:]

		end := strings.IndexByte(rest, quote)
		if end < 0 {
			return n
		}

		visit(key, rest[:end])
		n++

		text = strings.TrimLeft(rest[end+1:], " \t")
	}
}

// Attributes collects every pair in text into a map. Later duplicates
// replace earlier ones.
func Attributes(text string) map[string]string {
	attrs := make(map[string]string)
	VisitAttributes(text, func(key, value string) {
		attrs[key] = value
	})
	return attrs
}
