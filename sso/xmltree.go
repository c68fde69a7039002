package sso

import (
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

// Strict accessors over the parsed XML tree. Lookups match on the local tag
// name so documents work regardless of the namespace prefixes a provider
// chooses.

// childElement returns the first direct child with the given local name
func childElement(el *etree.Element, local string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			return child
		}
	}
	return nil
}

// childElements returns every direct child with the given local name
func childElements(el *etree.Element, local string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			out = append(out, child)
		}
	}
	return out
}

// descendantElement walks a path of local names from el
func descendantElement(el *etree.Element, path ...string) *etree.Element {
	cur := el
	for _, local := range path {
		cur = childElement(cur, local)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// attrValue returns the value of a named attribute, ignoring namespace prefixes
func attrValue(el *etree.Element, local string) string {
	if el == nil {
		return ""
	}
	for _, attr := range el.Attr {
		if attr.Key == local {
			return attr.Value
		}
	}
	return ""
}

// elementText returns trimmed character data of an element
func elementText(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// stripWhitespace removes every whitespace rune, including newlines inside
// base64 certificate payloads
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
