// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/pdiddy/book-metasearch/internal/normalize"
)

// defaultNamespace matches the first default namespace declaration.
var defaultNamespace = regexp.MustCompile(`\sxmlns="[^"]+"`)

// element is a minimal XML tree node.
type element struct {
	name     xml.Name
	attrs    []xml.Attr
	text     strings.Builder
	children []*element
}

// parseElements decodes data into an element tree and returns its root.
// Non-UTF-8 documents (e.g. EUC-KR) are transcoded by their declared
// encoding.
func parseElements(data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q", label)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var root *element
	var stack []*element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name, attrs: t.Attr}
			if n := len(stack); n > 0 {
				stack[n-1].children = append(stack[n-1].children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		case xml.CharData:
			if n := len(stack); n > 0 {
				stack[n-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	return root, nil
}

// findAll returns every descendant named (space, local), in document order.
func (e *element) findAll(space, local string) []*element {
	var out []*element
	var walk func(*element)
	walk = func(n *element) {
		for _, c := range n.children {
			if c.name.Space == space && c.name.Local == local {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// findFirst returns the first descendant named (space, local), or nil.
func (e *element) findFirst(space, local string) *element {
	for _, c := range e.children {
		if c.name.Space == space && c.name.Local == local {
			return c
		}
		if found := c.findFirst(space, local); found != nil {
			return found
		}
	}
	return nil
}

// childText returns the trimmed text of the first direct child with the
// given local name, ignoring namespaces.
func (e *element) childText(local string) string {
	for _, c := range e.children {
		if c.name.Local == local {
			return strings.TrimSpace(c.text.String())
		}
	}
	return ""
}

// flatten turns one item element into a raw key/value record. Child local
// names become keys; repeated children are joined with "; ". Attributes on
// the item itself are captured too, except namespace declarations.
func (e *element) flatten() normalize.Raw {
	raw := make(normalize.Raw, len(e.children)+len(e.attrs))
	for _, a := range e.attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		raw[a.Name.Local] = strings.TrimSpace(a.Value)
	}
	for _, c := range e.children {
		v := strings.TrimSpace(c.text.String())
		if v == "" {
			if _, ok := raw[c.name.Local]; !ok {
				raw[c.name.Local] = ""
			}
			continue
		}
		if prev := raw[c.name.Local]; prev != "" {
			v = prev + "; " + v
		}
		raw[c.name.Local] = v
	}
	return raw
}

// itemSet is the decoded content of one upstream XML response.
type itemSet struct {
	Items []normalize.Raw
	Total int
}

// decodeItems extracts item records and the declared total from an XML
// response. Items are looked up qualified by the root's default namespace;
// when that yields nothing the first default namespace declaration is
// stripped and the document re-parsed unqualified.
func decodeItems(name string, data []byte, itemTag, totalTag string) (itemSet, error) {
	root, err := parseElements(data)
	if err != nil {
		return itemSet{}, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	if root.name.Local == "error" {
		return itemSet{}, upstreamError(name, root)
	}

	ns := root.name.Space
	items := root.findAll(ns, itemTag)
	if len(items) == 0 && ns != "" {
		root, err = parseElements(stripDefaultNamespace(data))
		if err != nil {
			return itemSet{}, fmt.Errorf("%w: %s: namespace fallback: %v", ErrParse, name, err)
		}
		ns = ""
		items = root.findAll(ns, itemTag)
	}

	set := itemSet{Items: make([]normalize.Raw, 0, len(items))}
	for _, it := range items {
		set.Items = append(set.Items, it.flatten())
	}
	if t := root.findFirst(ns, totalTag); t != nil {
		set.Total = parseCount(t.text.String())
	}
	return set, nil
}

// stripDefaultNamespace removes the first default namespace declaration.
func stripDefaultNamespace(data []byte) []byte {
	loc := defaultNamespace.FindIndex(data)
	if loc == nil {
		return data
	}
	out := make([]byte, 0, len(data)-(loc[1]-loc[0]))
	out = append(out, data[:loc[0]]...)
	return append(out, data[loc[1]:]...)
}

// upstreamError reports an <error> document returned with HTTP 200, which
// is how the vendors signal bad keys or quota problems.
func upstreamError(name string, root *element) error {
	msg := root.childText("errorMessage")
	if msg == "" {
		msg = root.childText("error_msg")
	}
	if msg == "" {
		msg = strings.TrimSpace(root.text.String())
	}
	if msg == "" {
		msg = "error document"
	}
	return fmt.Errorf("%w: %s rejected request: %s", ErrTransport, name, msg)
}

// parseCount reads a declared total such as "1,234"; malformed input is 0.
func parseCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
