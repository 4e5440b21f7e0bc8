// Package xmlq is a small typed query layer over parsed SoundTouch XML.
//
// Lookups follow DOM getElementsByTagName semantics: searching from a
// document (see DocumentNode) includes the root element, searching from an
// element only covers its descendants, and matches come in document order.
package xmlq

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
)

// Parse decodes a complete XML document.
func Parse(payload []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return nil, apperrors.NewParseError("document", err)
	}
	if doc.Root() == nil {
		return nil, apperrors.NewParseError("document", errNoRoot)
	}
	return doc, nil
}

// Element returns the first descendant named tag in document order.
func Element(node *etree.Element, tag string) *etree.Element {
	var found *etree.Element
	walk(node, func(el *etree.Element) bool {
		if el.Tag == tag {
			found = el
			return false
		}
		return true
	})
	return found
}

// Elements returns every descendant named tag in document order.
func Elements(node *etree.Element, tag string) []*etree.Element {
	var found []*etree.Element
	walk(node, func(el *etree.Element) bool {
		if el.Tag == tag {
			found = append(found, el)
		}
		return true
	})
	return found
}

// walk visits the descendants of node depth-first, pre-order, until visit
// returns false.
func walk(node *etree.Element, visit func(*etree.Element) bool) bool {
	if node == nil {
		return true
	}
	for _, tok := range node.Child {
		el, ok := tok.(*etree.Element)
		if !ok {
			continue
		}
		if !visit(el) || !walk(el, visit) {
			return false
		}
	}
	return true
}

// DocumentNode returns the node to query a whole document from. Its
// descendants include the root element.
func DocumentNode(doc *etree.Document) *etree.Element {
	return &doc.Element
}

// ElementValue returns the trimmed text of the first child of the first
// descendant named tag. The element must exist and its first child must be
// character data.
func ElementValue(node *etree.Element, tag string) (string, bool) {
	return Text(Element(node, tag))
}

// ElementAttr returns attribute attr of the first descendant named tag.
func ElementAttr(node *etree.Element, tag, attr string) (string, bool) {
	return Attr(Element(node, tag), attr)
}

// Attr returns attribute attr of node itself.
func Attr(node *etree.Element, attr string) (string, bool) {
	if node == nil {
		return "", false
	}
	a := node.SelectAttr(attr)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// Text returns the trimmed first child of node when it is character data.
func Text(node *etree.Element) (string, bool) {
	if node == nil || len(node.Child) == 0 {
		return "", false
	}
	data, ok := node.Child[0].(*etree.CharData)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(data.Data), true
}

// Int parses an optional base-10 integer. Absent input stays absent.
func Int(value string, found bool) (*int, error) {
	if !found {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Bool compares against the literal "true"; absence is false.
func Bool(value string, found bool) bool {
	return found && value == "true"
}

// FirstChildElement returns the first child element of node, skipping
// whitespace and other non-element tokens.
func FirstChildElement(node *etree.Element) *etree.Element {
	if node == nil {
		return nil
	}
	for _, tok := range node.Child {
		if el, ok := tok.(*etree.Element); ok {
			return el
		}
	}
	return nil
}

// Name returns the local tag name of node, or "" for nil.
func Name(node *etree.Element) string {
	if node == nil {
		return ""
	}
	return node.Tag
}

// Serialize renders node as a standalone XML fragment.
func Serialize(node *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(node.Copy())
	return doc.WriteToString()
}
