package openapi

import (
	"strings"

	"github.com/speakeasy-api/openapi/jsonpointer"
)

// ComponentsPrefix is the only pointer form the resolver accepts.
const ComponentsPrefix = "#/components/"

// maxRefHops bounds alias chains followed by Follow.
const maxRefHops = 32

// ResolvedReference is the outcome of resolving a $ref.
type ResolvedReference struct {
	// Name is the last pointer segment, i.e. the component's declared name
	Name string
	// Pointer is the original $ref string
	Pointer string
	// Target is the node the pointer designates
	Target *Map
}

// Resolver resolves internal component references against a Document.
// It never mutates the document and is safe for concurrent use.
type Resolver struct {
	doc *Document
}

// NewResolver returns a Resolver for doc.
func NewResolver(doc *Document) *Resolver {
	return &Resolver{doc: doc}
}

// Resolve walks pointer from the document root.
func (r *Resolver) Resolve(pointer string) (ResolvedReference, error) {
	if !strings.HasPrefix(pointer, ComponentsPrefix) {
		return ResolvedReference{}, &UnsupportedReferenceError{
			Ref:     pointer,
			Message: "only " + ComponentsPrefix + "... references are supported",
		}
	}

	rest := strings.TrimPrefix(pointer, ComponentsPrefix)
	if err := jsonpointer.JSONPointer("/components/" + rest).Validate(); err != nil {
		return ResolvedReference{}, &UnsupportedReferenceError{Ref: pointer, Cause: err}
	}

	raw := strings.Split(rest, "/")
	segments := make([]string, len(raw))
	for i, s := range raw {
		segments[i] = unescapeToken(s)
	}

	cur := r.doc.Components()
	if cur == nil {
		return ResolvedReference{}, &ReferenceNotFoundError{Ref: pointer, Segment: "components"}
	}

	var target any
	for i, seg := range segments {
		next, ok := cur.Get(seg)
		if !ok {
			return ResolvedReference{}, &ReferenceNotFoundError{
				Ref:     pointer,
				Segment: strings.Join(raw[:i+1], "/"),
			}
		}
		target = next
		if i == len(segments)-1 {
			break
		}
		cur = AsMap(next)
		if cur == nil {
			return ResolvedReference{}, &ReferenceNotFoundError{
				Ref:     pointer,
				Segment: strings.Join(raw[:i+2], "/"),
			}
		}
	}

	node := AsMap(target)
	if node == nil {
		return ResolvedReference{}, &ReferenceNotFoundError{
			Ref:     pointer,
			Segment: rest,
			Message: "is not an object",
		}
	}

	return ResolvedReference{
		Name:    segments[len(segments)-1],
		Pointer: pointer,
		Target:  node,
	}, nil
}

// Follow returns node itself when it has no $ref, otherwise the node at the
// end of its reference chain. Components that merely alias another
// component are followed transitively.
func (r *Resolver) Follow(node *Map) (*Map, error) {
	seen := map[string]bool{}
	for range maxRefHops {
		ref, ok := Ref(node)
		if !ok {
			return node, nil
		}
		if seen[ref] {
			return nil, &UnsupportedReferenceError{Ref: ref, Message: "reference cycle"}
		}
		seen[ref] = true

		resolved, err := r.Resolve(ref)
		if err != nil {
			return nil, err
		}
		node = resolved.Target
	}
	ref, _ := Ref(node)
	return nil, &UnsupportedReferenceError{Ref: ref, Message: "reference chain too long"}
}

func unescapeToken(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}
