package generator

// ancestry is an immutable chain of entity names from the current node back
// to the root of a recursive walk. A nil *ancestry is the empty chain.
type ancestry struct {
	name   string
	parent *ancestry
}

func (a *ancestry) push(name string) *ancestry {
	return &ancestry{name: name, parent: a}
}

func (a *ancestry) count(name string) int {
	n := 0
	for cur := a; cur != nil; cur = cur.parent {
		if cur.name == name {
			n++
		}
	}
	return n
}

func (a *ancestry) contains(name string) bool {
	return a.count(name) > 0
}

// names returns the chain root first.
func (a *ancestry) names() []string {
	var out []string
	for cur := a; cur != nil; cur = cur.parent {
		out = append(out, cur.name)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
