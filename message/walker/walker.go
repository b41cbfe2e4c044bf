// Package walker visits every entity of a parsed message tree, depth first,
// without recursion.
package walker

import (
	"github.com/zostay/go-mimestream/message"
)

// Parts is a function that can be processed for each entity of a message. The
// depth is 0 for the entity the walk started from. The index i is the
// position of the entity among its siblings. The body of an embedded message
// is the only child of its message part, at index 0.
type Parts func(depth, i int, part message.Entity) error

// Children returns the entities directly contained in e.
func Children(e message.Entity) []message.Entity {
	switch e := e.(type) {
	case *message.Multipart:
		return e.GetParts()
	case *message.MessagePart:
		if m := e.Message(); m != nil && m.Body != nil {
			return []message.Entity{m.Body}
		}
	}
	return nil
}

// Walk performs a depth first search for all the entities of a message
// starting with the given one. It calls the Parts function for each entity.
// If the function returns an error, then processing stops immediately and the
// error is returned.
func (w Parts) Walk(e message.Entity) error {
	type part struct {
		depth int
		i     int
		part  message.Entity
	}

	openStack := make([]part, 0, 10)

	pushStack := func(depth int, e message.Entity) {
		parts := Children(e)
		for i := len(parts) - 1; i >= 0; i-- {
			openStack = append(openStack, part{depth, i, parts[i]})
		}
	}

	popStack := func() part {
		end := len(openStack) - 1
		p := openStack[end]
		openStack = openStack[:end]
		return p
	}

	if e == nil {
		return nil
	}

	openStack = append(openStack, part{0, 0, e})
	for len(openStack) > 0 {
		p := popStack()
		if err := w(p.depth, p.i, p.part); err != nil {
			return err
		}
		pushStack(p.depth+1, p.part)
	}

	return nil
}

// WalkMessage walks the body of the message.
func (w Parts) WalkMessage(m *message.Message) error {
	if m == nil {
		return nil
	}
	return w.Walk(m.Body)
}

// WalkLeaves will call the Parts function for each leaf *message.Part using a
// depth first traversal. It will terminate the walk immediately if the Parts
// function returns an error and will return the error.
func (w Parts) WalkLeaves(e message.Entity) error {
	var lw Parts = func(depth, i int, part message.Entity) error {
		if _, isLeaf := part.(*message.Part); isLeaf {
			return w(depth, i, part)
		}
		return nil
	}
	return lw.Walk(e)
}

// WalkMultipart will call the Parts function for each *message.Multipart using
// a depth first traversal. It will terminate the walk immediately if the Parts
// function returns an error and will return that error.
func (w Parts) WalkMultipart(e message.Entity) error {
	var mw Parts = func(depth, i int, part message.Entity) error {
		if _, isMultipart := part.(*message.Multipart); isMultipart {
			return w(depth, i, part)
		}
		return nil
	}
	return mw.Walk(e)
}
