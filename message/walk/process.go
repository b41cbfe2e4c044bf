// Package walk processes every entity of a message tree along with the chain
// of entities containing it.
package walk

import (
	"github.com/zostay/go-mimestream/message"
	"github.com/zostay/go-mimestream/message/walker"
)

// Processor is a callback that can be passed to the AndProcess() function to
// do any kind of generic processing of a message and its sub-parts.
//
// The Processor is given an entity and the ancestry of the entity. If
// len(parents) is zero, then this is the entity that AndProcess() was called
// upon, which might not be the body of the root message.
//
// The Processor may return an error to cause AndProcess() to terminate
// immediately and return that error.
type Processor func(part message.Entity, parents []message.Entity) error

// AndProcess will walk the entity tree of a message (or a part of a message)
// and call the given Processor function for each entity found. It will
// terminate once all entities have been processed and return nil. If the
// Processor function returns an error, it will terminate early and return
// that error.
func AndProcess(processor Processor, e message.Entity) error {
	if e == nil {
		return nil
	}
	parents := make([]message.Entity, 0, 10)
	return andProcess(processor, e, parents)
}

// AndProcessLeaves works like AndProcess, but only calls the Processor for
// leaf parts.
func AndProcessLeaves(processor Processor, e message.Entity) error {
	return AndProcess(func(part message.Entity, parents []message.Entity) error {
		if _, isLeaf := part.(*message.Part); isLeaf {
			return processor(part, parents)
		}
		return nil
	}, e)
}

// AndProcessMultipart works like AndProcess, but only calls the Processor for
// multipart entities.
func AndProcessMultipart(processor Processor, e message.Entity) error {
	return AndProcess(func(part message.Entity, parents []message.Entity) error {
		if _, isMultipart := part.(*message.Multipart); isMultipart {
			return processor(part, parents)
		}
		return nil
	}, e)
}

func andProcess(
	processor Processor,
	part message.Entity,
	parents []message.Entity,
) error {
	err := processor(part, parents)
	if err != nil {
		return err
	}

	children := walker.Children(part)
	if len(children) == 0 {
		return nil
	}

	parents = append(parents, part)
	for _, child := range children {
		err := andProcess(processor, child, parents)
		if err != nil {
			return err
		}
	}

	return nil
}
