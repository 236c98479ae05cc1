package models

import (
	"encoding/json"
	"slices"
)

// DirtySet is a set of nodes pending recomputation, or "all nodes".
type DirtySet struct {
	all bool
	ids map[NodeID]struct{}
}

// AllDirty returns a set that contains every node.
func AllDirty() DirtySet {
	return DirtySet{all: true}
}

// NewDirtySet returns a set holding ids.
func NewDirtySet(ids ...NodeID) DirtySet {
	d := DirtySet{ids: make(map[NodeID]struct{}, len(ids))}
	for _, id := range ids {
		d.ids[id] = struct{}{}
	}

	return d
}

func (d DirtySet) All() bool {
	return d.all
}

func (d DirtySet) Has(id NodeID) bool {
	if d.all {
		return true
	}

	_, ok := d.ids[id]

	return ok
}

// Len returns the number of explicit members. It is -1 for the "all" set.
func (d DirtySet) Len() int {
	if d.all {
		return -1
	}

	return len(d.ids)
}

func (d DirtySet) Empty() bool {
	return !d.all && len(d.ids) == 0
}

// Add inserts ids. Adding to the "all" set is a no-op.
func (d *DirtySet) Add(ids ...NodeID) {
	if d.all {
		return
	}

	if d.ids == nil {
		d.ids = make(map[NodeID]struct{}, len(ids))
	}

	for _, id := range ids {
		d.ids[id] = struct{}{}
	}
}

// Merge adds every member of other.
func (d *DirtySet) Merge(other DirtySet) {
	if other.all {
		d.all = true
		d.ids = nil

		return
	}

	for id := range other.ids {
		d.Add(id)
	}
}

// Remove drops id from an explicit set.
func (d *DirtySet) Remove(id NodeID) {
	delete(d.ids, id)
}

// IDs returns the explicit members in ascending order.
func (d DirtySet) IDs() []NodeID {
	out := make([]NodeID, 0, len(d.ids))
	for id := range d.ids {
		out = append(out, id)
	}

	slices.Sort(out)

	return out
}

func (d DirtySet) MarshalJSON() ([]byte, error) {
	if d.all {
		return json.Marshal("all")
	}

	return json.Marshal(d.IDs())
}
