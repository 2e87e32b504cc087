package model

import (
	"sort"
)

// Tag is a categorical label attached to a Record (a genre, theme,
// explicit genre or demographic).
//
// Tag identity is its ID alone.
type Tag struct {
	// ID is the remote identifier and the dedup key.
	ID int `json:"id"`

	// URL is the remote page for the tag.
	URL string `json:"url"`

	// Name is the display name, e.g. "Action".
	Name string `json:"name"`
}

// Tags is a set of tags with no two entries sharing an ID.
//
// Build it with UnionTags; the entries are kept sorted by ID so a set
// always serializes the same way.
type Tags []Tag

// UnionTags merges several raw tag lists into one set.
//
// Lists are consumed in order and the first tag seen for an ID wins, so a
// later list can never rename a tag an earlier list already contributed.
//
// Example:
//
//	UnionTags(
//	    []Tag{{ID: 1, Name: "Action"}},
//	    []Tag{{ID: 1, Name: "Other"}, {ID: 2, Name: "Drama"}},
//	) // [{1 Action} {2 Drama}]
func UnionTags(lists ...[]Tag) Tags {
	seen := make(map[int]struct{})
	var out Tags
	for _, list := range lists {
		for _, tag := range list {
			if _, ok := seen[tag.ID]; ok {
				continue
			}
			seen[tag.ID] = struct{}{}
			out = append(out, tag)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Has reports whether the set contains a tag with the given ID.
func (ts Tags) Has(id int) bool {
	i := sort.Search(len(ts), func(i int) bool { return ts[i].ID >= id })
	return i < len(ts) && ts[i].ID == id
}

// Names returns the tag names sorted alphabetically.
func (ts Tags) Names() []string {
	names := make([]string, len(ts))
	for i, tag := range ts {
		names[i] = tag.Name
	}
	sort.Strings(names)
	return names
}
