package model

import "github.com/google/uuid"

// Delta is the transient set of changes needed to bring one replica up
// to date with another. It is computed by the synchronizer, applied in a
// single transaction by the destination store, and never persisted
// itself.
//
// Added posts and resources are order-independent sets; Commits is the
// ordered list of every commit in the synchronization window, including
// commits whose effects folded away, so the destination's chain stays a
// full copy of the source's.
type Delta struct {
	AddedPosts         []PostWithResources `json:"addedPosts,omitempty"`
	DeletedPostSlugs   []string            `json:"deletedPostSlugs,omitempty"`
	AddedResources     []Resource          `json:"addedResources,omitempty"`
	DeletedResourceIDs []uuid.UUID         `json:"deletedResourceIds,omitempty"`
	Commits            []Commit            `json:"commits,omitempty"`
}

// Empty reports whether applying the delta would change nothing.
func (d *Delta) Empty() bool {
	return len(d.AddedPosts) == 0 &&
		len(d.DeletedPostSlugs) == 0 &&
		len(d.AddedResources) == 0 &&
		len(d.DeletedResourceIDs) == 0 &&
		len(d.Commits) == 0
}
