// Package model defines the persistent data model of chronicle: posts,
// binary resources, hash-chained commits, and the delta aggregate used
// to replicate content between stores.
package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Post is a single blog post.
//
// A post is identified by its slug, which is unique and immutable after
// creation. Timestamps are Unix seconds in UTC; UpdateTimestamp is never
// less than CreateTimestamp. Content is an opaque serialized document
// tree; the storage engine never inspects it.
type Post struct {
	// Slug uniquely identifies the post.
	Slug string `json:"slug"`

	// Title of the post.
	Title string `json:"title"`

	// Author of the post.
	Author string `json:"author"`

	// CreateTimestamp is the Unix timestamp of the post's creation, UTC.
	CreateTimestamp int64 `json:"createTimestamp"`

	// UpdateTimestamp is the Unix timestamp of the last update, UTC.
	UpdateTimestamp int64 `json:"updateTimestamp"`

	// Category the post belongs to.
	Category string `json:"category"`

	// Tags attached to the post. Order is not significant.
	Tags []string `json:"tags"`

	// Views counts how many times the post has been served.
	Views int64 `json:"views"`

	// Content is the serialized document tree of the post body.
	// Omitted from post listings, which carry metadata only.
	Content json.RawMessage `json:"content,omitempty"`
}

// Resource is a binary object, either free-standing or attached to a post.
//
// Resources are addressed by UUID. A post-attached resource carries the
// slug of its owning post and is removed together with it.
type Resource struct {
	// ID uniquely identifies the resource.
	ID uuid.UUID `json:"id"`

	// Name is a human-readable file name, not an identity.
	Name string `json:"name"`

	// PostSlug is the owning post's slug, or empty for a free-standing
	// resource.
	PostSlug string `json:"postSlug,omitempty"`

	// Type is the MIME type of the resource data.
	Type string `json:"type"`

	// Data is the raw resource payload. Omitted from resource listings.
	Data []byte `json:"data,omitempty"`
}

// PostWithResources bundles a post with its attached resources for
// transport inside a Delta.
type PostWithResources struct {
	Post      Post       `json:"post"`
	Resources []Resource `json:"resources,omitempty"`
}
