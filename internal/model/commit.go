package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// commitDomain is the domain prefix for commit identifiers.
// The version suffix enables future digest migration.
const commitDomain = "chronicle/commit/v1"

// Commit is an immutable record of one logical change to the content
// store. Commits form a singly linked chain: each commit references its
// parent by ID, and the root commit's parent ID is the empty byte
// sequence. A commit records that a mutation happened, never the data it
// produced.
type Commit struct {
	// ID is the SHA-256 digest of the commit's timestamp, parent ID and
	// payload. It is content-derived and globally verifiable.
	ID []byte

	// Timestamp is the Unix timestamp of the commit's creation, UTC.
	Timestamp int64

	// PrevCommitID is the ID of the parent commit, or empty for the
	// chain root.
	PrevCommitID []byte

	// Payload describes the mutation that produced this commit.
	Payload CommitPayload
}

// PayloadKind discriminates the commit payload variants.
type PayloadKind string

// The set of payload kinds is closed: the synchronizer folds over it
// exhaustively and must fail loudly on anything it does not know.
const (
	KindCreatePost     PayloadKind = "create_post"
	KindUpdatePost     PayloadKind = "update_post"
	KindDeletePost     PayloadKind = "delete_post"
	KindCreateResource PayloadKind = "create_resource"
	KindDeleteResource PayloadKind = "delete_resource"
)

// CommitPayload is the closed sum of mutation descriptions a commit can
// carry. Implementations live in this package only.
type CommitPayload interface {
	Kind() PayloadKind
}

// CreatePostPayload records the creation of a post.
type CreatePostPayload struct {
	Slug string
}

// UpdatePostPayload records a full replacement of a post.
type UpdatePostPayload struct {
	Slug string
}

// DeletePostPayload records the deletion of a post.
type DeletePostPayload struct {
	Slug string
}

// CreateResourcePayload records the creation of a free-standing resource.
type CreateResourcePayload struct {
	ID uuid.UUID
}

// DeleteResourcePayload records the deletion of a free-standing resource.
type DeleteResourcePayload struct {
	ID uuid.UUID
}

func (CreatePostPayload) Kind() PayloadKind     { return KindCreatePost }
func (UpdatePostPayload) Kind() PayloadKind     { return KindUpdatePost }
func (DeletePostPayload) Kind() PayloadKind     { return KindDeletePost }
func (CreateResourcePayload) Kind() PayloadKind { return KindCreateResource }
func (DeleteResourcePayload) Kind() PayloadKind { return KindDeleteResource }

// payloadEnvelope is the serialized form of a commit payload. Field
// order is fixed by the struct, so encoding is deterministic and safe to
// feed into the commit digest.
type payloadEnvelope struct {
	Kind       PayloadKind `json:"kind"`
	Slug       string      `json:"slug,omitempty"`
	ResourceID string      `json:"resourceId,omitempty"`
}

// EncodePayload serializes a commit payload for storage and digest
// computation.
func EncodePayload(p CommitPayload) ([]byte, error) {
	env := payloadEnvelope{Kind: p.Kind()}
	switch v := p.(type) {
	case CreatePostPayload:
		env.Slug = v.Slug
	case UpdatePostPayload:
		env.Slug = v.Slug
	case DeletePostPayload:
		env.Slug = v.Slug
	case CreateResourcePayload:
		env.ResourceID = v.ID.String()
	case DeleteResourcePayload:
		env.ResourceID = v.ID.String()
	default:
		return nil, fmt.Errorf("encode commit payload: unknown payload type %T", p)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode commit payload: %w", err)
	}
	return data, nil
}

// DecodePayload parses a serialized commit payload. An unknown kind is a
// data corruption error, never silently skipped.
func DecodePayload(data []byte) (CommitPayload, error) {
	var env payloadEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode commit payload: %w", err)
	}

	switch env.Kind {
	case KindCreatePost:
		return CreatePostPayload{Slug: env.Slug}, nil
	case KindUpdatePost:
		return UpdatePostPayload{Slug: env.Slug}, nil
	case KindDeletePost:
		return DeletePostPayload{Slug: env.Slug}, nil
	case KindCreateResource, KindDeleteResource:
		id, err := uuid.Parse(env.ResourceID)
		if err != nil {
			return nil, fmt.Errorf("decode commit payload: resource id: %w", err)
		}
		if env.Kind == KindCreateResource {
			return CreateResourcePayload{ID: id}, nil
		}
		return DeleteResourcePayload{ID: id}, nil
	default:
		return nil, fmt.Errorf("decode commit payload: unknown kind %q", env.Kind)
	}
}

// NewCommit builds a commit for the given payload, chained to the parent
// with ID prev. The empty byte sequence denotes the chain root.
func NewCommit(prev []byte, payload CommitPayload, timestamp int64) (Commit, error) {
	data, err := EncodePayload(payload)
	if err != nil {
		return Commit{}, err
	}

	return Commit{
		ID:           commitDigest(timestamp, prev, data),
		Timestamp:    timestamp,
		PrevCommitID: prev,
		Payload:      payload,
	}, nil
}

// RecomputeID derives the commit's identifier from its stored fields.
// For an untampered commit it reproduces the stored ID exactly.
func (c Commit) RecomputeID() ([]byte, error) {
	data, err := EncodePayload(c.Payload)
	if err != nil {
		return nil, err
	}
	return commitDigest(c.Timestamp, c.PrevCommitID, data), nil
}

// commitDigest hashes (timestamp, parent id, payload) with domain
// separation. The parent ID is length-prefixed so the field boundaries
// are unambiguous.
func commitDigest(timestamp int64, prev, payload []byte) []byte {
	h := sha256.New()
	h.Write([]byte(commitDomain))
	h.Write([]byte{0x00})

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(timestamp))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(prev)))
	h.Write(buf[:])
	h.Write(prev)
	h.Write(payload)

	return h.Sum(nil)
}

// IsRoot reports whether the commit is the root of its chain.
func (c Commit) IsRoot() bool {
	return len(c.PrevCommitID) == 0
}

// ChainsTo reports whether the commit's parent reference matches the
// given commit's ID.
func (c Commit) ChainsTo(parent Commit) bool {
	return bytes.Equal(c.PrevCommitID, parent.ID)
}

// commitJSON is the wire form of a commit. Byte slices serialize as
// base64 per encoding/json; the payload travels in its envelope form.
type commitJSON struct {
	ID           []byte          `json:"id"`
	Timestamp    int64           `json:"timestamp"`
	PrevCommitID []byte          `json:"prevCommitId"`
	Payload      json.RawMessage `json:"payload"`
}

// MarshalJSON implements json.Marshaler.
func (c Commit) MarshalJSON() ([]byte, error) {
	payload, err := EncodePayload(c.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(commitJSON{
		ID:           c.ID,
		Timestamp:    c.Timestamp,
		PrevCommitID: c.PrevCommitID,
		Payload:      payload,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Commit) UnmarshalJSON(data []byte) error {
	var cj commitJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return fmt.Errorf("decode commit: %w", err)
	}
	payload, err := DecodePayload(cj.Payload)
	if err != nil {
		return err
	}
	c.ID = cj.ID
	c.Timestamp = cj.Timestamp
	c.PrevCommitID = cj.PrevCommitID
	c.Payload = payload
	return nil
}
