package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommitDeterminism(t *testing.T) {
	payload := CreatePostPayload{Slug: "hello-world"}

	c1, err := NewCommit(nil, payload, 100)
	require.NoError(t, err)
	c2, err := NewCommit(nil, payload, 100)
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID, "same inputs must produce the same ID")
	assert.Len(t, c1.ID, 32, "SHA-256 digest is 32 bytes")
	assert.True(t, c1.IsRoot())
}

func TestNewCommitIDChangesWithInput(t *testing.T) {
	payload := CreatePostPayload{Slug: "hello-world"}

	c1, err := NewCommit(nil, payload, 100)
	require.NoError(t, err)
	c2, err := NewCommit(nil, payload, 200)
	require.NoError(t, err)
	c3, err := NewCommit(c1.ID, payload, 100)
	require.NoError(t, err)
	c4, err := NewCommit(nil, DeletePostPayload{Slug: "hello-world"}, 100)
	require.NoError(t, err)

	assert.NotEqual(t, c1.ID, c2.ID, "timestamp must change the ID")
	assert.NotEqual(t, c1.ID, c3.ID, "parent must change the ID")
	assert.NotEqual(t, c1.ID, c4.ID, "payload must change the ID")
}

func TestCommitRecomputeID(t *testing.T) {
	parent, err := NewCommit(nil, CreatePostPayload{Slug: "a"}, 10)
	require.NoError(t, err)
	child, err := NewCommit(parent.ID, UpdatePostPayload{Slug: "a"}, 20)
	require.NoError(t, err)

	recomputed, err := child.RecomputeID()
	require.NoError(t, err)
	assert.Equal(t, child.ID, recomputed)
	assert.True(t, child.ChainsTo(parent))
	assert.False(t, parent.ChainsTo(child))
}

func TestPayloadRoundTrip(t *testing.T) {
	resID := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")

	payloads := []CommitPayload{
		CreatePostPayload{Slug: "p"},
		UpdatePostPayload{Slug: "p"},
		DeletePostPayload{Slug: "p"},
		CreateResourcePayload{ID: resID},
		DeleteResourcePayload{ID: resID},
	}

	for _, p := range payloads {
		data, err := EncodePayload(p)
		require.NoError(t, err)

		decoded, err := DecodePayload(data)
		require.NoError(t, err)
		assert.Equal(t, p, decoded)
	}
}

func TestDecodePayloadUnknownKind(t *testing.T) {
	_, err := DecodePayload([]byte(`{"kind":"drop_table"}`))
	assert.Error(t, err)
}

func TestDecodePayloadBadResourceID(t *testing.T) {
	_, err := DecodePayload([]byte(`{"kind":"create_resource","resourceId":"nope"}`))
	assert.Error(t, err)
}

func TestCommitJSONRoundTrip(t *testing.T) {
	parent, err := NewCommit(nil, CreatePostPayload{Slug: "a"}, 10)
	require.NoError(t, err)
	c, err := NewCommit(parent.ID, DeleteResourcePayload{ID: uuid.New()}, 20)
	require.NoError(t, err)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Commit
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c, decoded)

	recomputed, err := decoded.RecomputeID()
	require.NoError(t, err)
	assert.Equal(t, c.ID, recomputed, "round-tripped commit must still verify")
}
