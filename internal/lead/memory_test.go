package lead

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	assert.Equal(t, "alice", Identity("alice"))
	assert.Equal(t, FallbackIdentity, Identity(""))
	assert.Equal(t, FallbackIdentity, Identity("   "))
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	ok, err := s.IsRegistered(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, Lead{
		Identity: "alice",
		Country:  "United States",
		Phone:    "+15551234567",
		Email:    "a@b.co",
	}))

	ok, err = s.IsRegistered(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	leads := s.Leads()
	require.Len(t, leads, 1)
	assert.Equal(t, "United States", leads[0].Country)
	assert.False(t, leads[0].CreatedAt.IsZero())
}

func TestInMemoryStoreInjectedErrors(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	s.LookupErr = errors.New("backend down")
	s.SaveErr = errors.New("backend down")

	_, err := s.IsRegistered(ctx, "alice")
	assert.Error(t, err)
	assert.Error(t, s.Save(ctx, Lead{Identity: "alice"}))
	assert.Empty(t, s.Leads())
}
