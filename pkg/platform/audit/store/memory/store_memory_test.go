package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "rtbconsent/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	for _, e := range []audit.Event{
		{RequestID: "r-1", Action: audit.ActionBidRequestEnriched},
		{RequestID: "r-2", Action: audit.ActionBidRequestEnriched},
		{RequestID: "r-1", Action: audit.ActionConsentWithheld},
	} {
		require.NoError(t, s.Append(ctx, e))
	}

	got, err := s.ListByRequest(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, audit.ActionConsentWithheld, got[1].Action)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "r-2", recent[0].RequestID)

	recent, err = s.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	s.Clear()
	all, err = s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
