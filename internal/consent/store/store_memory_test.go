package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtbconsent/internal/consent/models"
	"rtbconsent/pkg/platform/sentinel"
)

func TestInMemorySource(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown device", func(t *testing.T) {
		_, err := NewInMemorySource().Lookup(ctx, "missing")
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("returns copies", func(t *testing.T) {
		src := NewInMemorySource()
		seed := models.Snapshot{GPPString: models.Ptr("DBACNY~1YNN"), GPPSectionIDs: []int{6}}
		src.Put("dev-1", seed)
		seed.GPPSectionIDs[0] = 1

		got, err := src.Lookup(ctx, "dev-1")
		require.NoError(t, err)
		assert.Equal(t, []int{6}, got.GPPSectionIDs)

		got.GPPSectionIDs[0] = 2
		again, err := src.Lookup(ctx, "dev-1")
		require.NoError(t, err)
		assert.Equal(t, []int{6}, again.GPPSectionIDs)
	})

	t.Run("storage keys", func(t *testing.T) {
		src := NewInMemorySource()
		src.PutStorageKeys("dev-2", map[string]string{
			models.KeyTCFGDPRApplies:  "1",
			models.KeyUSPrivacyString: "1YNN",
		})
		got, err := src.Lookup(ctx, "dev-2")
		require.NoError(t, err)
		assert.True(t, *got.GDPRApplies)
		assert.Equal(t, "1YNN", *got.USPrivacyString)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewInMemorySource().Lookup(cctx, "dev-1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
