package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-verify/internal/domain"
)

func TestMultiLoader(t *testing.T) {
	first, second := &mockLoader{}, &mockLoader{}
	records := []domain.Record{{Kind: domain.KindGenesis}, {Kind: domain.KindLandfall}}

	require.NoError(t, MultiLoader{first, second}.LoadBatch(context.Background(), records))
	assert.Len(t, first.loaded, 2)
	assert.Len(t, second.loaded, 2)

	failing := &mockLoader{failures: 1}
	third := &mockLoader{}
	err := MultiLoader{failing, third}.LoadBatch(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader 0")
	assert.Empty(t, third.loaded, "later loaders are skipped")

	assert.NoError(t, MultiLoader{}.LoadBatch(context.Background(), records))
}
