package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lingopop/internal/batch"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/testutil"
)

func TestImportRequiresSettings(t *testing.T) {
	c, _, _ := newTestController(t, &testutil.MockGateway{})

	_, _, err := c.Import(context.Background(), []string{"Gato"}, batch.Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestImportAddsToLibrary(t *testing.T) {
	gw := &testutil.MockGateway{}
	existing := testutil.SampleRecord(t, "Casa")
	c, store, _ := newTestController(t, gw, existing)
	require.NoError(t, c.ConfirmSettings(catalog.MustLookup("en"), catalog.MustLookup("es")))
	require.NoError(t, c.OpenLibrary())

	jobs, summary, err := c.Import(context.Background(), []string{"Gato", "casa", "Perro"}, batch.Config{Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, batch.Summary{Completed: 2, Skipped: 1}, summary)
	require.Len(t, jobs, 3)

	state := c.State()
	assert.Equal(t, ScreenLibrary, state.Screen)
	require.Len(t, state.Library, 3)
	assert.Equal(t, 2, store.Saves())
	assert.Equal(t, 1, gw.CallCount("Analyze: Gato (en->es)"))

	lib, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Gato", "Perro", "Casa"}, lib.Terms())
}

func TestImportSaveFailure(t *testing.T) {
	c, store, _ := newTestController(t, &testutil.MockGateway{})
	require.NoError(t, c.ConfirmSettings(catalog.MustLookup("en"), catalog.MustLookup("es")))
	store.SaveErr = errors.New("disk full")

	jobs, summary, err := c.Import(context.Background(), []string{"Gato"}, batch.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.ErrorContains(t, jobs[0].Err, "disk full")
	assert.Empty(t, c.State().Library)
}
