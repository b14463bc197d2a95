package hikesync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressTerminal(t *testing.T) {
	cases := []struct {
		progress Progress
		terminal bool
	}{
		{progressInitializing(&MigrationStats{}), false},
		{progressMigratingHikes(1, 2, "x"), false},
		{progressUploadingImages(1, 4), false},
		{progressMigratingObservations(1, 1, "h1"), false},
		{progressComplete(&MigrationResult{}), true},
		{progressError("boom", true), true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.terminal, tc.progress.Terminal(), "phase %s", tc.progress.Phase)
	}
}

func TestProgressUploadingImagesFraction(t *testing.T) {
	p := progressUploadingImages(3, 4)
	require.InDelta(t, 0.75, p.Fraction, 1e-9)

	// Zero total must not divide by zero.
	p = progressUploadingImages(0, 0)
	require.Zero(t, p.Fraction)
}

func TestImageListRoundTrip(t *testing.T) {
	encoded, err := EncodeImageList([]string{"a.jpg", "b.jpg"})
	require.NoError(t, err)
	require.JSONEq(t, `["a.jpg","b.jpg"]`, encoded)

	decoded, err := DecodeImageList(encoded)
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, decoded)

	// nil and empty inputs normalize to an empty list.
	encoded, err = EncodeImageList(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", encoded)

	decoded, err = DecodeImageList("")
	require.NoError(t, err)
	require.Empty(t, decoded)

	_, err = DecodeImageList("{not an array")
	require.Error(t, err)
}

func TestDifficultyValid(t *testing.T) {
	require.True(t, DifficultyEasy.Valid())
	require.True(t, DifficultyMedium.Valid())
	require.True(t, DifficultyHard.Valid())
	require.False(t, Difficulty("extreme").Valid())
}
