package feed

import (
	"encoding/base64"
	"testing"
	"time"

	"townsquare/internal/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	keys := []ranking.Key{
		{Pinned: true, TagPriority: 100, RolePriority: 40, PublishedAt: time.Date(2026, 5, 1, 9, 30, 0, 123456000, time.UTC), ID: 42},
		{Pinned: false, TagPriority: 10, RolePriority: 10, PublishedAt: time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), ID: 1},
		{TagPriority: 0, RolePriority: 0, PublishedAt: time.Date(2026, 1, 1, 0, 0, 0, 1, time.UTC), ID: 1 << 40},
	}

	for _, k := range keys {
		got, err := DecodeCursor(EncodeCursor(k))
		require.NoError(t, err)
		assert.Equal(t, k.Pinned, got.Pinned)
		assert.Equal(t, k.TagPriority, got.TagPriority)
		assert.Equal(t, k.RolePriority, got.RolePriority)
		assert.True(t, k.PublishedAt.Equal(got.PublishedAt))
		assert.Equal(t, k.ID, got.ID)
		assert.Zero(t, ranking.Compare(k, got))
	}
}

func TestCursorRoundTrip_NormalizesZoneToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	k := ranking.Key{TagPriority: 40, RolePriority: 20, PublishedAt: time.Date(2026, 5, 1, 11, 0, 0, 0, zone), ID: 7}

	got, err := DecodeCursor(EncodeCursor(k))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.PublishedAt.Location())
	assert.True(t, k.PublishedAt.Equal(got.PublishedAt))
}

func TestDecodeCursor_Invalid(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "not-valid-base64!!"},
		{"not json", enc("hello")},
		{"wrong version", enc(`{"v":2,"p":false,"t":10,"r":10,"ts":"2026-01-01T00:00:00Z","id":3}`)},
		{"missing version", enc(`{"p":false,"t":10,"r":10,"ts":"2026-01-01T00:00:00Z","id":3}`)},
		{"missing id", enc(`{"v":1,"p":false,"t":10,"r":10,"ts":"2026-01-01T00:00:00Z"}`)},
		{"missing timestamp", enc(`{"v":1,"p":false,"t":10,"r":10,"id":3}`)},
		{"bad timestamp", enc(`{"v":1,"p":false,"t":10,"r":10,"ts":"yesterday","id":3}`)},
		{"negative priority", enc(`{"v":1,"p":false,"t":-1,"r":10,"ts":"2026-01-01T00:00:00Z","id":3}`)},
		{"wrong field type", enc(`{"v":1,"p":"yes","t":10,"r":10,"ts":"2026-01-01T00:00:00Z","id":3}`)},
		{"padded base64", base64.URLEncoding.EncodeToString([]byte(`{"v":1}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func TestEncodeCursor_IsURLSafe(t *testing.T) {
	token := EncodeCursor(ranking.Key{Pinned: true, TagPriority: 100, RolePriority: 40, PublishedAt: time.Now(), ID: 99})
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")
}

func TestSavedCursorRoundTrip(t *testing.T) {
	k := TimeKey{At: time.Date(2026, 6, 1, 12, 0, 0, 5000, time.FixedZone("x", 3600)), ID: 17}

	got, err := DecodeSavedCursor(EncodeSavedCursor(k))
	require.NoError(t, err)
	assert.True(t, k.At.Equal(got.At))
	assert.Equal(t, time.UTC, got.At.Location())
	assert.Equal(t, k.ID, got.ID)
}

func TestCursorKindsAreNotInterchangeable(t *testing.T) {
	saved := EncodeSavedCursor(TimeKey{At: time.Now(), ID: 3})
	_, err := DecodeCursor(saved)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	feedToken := EncodeCursor(ranking.Key{TagPriority: 10, RolePriority: 10, PublishedAt: time.Now(), ID: 3})
	_, err = DecodeSavedCursor(feedToken)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}
