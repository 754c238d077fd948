package paprika

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStableForEqualValues(t *testing.T) {
	a := Bookmark{UID: "b-1", Title: "Blog", URL: "https://example.com", OrderFlag: 3}
	b := Bookmark{UID: "b-1", Title: "Blog", URL: "https://example.com", OrderFlag: 3}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintChangesWithAnyField(t *testing.T) {
	base := Bookmark{UID: "b-1", Title: "Blog", URL: "https://example.com", OrderFlag: 3}

	retitled := base
	retitled.Title = "Blog 2"
	reordered := base
	reordered.OrderFlag = 4

	assert.NotEqual(t, base.Fingerprint(), retitled.Fingerprint())
	assert.NotEqual(t, base.Fingerprint(), reordered.Fingerprint())
}

func TestFingerprintDistinguishesNilFromEmpty(t *testing.T) {
	withParent := Category{UID: "c", Name: "x", ParentUID: ptr("")}
	without := Category{UID: "c", Name: "x"}

	assert.NotEqual(t, without.Fingerprint(), withParent.Fingerprint())
}

func TestRecipeFingerprintIsSourceHash(t *testing.T) {
	r := Recipe{UID: "r-1", Name: "Soup", Hash: "abc123"}
	h := RecipeHash{UID: "r-1", Hash: "abc123"}

	assert.Equal(t, "abc123", r.Fingerprint())
	assert.Equal(t, r.Fingerprint(), h.Fingerprint())
}

func TestTimeJSONRoundTrip(t *testing.T) {
	orig := NewTime(time.Date(2024, 6, 15, 8, 30, 45, 0, time.UTC))

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-15 08:30:45"`, string(data))

	var parsed Time
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, orig.Equal(parsed.Time))
}

func TestTimeNormalizesZoneAndPrecision(t *testing.T) {
	loc := time.FixedZone("plus2", 2*60*60)
	local := NewTime(time.Date(2024, 6, 15, 10, 30, 45, 999_000_000, loc))
	utc := NewTime(time.Date(2024, 6, 15, 8, 30, 45, 0, time.UTC))

	assert.True(t, local.Equal(utc.Time))

	a, err := json.Marshal(local)
	require.NoError(t, err)
	b, err := json.Marshal(utc)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestTimeScanRoundTripKeepsFingerprintStable(t *testing.T) {
	meal := Meal{
		UID:      "m-1",
		Date:     NewTime(time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)),
		MealType: 2,
		Name:     "Dinner",
		TypeUID:  "t-1",
	}
	before := meal.Fingerprint()

	// Simulate the database round trip: Value out, Scan back in.
	v, err := meal.Date.Value()
	require.NoError(t, err)
	var scanned Time
	require.NoError(t, scanned.Scan(v))

	meal.Date = scanned
	assert.Equal(t, before, meal.Fingerprint())
}

func TestTimeScanHandlesNilAndString(t *testing.T) {
	var ts Time
	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	require.NoError(t, ts.Scan("2024-06-15 08:30:45"))
	assert.Equal(t, 2024, ts.Year())

	assert.Error(t, ts.Scan(42))
}

func ptr[T any](v T) *T { return &v }
