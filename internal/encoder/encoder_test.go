package encoder

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
)

func TestEncode(t *testing.T) {
	fc := entities.FieldConditions{
		Crop:            "Wheat",
		Soil:            "Loamy",
		SoilPH:          6.5,
		Temperature:     26,
		Humidity:        70,
		N:               80,
		P:               40,
		K:               60,
		SoilQuality:     7,
		ObservationDate: time.Date(2026, time.January, 3, 0, 0, 0, 0, time.Local),
	}
	got, err := Encode(fc)
	require.NoError(t, err)

	want := entities.FeatureRecord{
		CropType: 9, SoilType: 2, SoilPH: 6.5, Temperature: 26, Humidity: 70,
		WindSpeed: 12, N: 80, P: 40, K: 60, SoilQuality: 7, Month: 1, Year: 2026,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{9, 2, 6.5, 26, 70, 12, 80, 40, 60, 7, 1, 2026}, got.Vector())
}

func TestEncodeUsesCalendarFieldsAsGiven(t *testing.T) {
	// 23:30 on Dec 31 in UTC+10 is still December locally; no conversion happens.
	loc := time.FixedZone("AEST", 10*3600)
	got, err := Encode(entities.FieldConditions{
		Crop: "Rice", Soil: "Clay",
		ObservationDate: time.Date(2025, time.December, 31, 23, 30, 0, 0, loc),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, got.Month)
	assert.Equal(t, 2025, got.Year)
}

func TestEncodeUnknownNames(t *testing.T) {
	_, err := Encode(entities.FieldConditions{Crop: "Barley", Soil: "Clay"})
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "crop", encErr.Field)
	assert.Equal(t, "Barley", encErr.Value)

	_, err = Encode(entities.FieldConditions{Crop: "Corn", Soil: "Peat"})
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "soil", encErr.Field)

	// Lookups are case sensitive, matching the closed choice lists.
	_, err = CropCode("wheat")
	assert.Error(t, err)
}

func TestCropRoundTrip(t *testing.T) {
	seen := map[entities.Crop]bool{}
	for _, name := range entities.CropNames {
		code, err := CropCode(name)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %d", code)
		seen[code] = true

		back, err := CropName(int(code))
		require.NoError(t, err)
		assert.Equal(t, name, back)
	}
	assert.Len(t, seen, len(entities.CropCodes))

	_, err := CropName(3)
	assert.Error(t, err)
}

func TestSoilRoundTrip(t *testing.T) {
	for _, name := range entities.SoilNames {
		code, err := SoilCode(name)
		require.NoError(t, err)
		back, err := SoilName(int(code))
		require.NoError(t, err)
		assert.Equal(t, name, back)
	}
	_, err := SoilName(1)
	assert.Error(t, err)
}
