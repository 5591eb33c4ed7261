// Package encoder turns dashboard selections into the fixed-order feature record
// the yield model expects.
package encoder

import (
	"fmt"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
)

// DefaultWindSpeed is the wind speed fed to the model for every dashboard request;
// the collector does not ask the operator for it.
const DefaultWindSpeed = 12.0

// EncodingError reports a categorical value outside the closed lookup tables.
type EncodingError struct {
	Field string
	Value string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding: unknown %s %q", e.Field, e.Value)
}

// Encode maps operator selections to a FeatureRecord. Numeric inputs pass through
// unscaled; month and year come from the calendar fields of the date as given.
func Encode(fc entities.FieldConditions) (entities.FeatureRecord, error) {
	crop, err := CropCode(fc.Crop)
	if err != nil {
		return entities.FeatureRecord{}, err
	}
	soil, err := SoilCode(fc.Soil)
	if err != nil {
		return entities.FeatureRecord{}, err
	}
	return entities.FeatureRecord{
		CropType:    int(crop),
		SoilType:    int(soil),
		SoilPH:      fc.SoilPH,
		Temperature: fc.Temperature,
		Humidity:    fc.Humidity,
		WindSpeed:   DefaultWindSpeed,
		N:           fc.N,
		P:           fc.P,
		K:           fc.K,
		SoilQuality: fc.SoilQuality,
		Month:       int(fc.ObservationDate.Month()),
		Year:        fc.ObservationDate.Year(),
	}, nil
}

func CropCode(name string) (entities.Crop, error) {
	c, ok := entities.CropCodes[name]
	if !ok {
		return 0, &EncodingError{Field: "crop", Value: name}
	}
	return c, nil
}

func SoilCode(name string) (entities.Soil, error) {
	s, ok := entities.SoilCodes[name]
	if !ok {
		return 0, &EncodingError{Field: "soil", Value: name}
	}
	return s, nil
}

// CropName is the reverse lookup of CropCode.
func CropName(code int) (string, error) {
	for name, c := range entities.CropCodes {
		if int(c) == code {
			return name, nil
		}
	}
	return "", &EncodingError{Field: "crop code", Value: fmt.Sprint(code)}
}

// SoilName is the reverse lookup of SoilCode.
func SoilName(code int) (string, error) {
	for name, s := range entities.SoilCodes {
		if int(s) == code {
			return name, nil
		}
	}
	return "", &EncodingError{Field: "soil code", Value: fmt.Sprint(code)}
}
