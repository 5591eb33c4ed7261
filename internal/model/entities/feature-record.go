package entities

// FeatureNames is the column order the model was fit with. FeatureRecord.Vector
// and every model artifact must follow it exactly.
var FeatureNames = []string{
	"Crop_Type",
	"Soil_Type",
	"Soil_pH",
	"Temperature",
	"Humidity",
	"Wind_Speed",
	"N",
	"P",
	"K",
	"Soil_Quality",
	"month",
	"year",
}

// FeatureRecord is one row of model input. JSON names are the training column names.
type FeatureRecord struct {
	CropType    int     `json:"Crop_Type"`
	SoilType    int     `json:"Soil_Type"`
	SoilPH      float64 `json:"Soil_pH"`
	Temperature float64 `json:"Temperature"`
	Humidity    float64 `json:"Humidity"`
	WindSpeed   float64 `json:"Wind_Speed"`
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	SoilQuality float64 `json:"Soil_Quality"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
}

// Vector flattens the record in FeatureNames order.
func (r FeatureRecord) Vector() []float64 {
	return []float64{
		float64(r.CropType),
		float64(r.SoilType),
		r.SoilPH,
		r.Temperature,
		r.Humidity,
		r.WindSpeed,
		r.N,
		r.P,
		r.K,
		r.SoilQuality,
		float64(r.Month),
		float64(r.Year),
	}
}
