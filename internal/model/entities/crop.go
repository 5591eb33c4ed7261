package entities

// Crop is the integer code the yield model was fit with for a crop type.
type Crop int

const (
	CropCorn    Crop = 1
	CropCotton  Crop = 2
	CropRice    Crop = 7
	CropSoybean Crop = 8
	CropWheat   Crop = 9
)

// CropCodes is the closed crop-name -> code table used by the dashboard.
var CropCodes = map[string]Crop{
	"Wheat":   CropWheat,
	"Corn":    CropCorn,
	"Rice":    CropRice,
	"Soybean": CropSoybean,
	"Cotton":  CropCotton,
}

// CropNames lists the crops in the order the dashboard offers them.
var CropNames = []string{"Wheat", "Corn", "Rice", "Soybean", "Cotton"}
