package entities

// Soil is the integer code the yield model was fit with for a soil type.
type Soil int

const (
	SoilClay  Soil = 0
	SoilLoamy Soil = 2
	SoilSandy Soil = 3
	SoilSilt  Soil = 4
)

// SoilCodes is the closed soil-name -> code table used by the dashboard.
var SoilCodes = map[string]Soil{
	"Clay":  SoilClay,
	"Silt":  SoilSilt,
	"Sandy": SoilSandy,
	"Loamy": SoilLoamy,
}

// SoilNames lists the soils in the order the dashboard offers them.
var SoilNames = []string{"Clay", "Silt", "Sandy", "Loamy"}
