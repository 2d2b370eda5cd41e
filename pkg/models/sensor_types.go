package models

// Measurement field names as they appear on the wire and in the sensor_data table
const (
	FieldSoil      = "soil"
	FieldRain      = "rain"
	FieldPH        = "pH"
	FieldHumidity  = "Hum"
	FieldTemp      = "Temp"
	FieldTurbidity = "turbidity"
	FieldO3        = "O3"
	FieldNH3       = "NH3"
	FieldCO2       = "CO2"
	FieldTiltX     = "TiltX"
	FieldTiltY     = "TiltY"
)

// SensorCategory constants group measurements for display
const (
	SensorCategorySoil    = "Soil"
	SensorCategoryWeather = "Weather"
	SensorCategoryWater   = "Water"
	SensorCategoryGas     = "Gas"
	SensorCategoryTilt    = "Tilt"
)

// MeasurementInfo holds metadata about a measurement field
type MeasurementInfo struct {
	Field    string `json:"field" yaml:"field"`
	Label    string `json:"label" yaml:"label"`
	Category string `json:"category" yaml:"category"`
	Unit     string `json:"unit" yaml:"unit"`
}

// MeasurementCatalog lists every optional measurement in column order
var MeasurementCatalog = []MeasurementInfo{
	{Field: FieldSoil, Label: "Soil moisture", Category: SensorCategorySoil, Unit: "%"},
	{Field: FieldRain, Label: "Rainfall", Category: SensorCategoryWeather, Unit: "mm"},
	{Field: FieldPH, Label: "Soil pH", Category: SensorCategorySoil, Unit: "pH"},
	{Field: FieldHumidity, Label: "Humidity", Category: SensorCategoryWeather, Unit: "%"},
	{Field: FieldTemp, Label: "Temperature", Category: SensorCategoryWeather, Unit: "°C"},
	{Field: FieldTurbidity, Label: "Turbidity", Category: SensorCategoryWater, Unit: "NTU"},
	{Field: FieldO3, Label: "Ozone", Category: SensorCategoryGas, Unit: "ppm"},
	{Field: FieldNH3, Label: "Ammonia", Category: SensorCategoryGas, Unit: "ppm"},
	{Field: FieldCO2, Label: "Carbon dioxide", Category: SensorCategoryGas, Unit: "ppm"},
	{Field: FieldTiltX, Label: "Tilt X", Category: SensorCategoryTilt, Unit: "°"},
	{Field: FieldTiltY, Label: "Tilt Y", Category: SensorCategoryTilt, Unit: "°"},
}

// LookupMeasurement returns the catalog entry for a field name
func LookupMeasurement(field string) (MeasurementInfo, bool) {
	for _, info := range MeasurementCatalog {
		if info.Field == field {
			return info, true
		}
	}
	return MeasurementInfo{}, false
}
