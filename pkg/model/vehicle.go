package model

// Vehicle types the catalog recognizes. Each type lives in its own
// collection.
const (
	VehicleTypeBike = "bike"
	VehicleTypeCar  = "car"
)

type Vehicle struct {
	ID           string  `json:"id,omitempty" bson:"_id,omitempty"`
	Type         string  `json:"type,omitempty" bson:"-"`
	Name         string  `json:"name" bson:"name"`
	PricePerHour float64 `json:"price_per_hour" bson:"price_per_hour"`
	Available    bool    `json:"available" bson:"available"`
}
