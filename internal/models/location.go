package models

// Location is the last reported position of a machine. Region names the
// farming area the coordinates fall in.
type Location struct {
	Lat    float64 `bson:"lat" json:"lat"`
	Lon    float64 `bson:"lon" json:"lon"`
	Region string  `bson:"region,omitempty" json:"region,omitempty"`
}
