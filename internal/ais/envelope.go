package ais

import "github.com/goccy/go-json"

// Envelope is the JSON frame delivered by the upstream AIS relay: the message
// type, per-message metadata, and the decoded message body keyed by its own
// type name.
type Envelope struct {
	MessageType string                     `json:"MessageType"`
	MetaData    *MetaData                  `json:"MetaData"`
	Message     map[string]json.RawMessage `json:"Message"`
}

type MetaData struct {
	MMSI      int     `json:"MMSI"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ShipName  string  `json:"ShipName"`
	TimeUTC   string  `json:"time_utc"`
}

// Message type names as they appear on the wire.
const (
	msgPositionReport = "PositionReport"
	msgClassBReport   = "StandardClassBCSPositionReport"
	msgShipStaticData = "ShipStaticData"
)

// positionReport is the Class A position report body (AIS messages 1/2/3).
type positionReport struct {
	Cog                float64 `json:"Cog"`
	Latitude           float64 `json:"Latitude"`
	Longitude          float64 `json:"Longitude"`
	NavigationalStatus int     `json:"NavigationalStatus"`
	RateOfTurn         int     `json:"RateOfTurn"`
	Sog                float64 `json:"Sog"`
	TrueHeading        int     `json:"TrueHeading"`
	UserID             int     `json:"UserID"`
}

// classBReport is the Class B position report body (messages 18/19). It has
// no navigational status.
type classBReport struct {
	Cog         float64 `json:"Cog"`
	Latitude    float64 `json:"Latitude"`
	Longitude   float64 `json:"Longitude"`
	Sog         float64 `json:"Sog"`
	TrueHeading int     `json:"TrueHeading"`
	UserID      int     `json:"UserID"`
}

// shipStaticData is the static/voyage body (message 5).
type shipStaticData struct {
	CallSign    string  `json:"CallSign"`
	Destination string  `json:"Destination"`
	Dimension   struct {
		A int `json:"A"`
		B int `json:"B"`
		C int `json:"C"`
		D int `json:"D"`
	} `json:"Dimension"`
	Eta struct {
		Month  int `json:"Month"`
		Day    int `json:"Day"`
		Hour   int `json:"Hour"`
		Minute int `json:"Minute"`
	} `json:"Eta"`
	ImoNumber            int     `json:"ImoNumber"`
	MaximumStaticDraught float64 `json:"MaximumStaticDraught"`
	Name                 string  `json:"Name"`
	Type                 int     `json:"Type"`
	UserID               int     `json:"UserID"`
}
