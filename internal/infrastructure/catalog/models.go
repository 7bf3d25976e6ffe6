package catalog

import "encoding/json"

// steamEnvelope es la entrada por id en appdetails/packagedetails: {"<id>": {"success": ..., "data": ...}}
type steamEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type steamPrice struct {
	Currency string `json:"currency"`
	Initial  int64  `json:"initial"`
	Final    int64  `json:"final"`
}

// steamAppData: para juegos gratis Steam devuelve "data": [] en lugar de un objeto
type steamAppData struct {
	Name          string      `json:"name"`
	PriceOverview *steamPrice `json:"price_overview"`
}

type steamPackageData struct {
	Name  string      `json:"name"`
	Price *steamPrice `json:"price"`
}
