package sources

import "encoding/xml"

// RatesTableResponse es el formato de exchangerate-api y open.er-api: {"base": "USD", "rates": {...}}
type RatesTableResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// NBUEntry es un elemento de la respuesta del Banco Nacional de Ucrania
type NBUEntry struct {
	Rate         float64 `json:"rate"`
	Currency     string  `json:"cc"`
	ExchangeDate string  `json:"exchangedate"`
}

// CBRResponse es la respuesta diaria del Banco Central de Rusia
type CBRResponse struct {
	Date   string              `json:"Date"`
	Valute map[string]CBRValue `json:"Valute"`
}

// CBRValue es la cotización de una moneda en rublos por Nominal unidades
type CBRValue struct {
	CharCode string  `json:"CharCode"`
	Nominal  float64 `json:"Nominal"`
	Value    float64 `json:"Value"`
}

// NBKFeed es el RSS del Banco Nacional de Kazajistán
type NBKFeed struct {
	XMLName xml.Name  `xml:"rss"`
	Items   []NBKItem `xml:"channel>item"`
}

// NBKItem: el título es el código de moneda y la descripción el tipo en tenge
type NBKItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Quant       string `xml:"quant"`
}
