package model

// AssetDigest holds summary statistics computed from one asset's bars.
type AssetDigest struct {
	Asset      string  `json:"asset"`
	Bars       int     `json:"bars"`
	FirstClose float64 `json:"first_close"`
	LastClose  float64 `json:"last_close"`
	ChangePct  float64 `json:"change_pct"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	SMA20      float64 `json:"sma20"`
	RSI14      float64 `json:"rsi14"`
	LastTime   string  `json:"last_time"`
}
