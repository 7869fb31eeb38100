package chart

// Palette is one theme's color set. Series colors are re-applied wholesale on
// a theme switch; nothing is recomputed.
type Palette struct {
	Name string

	Up   string // bullish candle / volume bar
	Down string // bearish candle / volume bar

	EMA7  string
	EMA25 string
	EMA99 string

	BollUpper  string
	BollMiddle string
	BollLower  string

	RSI string

	MACDLine   string
	MACDSignal string
	MACDHist   string

	Comparison  string
	Funding     string
	Liquidation string
	DepthBid    string
	DepthAsk    string
	Alert       string
	Drawing     string

	Watermark string
}

// Dark is the default dark theme palette.
func Dark() Palette {
	return Palette{
		Name:        "dark",
		Up:          "#26a69a",
		Down:        "#ef5350",
		EMA7:        "#f5c542",
		EMA25:       "#e64ca8",
		EMA99:       "#9b59ff",
		BollUpper:   "#5aa2e8",
		BollMiddle:  "#8ab4cf",
		BollLower:   "#5aa2e8",
		RSI:         "#c792ea",
		MACDLine:    "#4fc3f7",
		MACDSignal:  "#ffb74d",
		MACDHist:    "#90a4ae",
		Comparison:  "#ff8a65",
		Funding:     "#64b5f6",
		Liquidation: "#ff7043",
		DepthBid:    "#26a69a",
		DepthAsk:    "#ef5350",
		Alert:       "#ffd54f",
		Drawing:     "#b0bec5",
		Watermark:   "rgba(255,255,255,0.06)",
	}
}

// Light is the light theme palette.
func Light() Palette {
	return Palette{
		Name:        "light",
		Up:          "#089981",
		Down:        "#f23645",
		EMA7:        "#b8860b",
		EMA25:       "#c2185b",
		EMA99:       "#6a1fb5",
		BollUpper:   "#1565c0",
		BollMiddle:  "#456f8c",
		BollLower:   "#1565c0",
		RSI:         "#7b1fa2",
		MACDLine:    "#0277bd",
		MACDSignal:  "#ef6c00",
		MACDHist:    "#546e7a",
		Comparison:  "#d84315",
		Funding:     "#1976d2",
		Liquidation: "#e64a19",
		DepthBid:    "#089981",
		DepthAsk:    "#f23645",
		Alert:       "#f9a825",
		Drawing:     "#455a64",
		Watermark:   "rgba(0,0,0,0.05)",
	}
}

// PaletteByName resolves "dark"/"light"; unknown names fall back to dark.
func PaletteByName(name string) Palette {
	if name == "light" {
		return Light()
	}
	return Dark()
}
