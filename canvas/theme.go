package canvas

// Theme selects the surface colors. It never affects geometry.
type Theme struct {
	Background string
	Stroke     string
	Highlight  string
}

var (
	DarkTheme = Theme{
		Background: "#000000",
		Stroke:     "#ffffff",
		Highlight:  "#ff0000",
	}
	LightTheme = Theme{
		Background: "#ffffff",
		Stroke:     "#1a1a1a",
		Highlight:  "#ff0000",
	}
)
