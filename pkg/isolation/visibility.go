package isolation

// Visibility lists which parts of a window grid apply to a layout.
type Visibility struct {
	Target      bool `json:"target"`
	StartMargin bool `json:"startMargin"`
	EndMargin   bool `json:"endMargin"`
	// ViewSelector is the isolation/extraction switch. It only matters
	// when there are margins to add or remove.
	ViewSelector   bool   `json:"viewSelector"`
	WindowsPerScan bool   `json:"windowsPerScan"`
	StartHeader    string `json:"startMarginHeader,omitempty"`
}

// ColumnVisibility returns the grid layout for a margin mode, target
// setting and special handling.
func ColumnVisibility(mode MarginMode, requireTarget bool, handling SpecialHandling) Visibility {
	v := Visibility{
		Target:         requireTarget,
		StartMargin:    mode != MarginNone,
		EndMargin:      mode == MarginAsymmetric,
		ViewSelector:   mode != MarginNone,
		WindowsPerScan: handling.IsMultiplexed(),
	}
	if v.StartMargin {
		v.StartHeader = FieldStartMargin.Header(mode)
	}
	return v
}
