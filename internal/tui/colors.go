package tui

// Color constants for the saj TUI theme
const (
	// Base colors
	ColorCardBackground = "#1B1530" // Dark purple
	ColorSidebar        = "#151124"
	ColorBorder         = "#3A3F55" // Grey-blue

	// Text colors
	ColorPrimaryText   = "#E6EAF2" // Labels, user input, titles
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240" // Dark grey

	// Accent colors
	ColorAccentMain   = "#7C3AED" // Logo, active borders
	ColorAccentBright = "#A78BFA" // Selection, current item

	// State colors
	ColorError   = "#EF4444" // Request and validation errors
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B" // Session notices
)
