package recall

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg int // User message accent
	Source  int // Citation lines under assistant replies
	Error   int // Error toasts and failure text
	Success int // Success toasts
	Muted   int // Status bar, placeholders, timestamps
	Accent  int // Headings, links, session titles
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg: 4,
		Source:  6,
		Error:   1,
		Success: 2,
		Muted:   8,
		Accent:  5,
	}
}
