package window

// windowConfig is what the options set before the window opens.
type windowConfig struct {
	title         string
	width, height int
	minSize       [2]int
	maxSize       [2]int
}

// WindowBuilderOption configures a window before it opens.
type WindowBuilderOption func(c *windowConfig)

// WithTitle sets the title bar text.
func WithTitle(title string) WindowBuilderOption {
	return func(c *windowConfig) {
		c.title = title
	}
}

// WithSize sets the initial window size in screen coordinates.
//
// Parameters:
//   - width, height: the size; non-positive values keep the default
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(c *windowConfig) {
		if width > 0 {
			c.width = width
		}
		if height > 0 {
			c.height = height
		}
	}
}

// WithSizeLimits bounds the size the user can resize to.
//
// Parameters:
//   - minWidth, minHeight: the minimum size
//   - maxWidth, maxHeight: the maximum size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(c *windowConfig) {
		c.minSize = [2]int{minWidth, minHeight}
		c.maxSize = [2]int{maxWidth, maxHeight}
	}
}
