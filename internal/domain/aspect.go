package domain

// AspectRatio is the user-facing orientation selector for a shoot.
type AspectRatio string

const (
	AspectRatioPortrait  AspectRatio = "Portrait"
	AspectRatioLandscape AspectRatio = "Landscape"
	AspectRatioSquare    AspectRatio = "Square"
)

// Dimensions maps the selector onto the provider's width:height notation.
func (a AspectRatio) Dimensions() string {
	switch a {
	case AspectRatioPortrait:
		return "9:16"
	case AspectRatioLandscape:
		return "16:9"
	case AspectRatioSquare:
		return "1:1"
	}
	return ""
}

// ParseAspectRatio validates the selector before any external call is made.
func ParseAspectRatio(raw string) (AspectRatio, error) {
	switch AspectRatio(raw) {
	case AspectRatioPortrait, AspectRatioLandscape, AspectRatioSquare:
		return AspectRatio(raw), nil
	}
	return "", NewValidationError("aspect_ratio", "must be one of Portrait, Landscape, Square")
}

// DefaultNegativePrompt is substituted when the caller supplies no negative
// prompt of their own.
const DefaultNegativePrompt = "flaws in the eyes, flaws in the face, flaws, lowres, non-HDRi, low quality, worst quality,artifacts noise, text, watermark, glitch, deformed, mutated, ugly, disfigured, hands, low resolution, partially rendered objects,  deformed or partially rendered eyes, deformed, deformed eyeballs, cross-eyed,blurry,border, picture frame"
