package assembler

import (
	"fmt"
	"strings"
)

// Filter is a named color treatment applied to every clip after geometry
// normalization.
type Filter string

// Supported filters.
const (
	FilterNone       Filter = "none"
	FilterBlackWhite Filter = "black-and-white"
	FilterVibrant    Filter = "vibrant"
	FilterCinematic  Filter = "cinematic"
	FilterVintage    Filter = "vintage"
)

// Transition is a named fade treatment applied per clip before concatenation.
type Transition string

// Supported transitions. Crossfade fades only the inbound edge of each clip;
// there is no blended overlap with the adjacent clip.
const (
	TransitionNone      Transition = "none"
	TransitionCrossfade Transition = "crossfade"
	TransitionFadeInOut Transition = "fade-in-out"
)

// FadeSeconds is the fade length used by both transition styles.
const FadeSeconds = 0.5

// ParseFilter normalizes user input into a Filter.
func ParseFilter(s string) (Filter, error) {
	switch normalize(s) {
	case "", "none":
		return FilterNone, nil
	case "black-and-white", "black-white", "bw":
		return FilterBlackWhite, nil
	case "vibrant":
		return FilterVibrant, nil
	case "cinematic":
		return FilterCinematic, nil
	case "vintage":
		return FilterVintage, nil
	}
	return FilterNone, fmt.Errorf("unknown filter %q", s)
}

// ParseTransition normalizes user input into a Transition.
func ParseTransition(s string) (Transition, error) {
	switch normalize(s) {
	case "", "none":
		return TransitionNone, nil
	case "crossfade":
		return TransitionCrossfade, nil
	case "fade-in-out", "fade-in-out-", "fade":
		return TransitionFadeInOut, nil
	}
	return TransitionNone, fmt.Errorf("unknown transition %q", s)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}

// colorFilter returns the ffmpeg filter name and argument implementing the
// given Filter, or ok=false for FilterNone.
func colorFilter(f Filter) (name, arg string, ok bool) {
	switch f {
	case FilterBlackWhite:
		return "hue", "s=0", true
	case FilterVibrant:
		return "eq", "saturation=1.3", true
	case FilterCinematic:
		return "eq", "contrast=1.3:brightness=0", true
	case FilterVintage:
		return "eq", "gamma=1.2", true
	}
	return "", "", false
}

// fadeArgs returns the ffmpeg fade filter arguments for a clip of the given
// duration, in application order.
func fadeArgs(t Transition, clipDuration float64) []string {
	switch t {
	case TransitionCrossfade:
		return []string{fmt.Sprintf("t=in:st=0:d=%.3g", FadeSeconds)}
	case TransitionFadeInOut:
		outStart := clipDuration - FadeSeconds
		if outStart < 0 {
			outStart = 0
		}
		return []string{
			fmt.Sprintf("t=in:st=0:d=%.3g", FadeSeconds),
			fmt.Sprintf("t=out:st=%.3f:d=%.3g", outStart, FadeSeconds),
		}
	}
	return nil
}
