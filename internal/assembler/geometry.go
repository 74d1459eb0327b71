package assembler

// Output geometry for vertical reels.
const (
	TargetWidth  = 1080
	TargetHeight = 1920
)

// targetRatio is width/height of the output frame (0.5625, i.e. 9:16).
const targetRatio = float64(TargetWidth) / float64(TargetHeight)

// CropRect computes the centered crop window that brings a w×h frame to the
// target aspect ratio without distortion. Sources wider than 9:16 lose width,
// everything else loses height; the kept region is then scaled uniformly to
// exactly TargetWidth×TargetHeight.
func CropRect(w, h int) (cropW, cropH, x, y int) {
	ratio := float64(w) / float64(h)

	if ratio > targetRatio {
		cropW = int(float64(h) * targetRatio)
		cropH = h
		x = (w - cropW) / 2
		y = 0
		return
	}

	cropW = w
	cropH = int(float64(w) / targetRatio)
	x = 0
	y = (h - cropH) / 2
	return
}
