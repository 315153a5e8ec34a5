package engine

import (
	"math"

	"github.com/meikuraledutech/graphplan"
)

// Edge attachment handle names understood by the renderer.
const (
	HandleTopSource    = "top-source"
	HandleBottomSource = "bottom-source"
	HandleLeftSource   = "left-source"
	HandleRightSource  = "right-source"
	HandleTopTarget    = "top-target"
	HandleBottomTarget = "bottom-target"
	HandleLeftTarget   = "left-target"
	HandleRightTarget  = "right-target"
)

// pickHandles chooses which sides of the endpoints an edge attaches to,
// based on the center-to-center offset. Mostly vertical offsets use
// top/bottom handles, everything else left/right. Unknown endpoints get
// bottom-source/top-target.
func pickHandles(src, tgt *graphplan.Node) (string, string) {
	if src == nil || tgt == nil {
		return HandleBottomSource, HandleTopTarget
	}
	a, b := src.Center(), tgt.Center()
	dx, dy := b.X-a.X, b.Y-a.Y

	if math.Abs(dy) > math.Abs(dx) {
		if dy >= 0 {
			return HandleBottomSource, HandleTopTarget
		}
		return HandleTopSource, HandleBottomTarget
	}
	if dx > 0 {
		return HandleRightSource, HandleLeftTarget
	}
	if dx < 0 {
		return HandleLeftSource, HandleRightTarget
	}
	return HandleBottomSource, HandleTopTarget
}
