package lpx

// clampFraction is the scan-map-relative clamp factor for the optical
// center offsets (spec.md section 4.5): the authoritative bound is
// 0.2 * map_width, not the 0.4 * output_size alternative also seen in the
// source (spec.md section 9, Open Questions).
const clampFraction = 0.2

// outputClampFraction is the fallback clamp factor used only when the
// scan tables carry no usable map width (map_width <= 0).
const outputClampFraction = 0.4

// MovementCommand is a (delta_x, delta_y, step_size) triple sent by a
// client to translate the optical center, per spec.md section 3.
type MovementCommand struct {
	DeltaX, DeltaY, StepSize float32
}

// Center holds the mutable optical-center offset applied by movement
// commands and read by the video driver loop on the next scan. Per
// spec.md section 4.5, there is a single writer (the broadcast thread,
// via ApplyMovement) and a single reader (the video thread); torn reads of
// the two floats are acceptable because only the next frame is affected.
type Center struct {
	X, Y float64
}

// ApplyMovement updates center in place per spec.md section 4.5: the
// command is scaled and added, then the result is clamped to
// ±clampFraction*mapWidth when mapWidth > 0, or to
// ±outputClampFraction*(outW, outH) otherwise.
func ApplyMovement(center *Center, cmd MovementCommand, mapWidth int32, outW, outH int) {
	center.X += float64(cmd.DeltaX) * float64(cmd.StepSize)
	center.Y += float64(cmd.DeltaY) * float64(cmd.StepSize)

	var limitX, limitY float64
	if mapWidth > 0 {
		limitX = clampFraction * float64(mapWidth)
		limitY = limitX
	} else {
		limitX = outputClampFraction * float64(outW)
		limitY = outputClampFraction * float64(outH)
	}

	center.X = clampFloat(center.X, -limitX, limitX)
	center.Y = clampFloat(center.Y, -limitY, limitY)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
