package lpx

import "testing"

func TestApplyMovementScalesByStepSize(t *testing.T) {
	center := &Center{}
	ApplyMovement(center, MovementCommand{DeltaX: 1, DeltaY: -1, StepSize: 2}, 1000, 640, 480)
	if center.X != 2 || center.Y != -2 {
		t.Errorf("center = (%v, %v), want (2, -2)", center.X, center.Y)
	}
}

func TestApplyMovementClampsToMapWidthFraction(t *testing.T) {
	center := &Center{}
	// map_width=1000 clamps to +-200 (0.2 * 1000).
	ApplyMovement(center, MovementCommand{DeltaX: 1000, DeltaY: -1000, StepSize: 1}, 1000, 640, 480)
	if center.X != 200 {
		t.Errorf("center.X = %v, want clamp at 200", center.X)
	}
	if center.Y != -200 {
		t.Errorf("center.Y = %v, want clamp at -200", center.Y)
	}
}

func TestApplyMovementFallsBackToOutputFractionWhenMapWidthNonPositive(t *testing.T) {
	center := &Center{}
	ApplyMovement(center, MovementCommand{DeltaX: 1000, DeltaY: -1000, StepSize: 1}, 0, 640, 480)
	wantX := outputClampFraction * 640
	wantY := -outputClampFraction * 480
	if center.X != wantX {
		t.Errorf("center.X = %v, want %v", center.X, wantX)
	}
	if center.Y != wantY {
		t.Errorf("center.Y = %v, want %v", center.Y, wantY)
	}
}

func TestApplyMovementAccumulatesAcrossCalls(t *testing.T) {
	center := &Center{}
	cmd := MovementCommand{DeltaX: 0.1, DeltaY: 0, StepSize: 1}
	for i := 0; i < 5; i++ {
		ApplyMovement(center, cmd, 10000, 640, 480)
	}
	// DeltaX is a float32, so each step adds float64(float32(0.1)), not 0.1.
	want := 5 * float64(cmd.DeltaX)
	if abs(center.X-want) > 1e-9 {
		t.Errorf("center.X = %v, want %v", center.X, want)
	}
}
