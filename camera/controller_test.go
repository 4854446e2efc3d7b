package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestControllerHandleKey(t *testing.T) {
	tests := []struct {
		key      Key
		consumed bool
		want     mgl32.Vec3
	}{
		{KeyW, true, mgl32.Vec3{0.5, 1.5, 2.5}},
		{KeyS, true, mgl32.Vec3{-0.5, 0.5, 1.5}},
		{KeyUnknown, false, mgl32.Vec3{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			cam := Default()
			ctrl := NewController(0.5)
			if got := ctrl.HandleKey(&cam, tt.key); got != tt.consumed {
				t.Errorf("HandleKey() = %v, want %v", got, tt.consumed)
			}
			if cam.Eye != tt.want {
				t.Errorf("Eye = %v, want %v", cam.Eye, tt.want)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	tests := map[string]Key{"w": KeyW, "W": KeyW, "s": KeyS, "S": KeyS, "q": KeyUnknown, "": KeyUnknown}
	for name, want := range tests {
		if got := ParseKey(name); got != want {
			t.Errorf("ParseKey(%q) = %v, want %v", name, got, want)
		}
	}
}
