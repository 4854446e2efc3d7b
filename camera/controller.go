package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texquad"
)

// Key identifies a key press delivered to a Controller.
type Key uint8

// Keys understood by Controller.
const (
	KeyUnknown Key = iota
	KeyW
	KeyS
)

// ParseKey maps a key name ("w", "W", "s", "S") to a Key.
func ParseKey(name string) Key {
	switch name {
	case "w", "W":
		return KeyW
	case "s", "S":
		return KeyS
	default:
		return KeyUnknown
	}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	switch k {
	case KeyW:
		return "W"
	case KeyS:
		return "S"
	default:
		return "unknown"
	}
}

// Controller moves a camera in response to key presses.
type Controller struct {
	Speed float32
}

// NewController returns a controller that moves the eye by speed per press.
func NewController(speed float32) *Controller {
	return &Controller{Speed: speed}
}

// HandleKey applies a key press to cam and reports whether the key was
// consumed. W adds Speed to every eye component and S subtracts it.
func (c *Controller) HandleKey(cam *Camera, key Key) bool {
	step := mgl32.Vec3{c.Speed, c.Speed, c.Speed}
	switch key {
	case KeyW:
		cam.Eye = cam.Eye.Add(step)
	case KeyS:
		cam.Eye = cam.Eye.Sub(step)
	default:
		return false
	}
	texquad.Logger().Debug("camera: key press", "key", key, "eye", cam.Eye)
	return true
}
