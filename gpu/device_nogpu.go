//go:build nogpu

package gpu

// OpenDefault always fails in builds without a hardware backend.
func OpenDefault(...Option) (*Renderer, error) {
	return nil, ErrNoAdapter
}
