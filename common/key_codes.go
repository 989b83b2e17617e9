package common

// Key codes delivered by window key callbacks. Printable keys use their ASCII value, the rest
// follow GLFW.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace = 32 // Spacebar (ASCII)
	KeyA     = 65 // A key (ASCII)
	KeyD     = 68 // D key (ASCII)
	KeyO     = 79 // O key (ASCII)
	KeyP     = 80 // P key (ASCII)
	KeyR     = 82 // R key (ASCII)
	KeyS     = 83 // S key (ASCII)
	KeyW     = 87 // W key (ASCII)
)
