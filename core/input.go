package core

// Key identifies a keyboard key. Values match GLFW key codes, which for
// letters equal their ASCII upper-case codes.
type Key int

const (
	KeyA      Key = 65
	KeyD      Key = 68
	KeyS      Key = 83
	KeyW      Key = 87
	KeyEscape Key = 256
	KeyTab    Key = 258
	KeyRight  Key = 262
	KeyLeft   Key = 263
	KeyDown   Key = 264
	KeyUp     Key = 265
)

// Action is the state change reported with a key or mouse button event.
type Action int

const (
	Release Action = 0
	Press   Action = 1
	Repeat  Action = 2
)

// MouseButton values match GLFW mouse button codes.
type MouseButton int

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)
