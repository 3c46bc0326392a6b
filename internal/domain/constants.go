package domain

// ==== Payload Constants ====

// MaxImageBytes is the maximum decoded size of an image payload.
const MaxImageBytes = 5 * 1024 * 1024

// MaxSocketBuffer is the websocket read limit. Sized so a maximal image
// survives base64 expansion plus the envelope around it.
const MaxSocketBuffer = MaxImageBytes * 3 / 2

// ==== AI Identity ====

const (
	// AIHandle is the mention token that triggers the AI responder.
	AIHandle = "gemini"

	// AIName is the display name on AI-originated messages.
	AIName = "Gemini"
)

// ==== Room Code Constants ====

const (
	// RoomCodeMin is the smallest allocatable room code.
	RoomCodeMin = 1000

	// RoomCodeSpan is the number of allocatable codes (1000-9999).
	RoomCodeSpan = 9000
)
