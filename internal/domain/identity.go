package domain

// Identity is the resolved user behind a connection credential.
// It is set once at handshake time and immutable for the connection's life.
type Identity struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	ProfilePic *string `json:"profilePic"`
}
