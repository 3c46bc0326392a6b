package domain

// Visibility controls whether a room shows up in the public listing.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility coerces anything that is not explicitly private to public.
func ParseVisibility(s string) Visibility {
	if s == string(VisibilityPrivate) {
		return VisibilityPrivate
	}
	return VisibilityPublic
}
