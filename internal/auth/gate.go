package auth

import "github.com/duccv/movie-rating-api/internal/model"

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Authorize allows identities whose role ranks at or above required.
func Authorize(identity *model.Identity, required model.Role) Decision {
	if identity == nil || required.Rank() == 0 {
		return Deny
	}
	return Decision(identity.Role.Rank() >= required.Rank())
}

// AuthorizeOwner allows only the identity that owns the resource.
func AuthorizeOwner(identity *model.Identity, ownerID string) Decision {
	if identity == nil || ownerID == "" {
		return Deny
	}
	return Decision(identity.ID == ownerID)
}
