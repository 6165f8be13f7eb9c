package auth

import (
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.ProfileRole
	JTI    string
}

// AccessTokenClaims mirrors the identity provider's session token. The user
// id travels in the standard subject claim.
type AccessTokenClaims struct {
	Email string            `json:"email,omitempty"`
	Role  enums.ProfileRole `json:"app_role,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *AccessTokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
