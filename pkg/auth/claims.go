package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a shopper JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Language enums.Language
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to shoppers.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Language enums.Language `json:"lang,omitempty"`
	jwt.RegisteredClaims
}
