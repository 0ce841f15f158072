package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hauntworks/hauntworks-backend/pkg/enums"
)

// AccessTokenClaims is the typed JWT the platform's auth service issues.
// This service only consumes tokens; minting lives with the identity system.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"user_id"`
	OrgID  *uuid.UUID       `json:"org_id,omitempty"`
	Role   enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
