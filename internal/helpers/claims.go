package helpers

type EnhancedClaims struct {
	*CustomClaims
	Role   string `json:"role"`
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

func NewEnhancedClaims(claims *CustomClaims) *EnhancedClaims {
	ec := &EnhancedClaims{
		CustomClaims: claims,
		Role:         claims.Role,
		UserID:       claims.Subject,
		Email:        claims.Email,
	}
	if name, ok := claims.UserMetadata["name"].(string); ok {
		ec.Name = name
	} else if name, ok := claims.UserMetadata["full_name"].(string); ok {
		ec.Name = name
	}
	return ec
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec.UserID == userID
}

func (ec *EnhancedClaims) GetSafeRole() string {
	if ec.Role == "" {
		return "guest"
	}
	return ec.Role
}
