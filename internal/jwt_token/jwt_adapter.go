package jwttoken

import "vaultbridge/internal/platform/middleware"

// MiddlewareAdapter bridges JWTService to the middleware.JWTValidator
// interface without the middleware package importing jwt internals.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}
