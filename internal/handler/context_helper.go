package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-records-api/internal/middleware"
	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// int64Param parses a positive numeric path parameter.
func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}
