package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsdeskhq/newsdesk-backend/dto"
	"github.com/newsdeskhq/newsdesk-backend/utils"
)

// POST /jwt
func IssueToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.TokenRequestDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		email := strings.ToLower(strings.TrimSpace(body.Email))

		token, err := utils.GenerateToken(email, utils.TokenTTL())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
