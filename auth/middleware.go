package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextUserKey = "auth.userID"

// OptionalIdentity resolves a bearer token when one is present. Every
// verification failure resolves to anonymous: conversion routes work
// without identity, they just skip audit and metadata writes.
func OptionalIdentity(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if userID, err := svc.Verify(token); err == nil {
				c.Set(contextUserKey, userID)
			}
		}
		c.Next()
	}
}

// RequireIdentity aborts with 401 unless OptionalIdentity resolved a user.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFromContext(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication required"})
			return
		}
		c.Next()
	}
}

// UserIDFromContext returns the resolved caller identity, or nil for
// anonymous requests.
func UserIDFromContext(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
