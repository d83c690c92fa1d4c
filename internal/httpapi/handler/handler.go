// Package handler wires HTTP routes to the service layer and maps
// service sentinel errors onto response status codes.
package handler

import "github.com/gin-gonic/gin"

// currentEmail returns the authenticated caller's email as set by the
// auth middleware. Empty when the route is unauthenticated.
func currentEmail(c *gin.Context) string {
	email, _ := c.Get("email")
	s, _ := email.(string)
	return s
}

// currentRole returns the authenticated caller's role as set by the
// auth middleware.
func currentRole(c *gin.Context) string {
	role, _ := c.Get("role")
	s, _ := role.(string)
	return s
}
