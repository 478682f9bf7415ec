package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookreview/internal/models"
	"bookreview/internal/permissions"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrAuthenticationFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// writeDenied distinguishes "not authenticated" from "insufficient role" in
// the response status only; callers are denied either way.
func writeDenied(c *gin.Context, u *models.User) {
	if u == nil {
		writeError(c, models.ErrAuthenticationFailed)
		return
	}
	writeError(c, models.ErrAccessDenied)
}

// parsePagination reads page/page_size query params into an offset and limit.
func parsePagination(c *gin.Context) (offset, limit int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.Query("page_size"))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return (page - 1) * limit, limit
}

// authorizeCatalogWrite gates genre/book mutations behind the permission
// evaluator. Returns false after writing the denial response.
func authorizeCatalogWrite(c *gin.Context, action permissions.Action) bool {
	u := currentUser(c)
	if permissions.CanWriteCatalog(u, action) {
		return true
	}
	writeDenied(c, u)
	return false
}

// authorizeAuthored gates review/comment mutations on ownership or role.
func authorizeAuthored(c *gin.Context, action permissions.Action, authorID uuid.UUID) bool {
	u := currentUser(c)
	if permissions.CanActOnAuthoredResource(u, action, authorID) {
		return true
	}
	writeDenied(c, u)
	return false
}
