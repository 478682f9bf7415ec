package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookreview/internal/models"
	"bookreview/internal/permissions"
	"bookreview/internal/services"
)

// requireAdmin gates the user directory, which is admin-only end to end.
func requireAdmin(c *gin.Context) bool {
	u := currentUser(c)
	if permissions.IsAdmin(u) {
		return true
	}
	writeDenied(c, u)
	return false
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Bio      string `json:"bio"`
	Role     string `json:"role"`
}

func (h *API) createUser(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.Create(services.UserInput{
		Email:    req.Email,
		Username: req.Username,
		Bio:      req.Bio,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *API) listUsers(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	offset, limit := parsePagination(c)
	users, err := h.users.List(offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *API) getUser(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	user, err := h.users.GetByUsername(c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	Role     *string `json:"role"`
}

func (r updateUserRequest) patch() services.UserPatch {
	p := services.UserPatch{
		Email:    r.Email,
		Username: r.Username,
		Bio:      r.Bio,
	}
	if r.Role != nil {
		role := models.Role(*r.Role)
		p.Role = &role
	}
	return p
}

func (h *API) updateUser(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.UpdateByUsername(c.Param("username"), req.patch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *API) deleteUser(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	if err := h.users.DeleteByUsername(c.Param("username")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *API) getSelf(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *API) updateSelf(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	// Role changes go through the admin resource, never self-service; the
	// service rejects them on this path.
	user, err := h.users.UpdateSelf(currentUser(c).ID, req.patch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
