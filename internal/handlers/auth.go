package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type requestCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *API) requestConfirmationCode(c *gin.Context) {
	var req requestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if _, err := h.auth.RequestConfirmationCode(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": req.Email})
}

type exchangeTokenRequest struct {
	Email            string `json:"email" binding:"required,email"`
	ConfirmationCode int    `json:"confirmation_code" binding:"required"`
}

func (h *API) exchangeCodeForToken(c *gin.Context) {
	var req exchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	pair, err := h.auth.ExchangeCodeForToken(c.Request.Context(), req.Email, req.ConfirmationCode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type refreshTokenRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func (h *API) refreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	access, err := h.auth.RefreshToken(c.Request.Context(), req.Refresh)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}
