package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookreview/internal/permissions"
	"bookreview/internal/services"
)

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func (h *API) listReviews(c *gin.Context) {
	bookID, ok := pathUUID(c, "bookID")
	if !ok {
		return
	}
	offset, limit := parsePagination(c)
	reviews, err := h.reviews.ListReviews(bookID, offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

type createReviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score"`
}

func (h *API) createReview(c *gin.Context) {
	bookID, ok := pathUUID(c, "bookID")
	if !ok {
		return
	}
	if !authorizeAuthored(c, permissions.ActionCreate, uuid.Nil) {
		return
	}
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	review, err := h.reviews.CreateReview(bookID, currentUser(c).ID, req.Text, req.Score)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *API) getReview(c *gin.Context) {
	bookID, ok := pathUUID(c, "bookID")
	if !ok {
		return
	}
	reviewID, ok := pathUUID(c, "reviewID")
	if !ok {
		return
	}
	review, err := h.reviews.GetReview(bookID, reviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

type updateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

func (h *API) updateReview(c *gin.Context) {
	bookID, ok := pathUUID(c, "bookID")
	if !ok {
		return
	}
	reviewID, ok := pathUUID(c, "reviewID")
	if !ok {
		return
	}

	review, err := h.reviews.GetReview(bookID, reviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !authorizeAuthored(c, permissions.ActionUpdate, review.AuthorID) {
		return
	}

	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	updated, err := h.reviews.UpdateReview(bookID, reviewID, services.ReviewPatch{
		Text:  req.Text,
		Score: req.Score,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *API) deleteReview(c *gin.Context) {
	bookID, ok := pathUUID(c, "bookID")
	if !ok {
		return
	}
	reviewID, ok := pathUUID(c, "reviewID")
	if !ok {
		return
	}

	review, err := h.reviews.GetReview(bookID, reviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !authorizeAuthored(c, permissions.ActionDelete, review.AuthorID) {
		return
	}

	if err := h.reviews.DeleteReview(bookID, reviewID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *API) listComments(c *gin.Context) {
	reviewID, ok := pathUUID(c, "reviewID")
	if !ok {
		return
	}
	offset, limit := parsePagination(c)
	comments, err := h.reviews.ListComments(reviewID, offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *API) createComment(c *gin.Context) {
	reviewID, ok := pathUUID(c, "reviewID")
	if !ok {
		return
	}
	if !authorizeAuthored(c, permissions.ActionCreate, uuid.Nil) {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	comment, err := h.reviews.CreateComment(reviewID, currentUser(c).ID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *API) getComment(c *gin.Context) {
	reviewID, ok := pathUUID(c, "reviewID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(c, "commentID")
	if !ok {
		return
	}
	comment, err := h.reviews.GetComment(reviewID, commentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *API) updateComment(c *gin.Context) {
	reviewID, ok := pathUUID(c, "reviewID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(c, "commentID")
	if !ok {
		return
	}

	comment, err := h.reviews.GetComment(reviewID, commentID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !authorizeAuthored(c, permissions.ActionUpdate, comment.AuthorID) {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	updated, err := h.reviews.UpdateComment(reviewID, commentID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *API) deleteComment(c *gin.Context) {
	reviewID, ok := pathUUID(c, "reviewID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(c, "commentID")
	if !ok {
		return
	}

	comment, err := h.reviews.GetComment(reviewID, commentID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !authorizeAuthored(c, permissions.ActionDelete, comment.AuthorID) {
		return
	}

	if err := h.reviews.DeleteComment(reviewID, commentID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
