package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookreview/internal/permissions"
	"bookreview/internal/services"
)

func (h *API) listGenres(c *gin.Context) {
	offset, limit := parsePagination(c)
	genres, err := h.catalog.ListGenres(offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, genres)
}

type createGenreRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

func (h *API) createGenre(c *gin.Context) {
	if !authorizeCatalogWrite(c, permissions.ActionCreate) {
		return
	}
	var req createGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	genre, err := h.catalog.CreateGenre(req.Name, req.Slug)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, genre)
}

func (h *API) deleteGenre(c *gin.Context) {
	if !authorizeCatalogWrite(c, permissions.ActionDelete) {
		return
	}
	if err := h.catalog.DeleteGenre(c.Param("slug")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *API) listBooks(c *gin.Context) {
	offset, limit := parsePagination(c)
	filter := services.BookListFilter{
		GenreSlug: c.Query("genre"),
		Title:     c.Query("title"),
		Author:    c.Query("author"),
		Country:   c.Query("country"),
	}
	books, err := h.catalog.ListBooks(filter, offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

type createBookRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	Country     string `json:"country"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
}

func (h *API) createBook(c *gin.Context) {
	if !authorizeCatalogWrite(c, permissions.ActionCreate) {
		return
	}
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	book, err := h.catalog.CreateBook(services.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		Country:     req.Country,
		Description: req.Description,
		GenreSlug:   req.Genre,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *API) getBook(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("bookID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}
	book, err := h.catalog.GetBook(bookID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

type updateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Country     *string `json:"country"`
	Description *string `json:"description"`
	Genre       *string `json:"genre"`
}

func (h *API) updateBook(c *gin.Context) {
	if !authorizeCatalogWrite(c, permissions.ActionUpdate) {
		return
	}
	bookID, err := uuid.Parse(c.Param("bookID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}
	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	book, err := h.catalog.UpdateBook(bookID, services.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		Country:     req.Country,
		Description: req.Description,
		GenreSlug:   req.Genre,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *API) deleteBook(c *gin.Context) {
	if !authorizeCatalogWrite(c, permissions.ActionDelete) {
		return
	}
	bookID, err := uuid.Parse(c.Param("bookID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}
	if err := h.catalog.DeleteBook(bookID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
