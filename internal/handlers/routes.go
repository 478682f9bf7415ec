package handlers

import (
	"github.com/gin-gonic/gin"

	"bookreview/internal/auth"
	"bookreview/internal/services"
)

// API bundles the services behind the HTTP surface.
type API struct {
	auth    services.AuthService
	users   services.UserService
	catalog services.CatalogService
	reviews services.ReviewService
}

// RegisterRoutes wires the full v1 surface onto the router.
func RegisterRoutes(
	r *gin.Engine,
	issuer *auth.Issuer,
	authSvc services.AuthService,
	userSvc services.UserService,
	catalogSvc services.CatalogService,
	reviewSvc services.ReviewService,
) {
	h := &API{auth: authSvc, users: userSvc, catalog: catalogSvc, reviews: reviewSvc}

	v1 := r.Group("/api/v1")
	v1.Use(Authenticate(issuer, userSvc))

	v1.POST("/auth/email", h.requestConfirmationCode)
	v1.POST("/auth/token", h.exchangeCodeForToken)
	v1.POST("/auth/token/refresh", h.refreshToken)

	users := v1.Group("/users")
	users.GET("", h.listUsers)
	users.POST("", h.createUser)
	users.GET("/me", RequireAuth(), h.getSelf)
	users.PATCH("/me", RequireAuth(), h.updateSelf)
	users.GET("/:username", h.getUser)
	users.PATCH("/:username", h.updateUser)
	users.DELETE("/:username", h.deleteUser)

	genres := v1.Group("/genres")
	genres.GET("", h.listGenres)
	genres.POST("", h.createGenre)
	genres.DELETE("/:slug", h.deleteGenre)

	books := v1.Group("/books")
	books.GET("", h.listBooks)
	books.POST("", h.createBook)
	books.GET("/:bookID", h.getBook)
	books.PATCH("/:bookID", h.updateBook)
	books.DELETE("/:bookID", h.deleteBook)

	reviews := v1.Group("/books/:bookID/reviews")
	reviews.GET("", h.listReviews)
	reviews.POST("", RequireAuth(), h.createReview)
	reviews.GET("/:reviewID", h.getReview)
	reviews.PATCH("/:reviewID", h.updateReview)
	reviews.DELETE("/:reviewID", h.deleteReview)

	comments := v1.Group("/reviews/:reviewID/comments")
	comments.GET("", h.listComments)
	comments.POST("", RequireAuth(), h.createComment)
	comments.GET("/:commentID", h.getComment)
	comments.PATCH("/:commentID", h.updateComment)
	comments.DELETE("/:commentID", h.deleteComment)
}
