package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookreview/internal/auth"
	"bookreview/internal/models"
	"bookreview/internal/services"
)

// fakes

type fakeAuthService struct {
	pair auth.TokenPair
	err  error
}

func (f *fakeAuthService) RequestConfirmationCode(context.Context, string) (int, error) {
	return 12345678, f.err
}

func (f *fakeAuthService) ExchangeCodeForToken(context.Context, string, int) (auth.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakeAuthService) RefreshToken(context.Context, string) (string, error) {
	return f.pair.Access, f.err
}

type fakeUserService struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserService) Create(input services.UserInput) (*models.User, error) {
	u := &models.User{ID: uuid.New(), Email: input.Email, Username: input.Username, Bio: input.Bio, Role: input.Role}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserService) GetByID(id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
}

func (f *fakeUserService) GetByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
}

func (f *fakeUserService) List(offset, limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserService) UpdateByUsername(username string, patch services.UserPatch) (*models.User, error) {
	return f.GetByUsername(username)
}

func (f *fakeUserService) UpdateSelf(id uuid.UUID, patch services.UserPatch) (*models.User, error) {
	if patch.Role != nil {
		return nil, fmt.Errorf("%w: role cannot be changed on the self endpoint", models.ErrValidation)
	}
	return f.GetByID(id)
}

func (f *fakeUserService) DeleteByUsername(username string) error {
	u, err := f.GetByUsername(username)
	if err != nil {
		return err
	}
	delete(f.users, u.ID)
	return nil
}

type fakeCatalogService struct {
	book  *models.Book
	genre *models.Genre
}

func (f *fakeCatalogService) CreateGenre(name, slug string) (*models.Genre, error) {
	return &models.Genre{ID: uuid.New(), Name: name, Slug: slug}, nil
}

func (f *fakeCatalogService) ListGenres(offset, limit int) ([]models.Genre, error) {
	return []models.Genre{*f.genre}, nil
}

func (f *fakeCatalogService) DeleteGenre(slug string) error {
	if slug != f.genre.Slug {
		return fmt.Errorf("%w: genre %q", models.ErrNotFound, slug)
	}
	return nil
}

func (f *fakeCatalogService) CreateBook(input services.BookInput) (*models.Book, error) {
	return &models.Book{ID: uuid.New(), Title: input.Title, Author: input.Author}, nil
}

func (f *fakeCatalogService) GetBook(id uuid.UUID) (*models.Book, error) {
	if id == f.book.ID {
		return f.book, nil
	}
	return nil, fmt.Errorf("%w: book %s", models.ErrNotFound, id)
}

func (f *fakeCatalogService) ListBooks(filter services.BookListFilter, offset, limit int) ([]models.Book, error) {
	return []models.Book{*f.book}, nil
}

func (f *fakeCatalogService) UpdateBook(id uuid.UUID, patch services.BookPatch) (*models.Book, error) {
	return f.GetBook(id)
}

func (f *fakeCatalogService) DeleteBook(id uuid.UUID) error {
	_, err := f.GetBook(id)
	return err
}

type fakeReviewService struct {
	review  *models.Review
	comment *models.Comment
}

func (f *fakeReviewService) CreateReview(bookID, authorID uuid.UUID, text string, score int) (*models.Review, error) {
	return &models.Review{ID: uuid.New(), BookID: bookID, AuthorID: authorID, Text: text, Score: score, PubDate: time.Now().UTC()}, nil
}

func (f *fakeReviewService) GetReview(bookID, reviewID uuid.UUID) (*models.Review, error) {
	if bookID == f.review.BookID && reviewID == f.review.ID {
		return f.review, nil
	}
	return nil, fmt.Errorf("%w: review %s", models.ErrNotFound, reviewID)
}

func (f *fakeReviewService) ListReviews(bookID uuid.UUID, offset, limit int) ([]models.Review, error) {
	return []models.Review{*f.review}, nil
}

func (f *fakeReviewService) UpdateReview(bookID, reviewID uuid.UUID, patch services.ReviewPatch) (*models.Review, error) {
	return f.GetReview(bookID, reviewID)
}

func (f *fakeReviewService) DeleteReview(bookID, reviewID uuid.UUID) error {
	_, err := f.GetReview(bookID, reviewID)
	return err
}

func (f *fakeReviewService) CreateComment(reviewID, authorID uuid.UUID, text string) (*models.Comment, error) {
	return &models.Comment{ID: uuid.New(), ReviewID: reviewID, AuthorID: authorID, Text: text, PubDate: time.Now().UTC()}, nil
}

func (f *fakeReviewService) GetComment(reviewID, commentID uuid.UUID) (*models.Comment, error) {
	if reviewID == f.comment.ReviewID && commentID == f.comment.ID {
		return f.comment, nil
	}
	return nil, fmt.Errorf("%w: comment %s", models.ErrNotFound, commentID)
}

func (f *fakeReviewService) ListComments(reviewID uuid.UUID, offset, limit int) ([]models.Comment, error) {
	return []models.Comment{*f.comment}, nil
}

func (f *fakeReviewService) UpdateComment(reviewID, commentID uuid.UUID, text string) (*models.Comment, error) {
	return f.GetComment(reviewID, commentID)
}

func (f *fakeReviewService) DeleteComment(reviewID, commentID uuid.UUID) error {
	_, err := f.GetComment(reviewID, commentID)
	return err
}

// fixtures

type fixtures struct {
	router *gin.Engine
	issuer *auth.Issuer

	admin     *models.User
	moderator *models.User
	alice     *models.User // authors the review and the comment
	bob       *models.User // plain user, no elevated rights

	book    *models.Book
	review  *models.Review
	comment *models.Comment
}

func setup(t *testing.T) *fixtures {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixtures{
		issuer:    auth.NewIssuer("test-secret", 15*time.Minute, 24*time.Hour),
		admin:     &models.User{ID: uuid.New(), Username: "root", Email: "root@x.com", Role: models.RoleAdmin},
		moderator: &models.User{ID: uuid.New(), Username: "mod", Email: "mod@x.com", Role: models.RoleModerator},
		alice:     &models.User{ID: uuid.New(), Username: "alice", Email: "alice@x.com", Role: models.RoleUser},
		bob:       &models.User{ID: uuid.New(), Username: "bob", Email: "bob@x.com", Role: models.RoleUser},
	}

	rating := 4.0
	f.book = &models.Book{ID: uuid.New(), Title: "Dune", Author: "Frank Herbert", Rating: &rating}
	f.review = &models.Review{ID: uuid.New(), BookID: f.book.ID, AuthorID: f.alice.ID, Text: "great", Score: 4}
	f.comment = &models.Comment{ID: uuid.New(), ReviewID: f.review.ID, AuthorID: f.alice.ID, Text: "agreed"}

	userSvc := &fakeUserService{users: map[uuid.UUID]*models.User{
		f.admin.ID:     f.admin,
		f.moderator.ID: f.moderator,
		f.alice.ID:     f.alice,
		f.bob.ID:       f.bob,
	}}

	f.router = gin.New()
	RegisterRoutes(
		f.router,
		f.issuer,
		&fakeAuthService{pair: auth.TokenPair{Access: "acc", Refresh: "ref"}},
		userSvc,
		&fakeCatalogService{book: f.book, genre: &models.Genre{ID: uuid.New(), Name: "Sci-Fi", Slug: "sci-fi"}},
		&fakeReviewService{review: f.review, comment: f.comment},
	)
	return f
}

func (f *fixtures) token(t *testing.T, u *models.User) string {
	t.Helper()
	pair, err := f.issuer.Mint(u.ID, u.Role)
	require.NoError(t, err)
	return pair.Access
}

func (f *fixtures) do(t *testing.T, method, path, body string, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+f.token(t, user))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// catalog permissions

func TestAnonymousCanReadBooks(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodGet, "/api/v1/books", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnonymousCannotCreateBook(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPost, "/api/v1/books", `{"title":"Dune","author":"Frank Herbert"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlainUserCannotCreateBook(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPost, "/api/v1/books", `{"title":"Dune","author":"Frank Herbert"}`, f.bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCanCreateBook(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPost, "/api/v1/books", `{"title":"Dune","author":"Frank Herbert"}`, f.admin)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPlainUserCannotDeleteGenre(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodDelete, "/api/v1/genres/sci-fi", "", f.bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCanDeleteGenre(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodDelete, "/api/v1/genres/sci-fi", "", f.admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestModeratorCannotUpdateBook(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPatch, "/api/v1/books/"+f.book.ID.String(), `{"title":"New"}`, f.moderator)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// review/comment permissions

func TestAnonymousCannotPostReview(t *testing.T) {
	f := setup(t)
	path := "/api/v1/books/" + f.book.ID.String() + "/reviews"
	w := f.do(t, http.MethodPost, path, `{"text":"nice","score":5}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticatedUserCanPostReview(t *testing.T) {
	f := setup(t)
	path := "/api/v1/books/" + f.book.ID.String() + "/reviews"
	w := f.do(t, http.MethodPost, path, `{"text":"nice","score":5}`, f.bob)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthorCanUpdateOwnReview(t *testing.T) {
	f := setup(t)
	path := "/api/v1/books/" + f.book.ID.String() + "/reviews/" + f.review.ID.String()
	w := f.do(t, http.MethodPatch, path, `{"score":2}`, f.alice)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStrangerCannotUpdateReview(t *testing.T) {
	f := setup(t)
	path := "/api/v1/books/" + f.book.ID.String() + "/reviews/" + f.review.ID.String()
	w := f.do(t, http.MethodPatch, path, `{"score":2}`, f.bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestModeratorCanDeleteOthersReview(t *testing.T) {
	f := setup(t)
	path := "/api/v1/books/" + f.book.ID.String() + "/reviews/" + f.review.ID.String()
	w := f.do(t, http.MethodDelete, path, "", f.moderator)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestModeratorCanDeleteOthersComment(t *testing.T) {
	f := setup(t)
	path := "/api/v1/reviews/" + f.review.ID.String() + "/comments/" + f.comment.ID.String()
	w := f.do(t, http.MethodDelete, path, "", f.moderator)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStrangerCannotDeleteComment(t *testing.T) {
	f := setup(t)
	path := "/api/v1/reviews/" + f.review.ID.String() + "/comments/" + f.comment.ID.String()
	w := f.do(t, http.MethodDelete, path, "", f.bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAnonymousCanReadReviews(t *testing.T) {
	f := setup(t)
	path := "/api/v1/books/" + f.book.ID.String() + "/reviews"
	w := f.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// auth endpoints

func TestRequestConfirmationCodeEndpoint(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPost, "/api/v1/auth/email", `{"email":"a@x.com"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@x.com")
}

func TestRequestConfirmationCodeRejectsBadEmail(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPost, "/api/v1/auth/email", `{"email":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExchangeTokenEndpoint(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPost, "/api/v1/auth/token", `{"email":"a@x.com","confirmation_code":12345678}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access")
	assert.Contains(t, w.Body.String(), "refresh")
}

func TestRefreshEndpoint(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPost, "/api/v1/auth/token/refresh", `{"refresh":"ref"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access")
}

// user directory

func TestListUsersRequiresAdmin(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users", "", f.bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users", "", f.admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	f := setup(t)
	body := `{"email":"new@x.com","username":"newbie"}`

	w := f.do(t, http.MethodPost, "/api/v1/users", body, f.bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/users", body, f.admin)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "newbie")
}

func TestSelfEndpoint(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users/me", "", f.alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestSelfUpdateCannotChangeRole(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodPatch, "/api/v1/users/me", `{"role":"admin"}`, f.bob)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidTokenRejected(t *testing.T) {
	f := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenForDeletedUserRejected(t *testing.T) {
	f := setup(t)
	ghost := &models.User{ID: uuid.New(), Role: models.RoleUser}
	w := f.do(t, http.MethodGet, "/api/v1/books", "", ghost)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvalidBookIDRejected(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodGet, "/api/v1/books/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownReviewIs404(t *testing.T) {
	f := setup(t)
	path := "/api/v1/books/" + f.book.ID.String() + "/reviews/" + uuid.NewString()
	w := f.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
