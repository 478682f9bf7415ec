package repositories

import (
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookreview/internal/models"
)

// Each repository method takes an explicit *gorm.DB so the same repository can
// run inside a transaction (pass the tx handle) or standalone (pass nil to use
// the handle bound at construction).

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	GetByEmail(db *gorm.DB, email string) (*models.User, error)
	GetByUsername(db *gorm.DB, username string) (*models.User, error)
	List(db *gorm.DB, offset, limit int) ([]models.User, error)
	Update(db *gorm.DB, user *models.User) error
	UpdateConfirmationCode(db *gorm.DB, id uuid.UUID, code int) error
	Delete(db *gorm.DB, id uuid.UUID) error
}

type GenreRepository interface {
	Create(db *gorm.DB, genre *models.Genre) error
	GetBySlug(db *gorm.DB, slug string) (*models.Genre, error)
	List(db *gorm.DB, offset, limit int) ([]models.Genre, error)
	DeleteBySlug(db *gorm.DB, slug string) (int64, error)
}

// BookFilter holds the supported book list filters. Title matches as a
// substring; the other fields match exactly. Zero values are ignored.
type BookFilter struct {
	GenreID *uuid.UUID
	Title   string
	Author  string
	Country string
}

type BookRepository interface {
	Create(db *gorm.DB, book *models.Book) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error)
	GetByIDForUpdate(db *gorm.DB, id uuid.UUID) (*models.Book, error)
	List(db *gorm.DB, filter BookFilter, offset, limit int) ([]models.Book, error)
	Update(db *gorm.DB, book *models.Book) error
	UpdateRating(db *gorm.DB, id uuid.UUID, rating float64) error
	Delete(db *gorm.DB, id uuid.UUID) error
}

type ReviewRepository interface {
	Create(db *gorm.DB, review *models.Review) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Review, error)
	GetByBookAndAuthor(db *gorm.DB, bookID, authorID uuid.UUID) (*models.Review, error)
	ListByBook(db *gorm.DB, bookID uuid.UUID, offset, limit int) ([]models.Review, error)
	Update(db *gorm.DB, review *models.Review) error
	Delete(db *gorm.DB, id uuid.UUID) error
	AverageScore(db *gorm.DB, bookID uuid.UUID) (*float64, error)
}

type CommentRepository interface {
	Create(db *gorm.DB, comment *models.Comment) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Comment, error)
	ListByReview(db *gorm.DB, reviewID uuid.UUID, offset, limit int) ([]models.Comment, error)
	Update(db *gorm.DB, comment *models.Comment) error
	Delete(db *gorm.DB, id uuid.UUID) error
}

// concrete implementations

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	if db == nil {
		db = r.db
	}
	return db.Create(user).Error
}

func (r *userRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(db *gorm.DB, username string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(db *gorm.DB, offset, limit int) ([]models.User, error) {
	if db == nil {
		db = r.db
	}
	var users []models.User
	if err := db.Order("username").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(db *gorm.DB, user *models.User) error {
	if db == nil {
		db = r.db
	}
	// The confirmation code is written only through UpdateConfirmationCode; a
	// profile edit racing a code request must not revert the fresh code. The
	// superuser flag is never client-writable either.
	return db.Omit("confirmation_code", "superuser").Save(user).Error
}

func (r *userRepository) UpdateConfirmationCode(db *gorm.DB, id uuid.UUID, code int) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.User{}).
		Where("id = ?", id).
		Update("confirmation_code", code).
		Error
}

func (r *userRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.User{}, "id = ?", id).Error
}

type genreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &genreRepository{db: db}
}

func (r *genreRepository) Create(db *gorm.DB, genre *models.Genre) error {
	if db == nil {
		db = r.db
	}
	return db.Create(genre).Error
}

func (r *genreRepository) GetBySlug(db *gorm.DB, slug string) (*models.Genre, error) {
	if db == nil {
		db = r.db
	}
	var genre models.Genre
	if err := db.First(&genre, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *genreRepository) List(db *gorm.DB, offset, limit int) ([]models.Genre, error) {
	if db == nil {
		db = r.db
	}
	var genres []models.Genre
	if err := db.Order("name").Offset(offset).Limit(limit).Find(&genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *genreRepository) DeleteBySlug(db *gorm.DB, slug string) (int64, error) {
	if db == nil {
		db = r.db
	}
	res := db.Delete(&models.Genre{}, "slug = ?", slug)
	return res.RowsAffected, res.Error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	// Genre rows are managed through their own repository; only the FK is
	// written here.
	return db.Omit(clause.Associations).Create(book).Error
}

func (r *bookRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	if err := db.Preload("Genre").First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) GetByIDForUpdate(db *gorm.DB, id uuid.UUID) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&book, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(db *gorm.DB, filter BookFilter, offset, limit int) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	q := db.Preload("Genre")
	if filter.GenreID != nil {
		q = q.Where("genre_id = ?", *filter.GenreID)
	}
	if filter.Title != "" {
		q = q.Where("title LIKE ?", "%"+filter.Title+"%")
	}
	if filter.Author != "" {
		q = q.Where("author = ?", filter.Author)
	}
	if filter.Country != "" {
		q = q.Where("country = ?", filter.Country)
	}
	var books []models.Book
	if err := q.Order("title").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) Update(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	// Rating is owned by the recompute path. Writing it here would revert a
	// concurrent recompute to the value read at the start of this transaction.
	return db.Omit(clause.Associations, "rating").Save(book).Error
}

func (r *bookRepository) UpdateRating(db *gorm.DB, id uuid.UUID, rating float64) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Book{}).
		Where("id = ?", id).
		Update("rating", rating).
		Error
}

func (r *bookRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Book{}, "id = ?", id).Error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(db *gorm.DB, review *models.Review) error {
	if db == nil {
		db = r.db
	}
	return db.Create(review).Error
}

func (r *reviewRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Review, error) {
	if db == nil {
		db = r.db
	}
	var review models.Review
	if err := db.First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByBookAndAuthor(db *gorm.DB, bookID, authorID uuid.UUID) (*models.Review, error) {
	if db == nil {
		db = r.db
	}
	var review models.Review
	err := db.Where("book_id = ? AND author_id = ?", bookID, authorID).First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByBook(db *gorm.DB, bookID uuid.UUID, offset, limit int) ([]models.Review, error) {
	if db == nil {
		db = r.db
	}
	var reviews []models.Review
	err := db.Where("book_id = ?", bookID).
		Order("pub_date DESC").
		Offset(offset).Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Update(db *gorm.DB, review *models.Review) error {
	if db == nil {
		db = r.db
	}
	return db.Save(review).Error
}

func (r *reviewRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Review{}, "id = ?", id).Error
}

// AverageScore returns the unrounded mean of the book's review scores, or nil
// when the book has no reviews.
func (r *reviewRepository) AverageScore(db *gorm.DB, bookID uuid.UUID) (*float64, error) {
	if db == nil {
		db = r.db
	}
	var avg sql.NullFloat64
	err := db.Model(&models.Review{}).
		Where("book_id = ?", bookID).
		Select("AVG(score)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	v := avg.Float64
	return &v, nil
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(db *gorm.DB, comment *models.Comment) error {
	if db == nil {
		db = r.db
	}
	return db.Create(comment).Error
}

func (r *commentRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Comment, error) {
	if db == nil {
		db = r.db
	}
	var comment models.Comment
	if err := db.First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByReview(db *gorm.DB, reviewID uuid.UUID, offset, limit int) ([]models.Comment, error) {
	if db == nil {
		db = r.db
	}
	var comments []models.Comment
	err := db.Where("review_id = ?", reviewID).
		Order("pub_date DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Update(db *gorm.DB, comment *models.Comment) error {
	if db == nil {
		db = r.db
	}
	return db.Save(comment).Error
}

func (r *commentRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Comment{}, "id = ?", id).Error
}
