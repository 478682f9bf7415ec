package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookreview/internal/models"
	"bookreview/internal/repositories"
)

// ReviewPatch carries the mutable review fields; pub_date is immutable.
type ReviewPatch struct {
	Text  *string
	Score *int
}

// ReviewService manages reviews and their comments, and keeps book ratings in
// step with review mutations.
type ReviewService interface {
	CreateReview(bookID, authorID uuid.UUID, text string, score int) (*models.Review, error)
	GetReview(bookID, reviewID uuid.UUID) (*models.Review, error)
	ListReviews(bookID uuid.UUID, offset, limit int) ([]models.Review, error)
	UpdateReview(bookID, reviewID uuid.UUID, patch ReviewPatch) (*models.Review, error)
	DeleteReview(bookID, reviewID uuid.UUID) error

	CreateComment(reviewID, authorID uuid.UUID, text string) (*models.Comment, error)
	GetComment(reviewID, commentID uuid.UUID) (*models.Comment, error)
	ListComments(reviewID uuid.UUID, offset, limit int) ([]models.Comment, error)
	UpdateComment(reviewID, commentID uuid.UUID, text string) (*models.Comment, error)
	DeleteComment(reviewID, commentID uuid.UUID) error
}

type reviewService struct {
	db          *gorm.DB
	bookRepo    repositories.BookRepository
	reviewRepo  repositories.ReviewRepository
	commentRepo repositories.CommentRepository
}

func NewReviewService(
	db *gorm.DB,
	bookRepo repositories.BookRepository,
	reviewRepo repositories.ReviewRepository,
	commentRepo repositories.CommentRepository,
) ReviewService {
	return &reviewService{
		db:          db,
		bookRepo:    bookRepo,
		reviewRepo:  reviewRepo,
		commentRepo: commentRepo,
	}
}

// CreateReview implements the one-review-per-(book,author) rule.
//
// All in one transaction:
//  1. Lock the book row (FOR UPDATE) so two concurrent submissions for the
//     same book serialize here.
//  2. Reject if the author already reviewed this book.
//  3. Insert the review; the unique (book_id, author_id) index backstops any
//     race the lock did not cover.
//  4. Recompute the book's rating so a read after this call sees it.
func (s *reviewService) CreateReview(bookID, authorID uuid.UUID, text string, score int) (*models.Review, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: review text is required", models.ErrValidation)
	}

	var review *models.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.bookRepo.GetByIDForUpdate(tx, bookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: book %s", models.ErrNotFound, bookID)
			}
			return err
		}

		_, err := s.reviewRepo.GetByBookAndAuthor(tx, bookID, authorID)
		if err == nil {
			log.Printf("[WARN] CreateReview: user %s already reviewed book %s", authorID, bookID)
			return models.ErrOneReviewPerBook
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		review = &models.Review{
			Text:     text,
			Score:    score,
			PubDate:  time.Now().UTC(),
			BookID:   bookID,
			AuthorID: authorID,
		}
		if err := s.reviewRepo.Create(tx, review); err != nil {
			if isUniqueViolation(err) {
				return models.ErrOneReviewPerBook
			}
			return err
		}

		return s.recomputeRating(tx, bookID)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] CreateReview: review %s created for book %s by user %s", review.ID, bookID, authorID)
	return review, nil
}

func (s *reviewService) GetReview(bookID, reviewID uuid.UUID) (*models.Review, error) {
	return s.getReviewInBook(nil, bookID, reviewID)
}

func (s *reviewService) ListReviews(bookID uuid.UUID, offset, limit int) ([]models.Review, error) {
	if _, err := s.bookRepo.GetByID(nil, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book %s", models.ErrNotFound, bookID)
		}
		return nil, err
	}
	return s.reviewRepo.ListByBook(nil, bookID, offset, limit)
}

func (s *reviewService) UpdateReview(bookID, reviewID uuid.UUID, patch ReviewPatch) (*models.Review, error) {
	var updated *models.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		review, err := s.getReviewInBook(tx, bookID, reviewID)
		if err != nil {
			return err
		}
		if patch.Text != nil {
			review.Text = *patch.Text
		}
		if patch.Score != nil {
			review.Score = *patch.Score
		}
		if err := s.reviewRepo.Update(tx, review); err != nil {
			return err
		}
		updated = review
		return s.recomputeRating(tx, bookID)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] UpdateReview: review %s updated", reviewID)
	return updated, nil
}

func (s *reviewService) DeleteReview(bookID, reviewID uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.getReviewInBook(tx, bookID, reviewID); err != nil {
			return err
		}
		// Comments on the review go with it (FK cascade).
		if err := s.reviewRepo.Delete(tx, reviewID); err != nil {
			return err
		}
		return s.recomputeRating(tx, bookID)
	})
	if err != nil {
		return err
	}
	log.Printf("[INFO] DeleteReview: review %s deleted from book %s", reviewID, bookID)
	return nil
}

func (s *reviewService) CreateComment(reviewID, authorID uuid.UUID, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrValidation)
	}
	if _, err := s.reviewRepo.GetByID(nil, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review %s", models.ErrNotFound, reviewID)
		}
		return nil, err
	}

	comment := &models.Comment{
		Text:     text,
		PubDate:  time.Now().UTC(),
		AuthorID: authorID,
		ReviewID: reviewID,
	}
	if err := s.commentRepo.Create(nil, comment); err != nil {
		return nil, err
	}
	log.Printf("[INFO] CreateComment: comment %s created on review %s by user %s", comment.ID, reviewID, authorID)
	return comment, nil
}

func (s *reviewService) GetComment(reviewID, commentID uuid.UUID) (*models.Comment, error) {
	return s.getCommentInReview(nil, reviewID, commentID)
}

func (s *reviewService) ListComments(reviewID uuid.UUID, offset, limit int) ([]models.Comment, error) {
	if _, err := s.reviewRepo.GetByID(nil, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review %s", models.ErrNotFound, reviewID)
		}
		return nil, err
	}
	return s.commentRepo.ListByReview(nil, reviewID, offset, limit)
}

func (s *reviewService) UpdateComment(reviewID, commentID uuid.UUID, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrValidation)
	}
	comment, err := s.getCommentInReview(nil, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	comment.Text = text
	if err := s.commentRepo.Update(nil, comment); err != nil {
		return nil, err
	}
	log.Printf("[INFO] UpdateComment: comment %s updated", commentID)
	return comment, nil
}

func (s *reviewService) DeleteComment(reviewID, commentID uuid.UUID) error {
	if _, err := s.getCommentInReview(nil, reviewID, commentID); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(nil, commentID); err != nil {
		return err
	}
	log.Printf("[INFO] DeleteComment: comment %s deleted from review %s", commentID, reviewID)
	return nil
}

// recomputeRating stores the rounded mean of the book's review scores. With
// zero reviews the existing rating is deliberately left as is, matching the
// long-standing behavior clients depend on.
func (s *reviewService) recomputeRating(tx *gorm.DB, bookID uuid.UUID) error {
	avg, err := s.reviewRepo.AverageScore(tx, bookID)
	if err != nil {
		return err
	}
	if avg == nil {
		log.Printf("[INFO] recomputeRating: book %s has no reviews, rating left unchanged", bookID)
		return nil
	}
	return s.bookRepo.UpdateRating(tx, bookID, roundRating(*avg))
}

// roundRating rounds to one decimal place. Averaging itself always happens on
// the full, unrounded scores.
func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

func (s *reviewService) getReviewInBook(db *gorm.DB, bookID, reviewID uuid.UUID) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(db, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review %s", models.ErrNotFound, reviewID)
		}
		return nil, err
	}
	if review.BookID != bookID {
		return nil, fmt.Errorf("%w: review %s does not belong to book %s", models.ErrNotFound, reviewID, bookID)
	}
	return review, nil
}

func (s *reviewService) getCommentInReview(db *gorm.DB, reviewID, commentID uuid.UUID) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(db, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: comment %s", models.ErrNotFound, commentID)
		}
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, fmt.Errorf("%w: comment %s does not belong to review %s", models.ErrNotFound, commentID, reviewID)
	}
	return comment, nil
}

// isUniqueViolation checks for a PostgreSQL unique-constraint error.
// PostgreSQL error code 23505 = unique_violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
