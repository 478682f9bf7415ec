package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookreview/internal/models"
	"bookreview/internal/repositories"
)

// BookInput is the client-writable part of a book. Rating is derived and has
// no place here.
type BookInput struct {
	Title       string
	Author      string
	Country     string
	Description string
	GenreSlug   string
}

// BookPatch carries the mutable book fields; nil means "leave unchanged". An
// empty GenreSlug detaches the book from its genre.
type BookPatch struct {
	Title       *string
	Author      *string
	Country     *string
	Description *string
	GenreSlug   *string
}

// BookListFilter mirrors the supported query parameters on the book list.
type BookListFilter struct {
	GenreSlug string
	Title     string
	Author    string
	Country   string
}

// CatalogService manages genres and books. All mutations are admin-gated by
// the caller; the service itself only enforces data invariants.
type CatalogService interface {
	CreateGenre(name, slug string) (*models.Genre, error)
	ListGenres(offset, limit int) ([]models.Genre, error)
	DeleteGenre(slug string) error

	CreateBook(input BookInput) (*models.Book, error)
	GetBook(id uuid.UUID) (*models.Book, error)
	ListBooks(filter BookListFilter, offset, limit int) ([]models.Book, error)
	UpdateBook(id uuid.UUID, patch BookPatch) (*models.Book, error)
	DeleteBook(id uuid.UUID) error
}

type catalogService struct {
	db        *gorm.DB
	genreRepo repositories.GenreRepository
	bookRepo  repositories.BookRepository
}

func NewCatalogService(db *gorm.DB, genreRepo repositories.GenreRepository, bookRepo repositories.BookRepository) CatalogService {
	return &catalogService{db: db, genreRepo: genreRepo, bookRepo: bookRepo}
}

func (s *catalogService) CreateGenre(name, slug string) (*models.Genre, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if name == "" || slug == "" {
		return nil, fmt.Errorf("%w: genre name and slug are required", models.ErrValidation)
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.genreRepo.Create(nil, genre); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: genre name or slug already exists", models.ErrValidation)
		}
		return nil, err
	}
	log.Printf("[INFO] CreateGenre: genre %q (%s) created", name, slug)
	return genre, nil
}

func (s *catalogService) ListGenres(offset, limit int) ([]models.Genre, error) {
	return s.genreRepo.List(nil, offset, limit)
}

// DeleteGenre removes the genre. Books referencing it keep existing with a
// null genre (FK SET NULL), they are never deleted with it.
func (s *catalogService) DeleteGenre(slug string) error {
	affected, err := s.genreRepo.DeleteBySlug(nil, slug)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: genre %q", models.ErrNotFound, slug)
	}
	log.Printf("[INFO] DeleteGenre: genre %q deleted", slug)
	return nil
}

func (s *catalogService) CreateBook(input BookInput) (*models.Book, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Author) == "" {
		return nil, fmt.Errorf("%w: book title and author are required", models.ErrValidation)
	}

	book := &models.Book{
		Title:       input.Title,
		Author:      input.Author,
		Country:     input.Country,
		Description: input.Description,
	}
	if input.GenreSlug != "" {
		genre, err := s.resolveGenre(input.GenreSlug)
		if err != nil {
			return nil, err
		}
		book.GenreID = &genre.ID
		book.Genre = genre
	}

	if err := s.bookRepo.Create(nil, book); err != nil {
		return nil, err
	}
	log.Printf("[INFO] CreateBook: book %q (id=%s) created", book.Title, book.ID)
	return book, nil
}

func (s *catalogService) GetBook(id uuid.UUID) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book %s", models.ErrNotFound, id)
		}
		return nil, err
	}
	return book, nil
}

func (s *catalogService) ListBooks(filter BookListFilter, offset, limit int) ([]models.Book, error) {
	repoFilter := repositories.BookFilter{
		Title:   filter.Title,
		Author:  filter.Author,
		Country: filter.Country,
	}
	if filter.GenreSlug != "" {
		genre, err := s.resolveGenre(filter.GenreSlug)
		if err != nil {
			return nil, err
		}
		repoFilter.GenreID = &genre.ID
	}
	return s.bookRepo.List(nil, repoFilter, offset, limit)
}

func (s *catalogService) UpdateBook(id uuid.UUID, patch BookPatch) (*models.Book, error) {
	var updated *models.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		book, err := s.bookRepo.GetByID(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: book %s", models.ErrNotFound, id)
			}
			return err
		}
		if patch.Title != nil {
			book.Title = *patch.Title
		}
		if patch.Author != nil {
			book.Author = *patch.Author
		}
		if patch.Country != nil {
			book.Country = *patch.Country
		}
		if patch.Description != nil {
			book.Description = *patch.Description
		}
		if patch.GenreSlug != nil {
			if *patch.GenreSlug == "" {
				book.GenreID = nil
				book.Genre = nil
			} else {
				genre, err := s.genreRepo.GetBySlug(tx, *patch.GenreSlug)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w: genre %q", models.ErrNotFound, *patch.GenreSlug)
					}
					return err
				}
				book.GenreID = &genre.ID
				book.Genre = genre
			}
		}
		if err := s.bookRepo.Update(tx, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] UpdateBook: book %s updated", id)
	return updated, nil
}

// DeleteBook removes the book together with its reviews and, transitively,
// their comments (FK cascades).
func (s *catalogService) DeleteBook(id uuid.UUID) error {
	if _, err := s.GetBook(id); err != nil {
		return err
	}
	if err := s.bookRepo.Delete(nil, id); err != nil {
		return err
	}
	log.Printf("[INFO] DeleteBook: book %s deleted", id)
	return nil
}

func (s *catalogService) resolveGenre(slug string) (*models.Genre, error) {
	genre, err := s.genreRepo.GetBySlug(nil, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: genre %q", models.ErrNotFound, slug)
		}
		return nil, err
	}
	return genre, nil
}
