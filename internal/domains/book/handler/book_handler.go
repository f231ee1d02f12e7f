package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"grimoire-backend/internal/domains/book/model"
	"grimoire-backend/internal/domains/book/service"
	"grimoire-backend/internal/shared/middleware"
	"grimoire-backend/internal/shared/response"
)

// BookHandler exposes the catalog over HTTP
type BookHandler struct {
	books   service.ServiceInterface
	ratings service.RatingServiceInterface
}

func NewBookHandler(books service.ServiceInterface, ratings service.RatingServiceInterface) *BookHandler {
	return &BookHandler{books: books, ratings: ratings}
}

// Create handles POST /api/books
// Expects multipart form data: a "book" JSON part and an "image" file part.
func (h *BookHandler) Create(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.CreateBookRequest
	if err := json.Unmarshal([]byte(c.PostForm("book")), &req); err != nil {
		response.BadRequest(c, "invalid book payload")
		return
	}

	rawImage, err := readImagePart(c)
	if err != nil {
		response.BadRequest(c, "could not read image")
		return
	}

	book, err := h.books.CreateBook(c.Request.Context(), callerID, req, rawImage)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, book)
}

// Update handles PUT /api/books/:id
// Accepts either multipart form data (with a new image) or a plain JSON body.
func (h *BookHandler) Update(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid book ID")
		return
	}

	var req model.UpdateBookRequest
	var rawImage []byte

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := json.Unmarshal([]byte(c.PostForm("book")), &req); err != nil {
			response.BadRequest(c, "invalid book payload")
			return
		}
		rawImage, err = readImagePart(c)
		if err != nil {
			response.BadRequest(c, "could not read image")
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid book payload")
			return
		}
	}

	book, err := h.books.UpdateBook(c.Request.Context(), bookID, callerID, req, rawImage)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, book)
}

// Delete handles DELETE /api/books/:id
func (h *BookHandler) Delete(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid book ID")
		return
	}

	err = h.books.DeleteBook(c.Request.Context(), bookID, callerID)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Book deleted"})
}

// Get handles GET /api/books/:id
func (h *BookHandler) Get(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid book ID")
		return
	}

	book, err := h.books.GetBook(c.Request.Context(), bookID)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, book)
}

// List handles GET /api/books
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.books.ListBooks(c.Request.Context())
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, books)
}

// BestRated handles GET /api/books/bestrating
// An optional ?limit=n overrides the default of 3; the service caps it.
func (h *BookHandler) BestRated(c *gin.Context) {
	limit := service.DefaultTopRatedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	books, err := h.books.TopRatedBooks(c.Request.Context(), limit)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, books)
}

// Rate handles POST /api/books/:id/rating
func (h *BookHandler) Rate(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid book ID")
		return
	}

	var req model.RateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid rating payload")
		return
	}

	book, err := h.ratings.RateBook(c.Request.Context(), bookID, callerID, req.Rating)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, book)
}

// readImagePart reads the optional "image" file part.
// Returns nil bytes when the part is absent.
func readImagePart(c *gin.Context) ([]byte, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
