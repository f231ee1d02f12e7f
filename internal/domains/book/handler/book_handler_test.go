package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimoire-backend/internal/domains/book/model"
)

type stubBookService struct {
	createResp *model.BookResponse
	createErr  error
	lastOwner  uuid.UUID
	lastImage  []byte

	updateResp *model.BookResponse
	updateErr  error

	deleteErr error

	getResp *model.BookResponse
	getErr  error

	listResp []model.BookResponse
	listErr  error

	topResp []model.BookResponse
}

func (s *stubBookService) CreateBook(_ context.Context, ownerID uuid.UUID, _ model.CreateBookRequest, rawImage []byte) (*model.BookResponse, error) {
	s.lastOwner = ownerID
	s.lastImage = rawImage
	return s.createResp, s.createErr
}

func (s *stubBookService) UpdateBook(_ context.Context, _, _ uuid.UUID, _ model.UpdateBookRequest, _ []byte) (*model.BookResponse, error) {
	return s.updateResp, s.updateErr
}

func (s *stubBookService) DeleteBook(context.Context, uuid.UUID, uuid.UUID) error {
	return s.deleteErr
}

func (s *stubBookService) GetBook(context.Context, uuid.UUID) (*model.BookResponse, error) {
	return s.getResp, s.getErr
}

func (s *stubBookService) ListBooks(context.Context) ([]model.BookResponse, error) {
	return s.listResp, s.listErr
}

func (s *stubBookService) TopRatedBooks(context.Context, int) ([]model.BookResponse, error) {
	return s.topResp, nil
}

type stubRatingService struct {
	resp *model.BookResponse
	err  error

	lastGrade float64
}

func (s *stubRatingService) RateBook(_ context.Context, _, _ uuid.UUID, grade float64) (*model.BookResponse, error) {
	s.lastGrade = grade
	return s.resp, s.err
}

// fakeAuth stands in for the jwt middleware
func fakeAuth(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func newTestRouter(h *BookHandler, callerID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	auth := fakeAuth(callerID)
	r.GET("/api/books", h.List)
	r.GET("/api/books/bestrating", h.BestRated)
	r.GET("/api/books/:id", h.Get)
	r.POST("/api/books", auth, h.Create)
	r.PUT("/api/books/:id", auth, h.Update)
	r.DELETE("/api/books/:id", auth, h.Delete)
	r.POST("/api/books/:id/rating", auth, h.Rate)
	return r
}

func multipartBody(t *testing.T, bookJSON string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("book", bookJSON))
	if image != nil {
		part, err := w.CreateFormFile("image", "cover.jpg")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestCreate_MultipartForm(t *testing.T) {
	owner := uuid.New()
	svc := &stubBookService{createResp: &model.BookResponse{ID: uuid.New(), Title: "Dune"}}
	router := newTestRouter(NewBookHandler(svc, &stubRatingService{}), owner)

	body, contentType := multipartBody(t, `{"title":"Dune","author":"Frank Herbert","genre":"SF","year":"1965"}`, []byte("img-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/books", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, owner, svc.lastOwner)
	assert.Equal(t, []byte("img-bytes"), svc.lastImage)
}

func TestCreate_MalformedBookPart(t *testing.T) {
	router := newTestRouter(NewBookHandler(&stubBookService{}, &stubRatingService{}), uuid.New())

	body, contentType := multipartBody(t, `{not json`, []byte("img"))
	req := httptest.NewRequest(http.MethodPost, "/api/books", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_DuplicateMapsToConflict(t *testing.T) {
	svc := &stubBookService{createErr: model.ErrBookAlreadyExists}
	router := newTestRouter(NewBookHandler(svc, &stubRatingService{}), uuid.New())

	body, contentType := multipartBody(t, `{"title":"Dune"}`, []byte("img"))
	req := httptest.NewRequest(http.MethodPost, "/api/books", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdate_JSONBody(t *testing.T) {
	svc := &stubBookService{updateResp: &model.BookResponse{Title: "Dune Messiah"}}
	router := newTestRouter(NewBookHandler(svc, &stubRatingService{}), uuid.New())

	req := httptest.NewRequest(http.MethodPut, "/api/books/"+uuid.NewString(),
		strings.NewReader(`{"title":"Dune Messiah","author":"Frank Herbert","genre":"SF","year":"1969"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdate_ForbiddenMapsTo403(t *testing.T) {
	svc := &stubBookService{updateErr: model.ErrForbidden}
	router := newTestRouter(NewBookHandler(svc, &stubRatingService{}), uuid.New())

	req := httptest.NewRequest(http.MethodPut, "/api/books/"+uuid.NewString(),
		strings.NewReader(`{"title":"X","author":"Y","genre":"Z","year":"2000"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdate_InvalidID(t *testing.T) {
	router := newTestRouter(NewBookHandler(&stubBookService{}, &stubRatingService{}), uuid.New())

	req := httptest.NewRequest(http.MethodPut, "/api/books/not-a-uuid",
		strings.NewReader(`{"title":"X"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete_OK(t *testing.T) {
	router := newTestRouter(NewBookHandler(&stubBookService{}, &stubRatingService{}), uuid.New())

	req := httptest.NewRequest(http.MethodDelete, "/api/books/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGet_NotFoundMapsTo404(t *testing.T) {
	svc := &stubBookService{getErr: model.ErrBookNotFound}
	router := newTestRouter(NewBookHandler(svc, &stubRatingService{}), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/books/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestList_EmptyMapsTo404(t *testing.T) {
	svc := &stubBookService{listErr: model.ErrNoBooks}
	router := newTestRouter(NewBookHandler(svc, &stubRatingService{}), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBestRated_NotShadowedByIDRoute(t *testing.T) {
	svc := &stubBookService{topResp: []model.BookResponse{{Title: "Dune"}}}
	router := newTestRouter(NewBookHandler(svc, &stubRatingService{}), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/books/bestrating", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []model.BookResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Dune", resp.Data[0].Title)
}

func TestRate_PassesGradeThrough(t *testing.T) {
	ratings := &stubRatingService{resp: &model.BookResponse{AverageRating: 4}}
	router := newTestRouter(NewBookHandler(&stubBookService{}, ratings), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/books/"+uuid.NewString()+"/rating",
		strings.NewReader(`{"rating":4}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4.0, ratings.lastGrade)
}

func TestRate_AlreadyRatedMapsTo403(t *testing.T) {
	ratings := &stubRatingService{err: model.ErrAlreadyRated}
	router := newTestRouter(NewBookHandler(&stubBookService{}, ratings), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/books/"+uuid.NewString()+"/rating",
		strings.NewReader(`{"rating":4}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
