package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/apperr"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/config"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service/mocks"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testJWTSecret = "test-jwt-secret"

// newTestHandler создает новый экземпляр Handler с мокированным сервисом
func newTestHandler(t *testing.T) (*Handler, *mocks.MockOccurrenceService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockOccurrenceService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{JWTSecret: testJWTSecret}

	stream := func(c *gin.Context) { c.String(http.StatusOK, "stream") }
	handler := NewHandler(mockService, stream, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api")
	handler.RegisterRoutes(api)

	return handler, mockService, router
}

// signToken выпускает HS256 токен для указанного пользователя
func signToken(t *testing.T, secret string, subject uuid.UUID, permissions ...string) string {
	claims := jwt.MapClaims{
		"sub":         subject.String(),
		"permissions": permissions,
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authHeader(t *testing.T, subject uuid.UUID, permissions ...string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + signToken(t, testJWTSecret, subject, permissions...)}
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleOccurrence() *models.Occurrence {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return &models.Occurrence{
		ID:          uuid.New(),
		Type:        models.TypeFire,
		Location:    "Mercado de São José",
		Address:     "Praça Dom Vital",
		Latitude:    -8.0685,
		Longitude:   -34.8797,
		Status:      models.StatusNew,
		Priority:    models.PriorityHigh,
		CreatedByID: uuid.New(),
		OccurredAt:  now,
		Photos:      []string{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   &models.ActorSummary{ID: uuid.New(), Name: "Sgt. Lima", Email: "lima@cbm.pe.gov.br"},
	}
}

func TestCreateOccurrence_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	actorID := uuid.New()
	lat, lon := -8.0685, -34.8797
	reqBody := CreateOccurrenceRequest{
		Type:      "FIRE",
		Location:  "Mercado de São José",
		Address:   "Praça Dom Vital",
		Latitude:  &lat,
		Longitude: &lon,
	}
	expected := sampleOccurrence()

	mockService.EXPECT().
		CreateOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input models.CreateOccurrenceInput, actor models.Actor) (*models.Occurrence, error) {
			assert.Equal(t, models.TypeFire, input.Type)
			assert.Equal(t, &lat, input.Latitude)
			assert.Equal(t, actorID, actor.ID)
			assert.NotEmpty(t, actor.IP)
			return expected, nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/occurrences", bytes.NewBuffer(bodyBytes), authHeader(t, actorID))

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)

	var data OccurrenceResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, expected.ID, data.ID)
	assert.Equal(t, "NEW", data.Status)
	require.NotNil(t, data.CreatedBy)
	assert.Equal(t, "Sgt. Lima", data.CreatedBy.Name)
}

func TestCreateOccurrence_InvalidJSON(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/occurrences", bytes.NewBufferString(`{"type": "FIRE"`), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateOccurrence_ValidationError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := CreateOccurrenceRequest{ // Отсутствует Address
		Type:     "FIRE",
		Location: "Boa Viagem",
	}

	mockService.EXPECT().CreateOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/occurrences", bytes.NewBuffer(bodyBytes), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Address' failed on the 'required' tag")
}

func TestCreateOccurrence_AcceptsStoredFileNames(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	lat, lon := -8.0685, -34.8797
	photos := []string{"1712345678901-incendio.jpg", "uploads/1712345678902-viatura.png"}
	reqBody := CreateOccurrenceRequest{
		Type:      "FIRE",
		Location:  "Mercado de São José",
		Address:   "Praça Dom Vital",
		Latitude:  &lat,
		Longitude: &lon,
		Photos:    photos,
	}

	mockService.EXPECT().
		CreateOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input models.CreateOccurrenceInput, _ models.Actor) (*models.Occurrence, error) {
			assert.Equal(t, photos, input.Photos)
			return sampleOccurrence(), nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/occurrences", bytes.NewBuffer(bodyBytes), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateOccurrence_EmptyPhotoReference(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	lat, lon := -8.0685, -34.8797
	reqBody := CreateOccurrenceRequest{
		Type:      "FIRE",
		Location:  "Mercado de São José",
		Address:   "Praça Dom Vital",
		Latitude:  &lat,
		Longitude: &lon,
		Photos:    []string{"1712345678901-incendio.jpg", ""},
	}

	mockService.EXPECT().CreateOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/occurrences", bytes.NewBuffer(bodyBytes), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Photos[1]' failed on the 'required' tag")
}

func TestCreateOccurrence_UnknownType(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body := `{"type":"ALIENS","location":"Olinda","address":"Rua do Amparo"}`
	w := makeRequest(router, "POST", "/api/occurrences", bytes.NewBufferString(body), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "'oneof' tag")
}

func TestCreateOccurrence_AddressNotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		CreateOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperr.New(apperr.KindAddressNotFound, "please provide latitude and longitude manually")).
		Times(1)

	body := `{"type":"FLOOD","location":"Nowhere","address":"Rua Inexistente, 0"}`
	w := makeRequest(router, "POST", "/api/occurrences", bytes.NewBufferString(body), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "please provide latitude and longitude manually", resp.Message)
}

func TestCreateOccurrence_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		CreateOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperr.Internal("could not create occurrence", errors.New("pq: connection refused"))).
		Times(1)

	body := `{"type":"FIRE","location":"Recife Antigo","address":"Rua do Bom Jesus"}`
	w := makeRequest(router, "POST", "/api/occurrences", bytes.NewBufferString(body), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGetOccurrence_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	occurrence := sampleOccurrence()
	note := "equipe despachada"
	details := &models.OccurrenceDetails{
		Occurrence: occurrence,
		History: []*models.HistoryEntry{{
			ID:             1,
			OccurrenceID:   occurrence.ID,
			PreviousStatus: models.StatusNew,
			NewStatus:      models.StatusInProgress,
			Note:           &note,
		}},
	}

	mockService.EXPECT().GetOccurrence(gomock.Any(), occurrence.ID).Return(details, nil).Times(1)

	w := makeRequest(router, "GET", "/api/occurrences/"+occurrence.ID.String(), nil, authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusOK, w.Code)
	var data OccurrenceDetailsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, occurrence.ID, data.ID)
	require.Len(t, data.History, 1)
	assert.Equal(t, "IN_PROGRESS", data.History[0].NewStatus)
	assert.Equal(t, &note, data.History[0].Note)
}

func TestGetOccurrence_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetOccurrence(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/occurrences/not-a-uuid", nil, authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid occurrence ID")
}

func TestGetOccurrence_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	id := uuid.New()

	mockService.EXPECT().GetOccurrence(gomock.Any(), id).Return(nil, apperr.NotFound("occurrence not found")).Times(1)

	w := makeRequest(router, "GET", "/api/occurrences/"+id.String(), nil, authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "occurrence not found")
}

func TestListOccurrences_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	occurrences := []*models.Occurrence{sampleOccurrence(), sampleOccurrence()}

	mockService.EXPECT().
		ListOccurrences(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter models.OccurrenceFilter) ([]*models.Occurrence, int, error) {
			require.NotNil(t, filter.Status)
			assert.Equal(t, models.StatusNew, *filter.Status)
			require.NotNil(t, filter.From)
			assert.Equal(t, 2, filter.Page)
			assert.Equal(t, 2, filter.Limit)
			return occurrences, 5, nil
		}).Times(1)

	w := makeRequest(router, "GET", "/api/occurrences?status=NEW&from=2024-01-01T00:00:00Z&page=2&limit=2", nil, authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, Pagination{Page: 2, Limit: 2, Total: 5, TotalPages: 3}, *resp.Pagination)

	var data []OccurrenceResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Len(t, data, 2)
}

func TestListOccurrences_DefaultPagination(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		ListOccurrences(gomock.Any(), models.OccurrenceFilter{}).
		Return([]*models.Occurrence{}, 0, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/occurrences", nil, authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, Pagination{Page: 1, Limit: 50, Total: 0, TotalPages: 0}, *resp.Pagination)
}

func TestListOccurrences_InvalidFilter(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ListOccurrences(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/occurrences?priority=URGENT", nil, authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOccurrence_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	actorID := uuid.New()
	occurrence := sampleOccurrence()
	occurrence.Status = models.StatusInProgress
	minutes := 15
	occurrence.ResponseTimeMinutes = &minutes

	mockService.EXPECT().
		UpdateOccurrence(gomock.Any(), occurrence.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, patch models.OccurrencePatch, actor models.Actor) (*models.Occurrence, error) {
			require.NotNil(t, patch.Status)
			assert.Equal(t, models.StatusInProgress, *patch.Status)
			assert.Nil(t, patch.Priority)
			assert.Equal(t, "viatura a caminho", *patch.Note)
			assert.Equal(t, actorID, actor.ID)
			return occurrence, nil
		}).Times(1)

	body := `{"status":"IN_PROGRESS","note":"viatura a caminho"}`
	w := makeRequest(router, "PUT", "/api/occurrences/"+occurrence.ID.String(), bytes.NewBufferString(body), authHeader(t, actorID))

	assert.Equal(t, http.StatusOK, w.Code)
	var data OccurrenceResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, 15, *data.ResponseTimeMinutes)
}

func TestUpdateOccurrence_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().UpdateOccurrence(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PUT", "/api/occurrences/123", bytes.NewBufferString(`{"status":"RESOLVED"}`), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOccurrence_InvalidStatus(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().UpdateOccurrence(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PUT", "/api/occurrences/"+uuid.NewString(), bytes.NewBufferString(`{"status":"CLOSED"}`), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOccurrence_Conflict(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		UpdateOccurrence(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperr.Conflict("occurrence was modified by another request, reload and try again")).
		Times(1)

	w := makeRequest(router, "PUT", "/api/occurrences/"+uuid.NewString(), bytes.NewBufferString(`{"priority":"LOW"}`), authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteOccurrence_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	id := uuid.New()
	actorID := uuid.New()

	mockService.EXPECT().
		DeleteOccurrence(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, actor models.Actor) error {
			assert.Equal(t, actorID, actor.ID)
			return nil
		}).Times(1)

	w := makeRequest(router, "DELETE", "/api/occurrences/"+id.String(), nil, authHeader(t, actorID, PermissionDelete))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeEnvelope(t, w).Success)
}

func TestDeleteOccurrence_Forbidden(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().DeleteOccurrence(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "DELETE", "/api/occurrences/"+uuid.NewString(), nil, authHeader(t, uuid.New(), "edit"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "you do not have permission to perform this action", resp.Message)
}

func TestDeleteOccurrence_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	id := uuid.New()

	mockService.EXPECT().DeleteOccurrence(gomock.Any(), id, gomock.Any()).Return(apperr.NotFound("occurrence not found")).Times(1)

	w := makeRequest(router, "DELETE", "/api/occurrences/"+id.String(), nil, authHeader(t, uuid.New(), PermissionDelete))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStats_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	stats := &models.OccurrenceStats{
		Total:               3,
		ByStatus:            map[models.Status]int{models.StatusNew: 1, models.StatusResolved: 2},
		ByType:              map[models.OccurrenceType]int{models.TypeFire: 3},
		ByPriority:          map[models.Priority]int{models.PriorityHigh: 3},
		AverageResponseTime: 12,
	}

	mockService.EXPECT().GetStats(gomock.Any(), gomock.Any()).Return(stats, nil).Times(1)

	w := makeRequest(router, "GET", "/api/occurrences/stats", nil, authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusOK, w.Code)
	var data StatsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, 3, data.Total)
	assert.Equal(t, 2, data.ByStatus[models.StatusResolved])
	assert.Equal(t, 12, data.AverageResponseTime)
}

func TestGetStats_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetStats(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error")).Times(1)

	w := makeRequest(router, "GET", "/api/occurrences/stats", nil, authHeader(t, uuid.New()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStream_UsesQueryToken(t *testing.T) {
	_, _, router := newTestHandler(t)
	token := signToken(t, testJWTSecret, uuid.New())

	w := makeRequest(router, "GET", "/api/occurrences/stream?token="+token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stream", w.Body.String())
}

func TestHealthCheck_Success(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestJWTAuthMiddleware_MissingToken(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ListOccurrences(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/occurrences", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestJWTAuthMiddleware_WrongSecret(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ListOccurrences(gomock.Any(), gomock.Any()).Times(0)

	token := signToken(t, "another-secret", uuid.New())
	w := makeRequest(router, "GET", "/api/occurrences", nil, map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	_, _, router := newTestHandler(t)
	claims := jwt.MapClaims{"sub": uuid.NewString(), "exp": time.Now().Add(-time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	w := makeRequest(router, "GET", "/api/occurrences", nil, map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_SubjectNotUUID(t *testing.T) {
	_, _, router := newTestHandler(t)
	claims := jwt.MapClaims{"sub": "42", "exp": time.Now().Add(time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	w := makeRequest(router, "GET", "/api/occurrences", nil, map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
