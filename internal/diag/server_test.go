package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger/internal/mocks"
	"messenger/internal/telemetry"
)

func testSnapshot() Snapshot {
	return Snapshot{
		State:               "connected",
		UserID:              1,
		OnlineCount:         3,
		Conversations:       map[int]int{7: 12},
		UnreadNotifications: 2,
	}
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testSnapshot, nil, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testSnapshot, nil, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSessionSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testSnapshot, nil, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, testSnapshot(), got)
}

func TestAuditTestHiddenWithoutDebug(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testSnapshot, nil, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditTestEmits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit_logs", mock.Anything).Return(nil).Once()
	emitter := telemetry.NewAuditEmitter(publisher, "audit_logs", "messenger", "test")

	router := NewRouter(testSnapshot, emitter, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertExpectations(t)
}
