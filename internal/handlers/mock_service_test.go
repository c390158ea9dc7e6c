package handlers

import (
	"context"
	"net/http"
	"time"

	"wellpump/internal/models"
	"wellpump/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseName     string
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseName, m.parseErr
}

type mockPump struct {
	status   string
	result   service.RunResult
	runErr   error
	triggers int
	runs     int
}

func (m *mockPump) Trigger(ctx context.Context) string {
	m.triggers++
	return m.status
}

func (m *mockPump) RunNow(ctx context.Context) (service.RunResult, error) {
	m.runs++
	return m.result, m.runErr
}

type mockMonitoring struct {
	status service.PumpStatus
	err    error
}

func (m *mockMonitoring) GetStatus(ctx context.Context) (service.PumpStatus, error) {
	return m.status, m.err
}

type mockEventLog struct {
	resp     []models.PumpEvent
	err      error
	calls    int
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PumpEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeaders(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
