package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"thermal_guard/internal/config"
	"thermal_guard/internal/models"
	"thermal_guard/internal/service"
	"thermal_guard/internal/thermal"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockHeaters struct {
	setTargetErr   error
	ackErr         error
	lastChannel    string
	lastTarget     float64
	setTargetCalls int
	ackCalls       int
}

func (m *mockHeaters) SetTarget(ctx context.Context, channel string, tempC float64) error {
	m.setTargetCalls++
	m.lastChannel = channel
	m.lastTarget = tempC
	return m.setTargetErr
}
func (m *mockHeaters) Acknowledge(ctx context.Context, channel string) error {
	m.ackCalls++
	m.lastChannel = channel
	return m.ackErr
}

type mockMonitoring struct {
	states []models.HeaterState
	err    error
}

func (m *mockMonitoring) List(ctx context.Context) ([]models.HeaterState, error) {
	return m.states, m.err
}
func (m *mockMonitoring) Get(ctx context.Context, channel string) (models.HeaterState, error) {
	if m.err != nil {
		return models.HeaterState{}, m.err
	}
	id, _ := models.ParseChannelID(channel)
	for _, st := range m.states {
		if st.Channel == id {
			return st, nil
		}
	}
	return models.HeaterState{}, fmt.Errorf("%w: %s", thermal.ErrUnknownChannel, channel)
}

type mockEventLog struct {
	resp []models.HeaterEvent
	err  error
	last service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.HeaterEvent, error) {
	m.last = f
	return m.resp, m.err
}

type mockConfiguration struct {
	snapshot   config.Snapshot
	yaml       []byte
	yamlErr    error
	defines    []config.Define
	lastFilter config.DefineFilter
}

func (m *mockConfiguration) Snapshot() config.Snapshot { return m.snapshot }
func (m *mockConfiguration) YAML() ([]byte, error)     { return m.yaml, m.yamlErr }
func (m *mockConfiguration) Defines(f config.DefineFilter) []config.Define {
	m.lastFilter = f
	return m.defines
}

type mockEndstops struct {
	states []models.EndstopStatus
	err    error
}

func (m *mockEndstops) Query(ctx context.Context) ([]models.EndstopStatus, error) {
	return m.states, m.err
}

type mockSimulation struct {
	faultErr      error
	endstopErr    error
	lastChannel   string
	lastFault     string
	lastEndstop   string
	lastTriggered bool
}

func (m *mockSimulation) InjectFault(channel string, fault string) error {
	m.lastChannel = channel
	m.lastFault = fault
	return m.faultErr
}
func (m *mockSimulation) SetEndstop(name string, triggered bool) error {
	m.lastEndstop = name
	m.lastTriggered = triggered
	return m.endstopErr
}

type mockStream struct {
	mu     sync.Mutex
	ch     chan models.HeaterEvent
	closed bool
}

func newMockStream() *mockStream {
	return &mockStream{ch: make(chan models.HeaterEvent, 4)}
}

func (m *mockStream) Subscribe() (<-chan models.HeaterEvent, func()) {
	return m.ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.closed = true
	}
}

func (m *mockStream) unsubscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
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
