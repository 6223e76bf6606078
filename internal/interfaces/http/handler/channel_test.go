package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appchannel "github.com/marketbridge/backend/internal/application/channel"
	"github.com/marketbridge/backend/internal/domain/channel"
	"github.com/marketbridge/backend/internal/domain/shared"
	"github.com/marketbridge/backend/internal/interfaces/http/dto"
	"github.com/marketbridge/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockChannelRepository is a mock implementation of ChannelRepository
type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Channel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Channel), args.Error(1)
}

func (m *MockChannelRepository) FindByCode(ctx context.Context, code string) (*channel.Channel, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.Channel), args.Error(1)
}

func (m *MockChannelRepository) FindAll(ctx context.Context) ([]channel.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.Channel), args.Error(1)
}

func (m *MockChannelRepository) FindActive(ctx context.Context) ([]channel.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.Channel), args.Error(1)
}

func (m *MockChannelRepository) Save(ctx context.Context, ch *channel.Channel) error {
	args := m.Called(ctx, ch)
	return args.Error(0)
}

type noopRegistry struct{}

func (noopRegistry) Get(channelID uuid.UUID) (channel.MarketplaceGateway, bool) { return nil, false }
func (noopRegistry) GetByCode(code string) (channel.MarketplaceGateway, bool)   { return nil, false }
func (noopRegistry) All() []channel.MarketplaceGateway                          { return nil }
func (noopRegistry) Reload(ctx context.Context) error                           { return nil }

func newChannelRouter(repo *MockChannelRepository) *gin.Engine {
	engine := gin.New()
	service := appchannel.NewService(repo, noopRegistry{}, nil)
	h := NewChannelHandler(service)
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)
	return engine
}

func performJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestChannelHandler_Create(t *testing.T) {
	repo := new(MockChannelRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	engine := newChannelRouter(repo)

	w := performJSON(t, engine, http.MethodPost, "/api/v1/channels", gin.H{
		"code":         "mirakl-eu",
		"name":         "Mirakl Europe",
		"adapter_type": "MIRAKL",
		"credentials":  `{"api_key":"k"}`,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestChannelHandler_CreateMissingFieldsIsBadRequest(t *testing.T) {
	engine := newChannelRouter(new(MockChannelRepository))

	w := performJSON(t, engine, http.MethodPost, "/api/v1/channels", gin.H{
		"code": "mirakl-eu",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestChannelHandler_GetNotFound(t *testing.T) {
	repo := new(MockChannelRepository)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)
	engine := newChannelRouter(repo)

	w := performJSON(t, engine, http.MethodGet, "/api/v1/channels/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestChannelHandler_GetInvalidID(t *testing.T) {
	engine := newChannelRouter(new(MockChannelRepository))

	w := performJSON(t, engine, http.MethodGet, "/api/v1/channels/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChannelHandler_ActivateWithoutCredentials(t *testing.T) {
	repo := new(MockChannelRepository)
	ch, err := channel.NewChannel("mirakl-eu", "Mirakl Europe", channel.AdapterTypeMirakl, "")
	require.NoError(t, err)
	repo.On("FindByID", mock.Anything, ch.ID).Return(ch, nil)
	engine := newChannelRouter(repo)

	w := performJSON(t, engine, http.MethodPost, "/api/v1/channels/"+ch.ID.String()+"/activate", nil)

	// domain validation errors keep their code and map to 422
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_CREDENTIALS", resp.Error.Code)
}
