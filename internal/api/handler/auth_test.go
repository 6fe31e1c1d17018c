package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"brokerdesk/backend/internal/api/handler"
	"brokerdesk/backend/internal/chathub"
	"brokerdesk/backend/internal/models"
	"brokerdesk/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(store storage.Storage) (*gin.Engine, *handler.Handler) {
	gin.SetMode(gin.TestMode)

	registry := chathub.NewRegistry()
	directory := chathub.NewDirectory(store)
	router := chathub.NewRouter(store, registry, directory)
	hub := chathub.NewManager(store, registry, router)

	h := handler.NewHandler(hub, store, directory, "test-secret")
	r := gin.New()
	h.Register(r)
	return r, h
}

func issueToken(t *testing.T, r *gin.Engine, email, name string) string {
	t.Helper()

	body := `{"email":"` + email + `","name":"` + name + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestIssueToken_ResolvesAccount(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("GetOrCreateUser", "ada@example.com", "Ada").
		Return(&models.User{ID: "user-1", Email: "ada@example.com", Name: "Ada", Role: models.RoleCustomer}, nil)

	r, _ := newTestRouter(storageMock)
	token := issueToken(t, r, "ada@example.com", "Ada")
	assert.NotEmpty(t, token)
	storageMock.AssertCalled(t, "GetOrCreateUser", "ada@example.com", "Ada")
}

func TestIssueToken_RejectsBadPayload(t *testing.T) {
	storageMock := new(MockStorage)
	r, _ := newTestRouter(storageMock)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequired_RoundTrip(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("GetOrCreateUser", "ada@example.com", "Ada").
		Return(&models.User{ID: "user-1", Email: "ada@example.com", Name: "Ada", Role: models.RoleCustomer}, nil)
	storageMock.On("GetHistory", "user-1").Return([]models.MessageRecord{}, nil)

	r, _ := newTestRouter(storageMock)
	token := issueToken(t, r, "ada@example.com", "Ada")

	// A valid token reaches the handler, bound to its own conversation.
	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	storageMock.AssertCalled(t, "GetHistory", "user-1")
}

func TestAuthRequired_RejectsMissingAndBadTokens(t *testing.T) {
	storageMock := new(MockStorage)
	r, _ := newTestRouter(storageMock)

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/chat", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAgentRequired_BlocksCustomers(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("GetOrCreateUser", "ada@example.com", "Ada").
		Return(&models.User{ID: "user-1", Email: "ada@example.com", Name: "Ada", Role: models.RoleCustomer}, nil)

	r, _ := newTestRouter(storageMock)
	token := issueToken(t, r, "ada@example.com", "Ada")

	req := httptest.NewRequest(http.MethodGet, "/admin/chat/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetConversations_RebuildsAndDecoratesPresence(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("GetOrCreateUser", "sam@example.com", "Sam").
		Return(&models.User{ID: "agent-1", Email: "sam@example.com", Name: "Sam", Role: models.RoleAgent}, nil)
	storageMock.On("GetConversationSummaries").Return([]models.ConversationSummary{
		{ConversationID: "user-1", CustomerName: "Ada", LastMessage: "hello"},
		{ConversationID: "user-2", CustomerName: "Beth", LastMessage: "thanks"},
	}, nil)
	storageMock.On("IsOnline", "user-1").Return(true, nil)
	storageMock.On("IsOnline", "user-2").Return(false, nil)

	r, _ := newTestRouter(storageMock)
	token := issueToken(t, r, "sam@example.com", "Sam")

	req := httptest.NewRequest(http.MethodGet, "/admin/chat/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.ConversationSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "user-1", got[0].ConversationID)
	assert.True(t, got[0].Online)
	assert.False(t, got[1].Online)
}

func TestGetConversationHistory_AgentReadsAnyConversation(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("GetOrCreateUser", "sam@example.com", "Sam").
		Return(&models.User{ID: "agent-1", Email: "sam@example.com", Name: "Sam", Role: models.RoleAgent}, nil)
	storageMock.On("GetHistory", "user-9").Return([]models.MessageRecord{}, nil)

	r, _ := newTestRouter(storageMock)
	token := issueToken(t, r, "sam@example.com", "Sam")

	req := httptest.NewRequest(http.MethodGet, "/admin/chat/user-9", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	storageMock.AssertCalled(t, "GetHistory", "user-9")
}
