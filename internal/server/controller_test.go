package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	usecase.MessageUsecase
	actor  models.Actor
	input  usecase.CreateMessageInput
	window usecase.WindowRequest
	err    error
}

func (f *fakeMessages) CreateMessage(_ context.Context, actor models.Actor, in usecase.CreateMessageInput) (*models.DirectMessage, error) {
	f.actor, f.input = actor, in
	if f.err != nil {
		return nil, f.err
	}
	msg := &models.DirectMessage{ToProfileID: in.ToProfileID}
	msg.ChatID = in.ChatID
	msg.FromProfileID = actor.ProfileID
	msg.Content = in.Content
	return msg, nil
}

func (f *fakeMessages) GetMessages(_ context.Context, actor models.Actor, req usecase.WindowRequest) ([]*models.DirectMessage, error) {
	f.actor, f.window = actor, req
	return []*models.DirectMessage{}, nil
}

func (f *fakeMessages) GetMessage(context.Context, models.Actor, string) (*models.DirectMessage, error) {
	return nil, nil
}

type fakeGroups struct {
	usecase.GroupUsecase
	chatID string
	input  usecase.CreateMessageInput
	member usecase.MemberStatusInput
	actor  models.Actor
}

func (f *fakeGroups) CreateGroupMessage(_ context.Context, actor models.Actor, chatID string, in usecase.CreateMessageInput) (*models.GroupMessage, error) {
	f.actor, f.chatID, f.input = actor, chatID, in
	msg := &models.GroupMessage{}
	msg.ChatID = chatID
	return msg, nil
}

func (f *fakeGroups) ChangeMemberStatus(_ context.Context, actor models.Actor, chatID string, in usecase.MemberStatusInput) (*models.Group, error) {
	f.actor, f.chatID, f.member = actor, chatID, in
	return nil, nil
}

type fakeBroadcasts struct {
	usecase.BroadcastUsecase
	id       string
	reaction string
}

func (f *fakeBroadcasts) DeleteBroadcastMessageReaction(_ context.Context, _ models.Actor, id, reactionID string) (*models.BroadcastMessage, error) {
	f.id, f.reaction = id, reactionID
	return nil, models.ErrPermissionDenied
}

type testServer struct {
	messages   *fakeMessages
	groups     *fakeGroups
	broadcasts *fakeBroadcasts
	handler    http.Handler
}

func newTestServer() *testServer {
	s := &testServer{
		messages:   &fakeMessages{},
		groups:     &fakeGroups{},
		broadcasts: &fakeBroadcasts{},
	}
	s.handler = NewEcho(&config.Config{}, NewHandler(s.messages, s.groups, s.broadcasts))
	return s
}

type apiResponse struct {
	Success      bool            `json:"success"`
	Data         json.RawMessage `json:"data"`
	ErrorCode    string          `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
}

func (s *testServer) do(t *testing.T, method, path, profileID, body string) (int, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if profileID != "" {
		req.Header.Set("x-profile-id", profileID)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestCreateMessageRoute(t *testing.T) {
	s := newTestServer()

	code, resp := s.do(t, http.MethodPost, "/api/v1/messages", "A",
		`{"profile_id":"B","chat_id":"R-1","content":{"type":"text","text":"hi"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, "A", s.messages.actor.ProfileID)
	assert.Equal(t, "R-1", s.messages.input.ChatID)
	require.NotNil(t, s.messages.input.Content)
	assert.Equal(t, "hi", s.messages.input.Content.Text)

	var msg models.DirectMessage
	require.NoError(t, json.Unmarshal(resp.Data, &msg))
	assert.Equal(t, "A", msg.FromProfileID)

	code, resp = s.do(t, http.MethodPost, "/api/v1/messages", "A", `{"chat_id":"R-1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidArgument", resp.ErrorCode)

	s.messages.err = models.ErrAccountInactive
	code, resp = s.do(t, http.MethodPost, "/api/v1/messages", "A",
		`{"chat_id":"R-1","content":{"type":"text","text":"hi"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "FailedPrecondition", resp.ErrorCode)
}

func TestGetMessagesRoute(t *testing.T) {
	s := newTestServer()

	code, resp := s.do(t, http.MethodGet, "/api/v1/messages?chat_id=R-1&limit=5&to_message_id=m1", "A", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[]", string(resp.Data))
	assert.Equal(t, usecase.WindowRequest{ChatID: "R-1", Limit: 5, ToMessageID: "m1"}, s.messages.window)
	assert.Equal(t, "A", s.messages.actor.ProfileID)

	code, _ = s.do(t, http.MethodGet, "/api/v1/messages?chat_id=X-1", "A", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/messages?chat_id=R-1", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = s.do(t, http.MethodGet, "/api/v1/messages/abc", "A", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(resp.Data))
}

func TestGroupRoutes(t *testing.T) {
	s := newTestServer()

	code, resp := s.do(t, http.MethodPost, "/api/v1/groups/G-1/messages", "O",
		`{"content":{"type":"text","text":"hello"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "G-1", s.groups.chatID)
	assert.Equal(t, "hello", s.groups.input.Content.Text)
	assert.JSONEq(t, "\"G-1\"", string(jsonField(t, resp.Data, "chat_id")))

	code, _ = s.do(t, http.MethodPut, "/api/v1/groups/G-1/members/B", "O", `{"status":"suspended"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, usecase.MemberStatusInput{ProfileID: "B", Status: models.MemberSuspended}, s.groups.member)
	assert.Equal(t, "O", s.groups.actor.ProfileID)

	code, _ = s.do(t, http.MethodPut, "/api/v1/groups/G-1/members/B", "O", `{"status":"banned"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBroadcastReactionRoute(t *testing.T) {
	s := newTestServer()

	code, resp := s.do(t, http.MethodDelete, "/api/v1/broadcast-messages/m1/reaction?reaction_id=like", "A", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "PermissionDenied", resp.ErrorCode)
	assert.Equal(t, "m1", s.broadcasts.id)
	assert.Equal(t, "like", s.broadcasts.reaction)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/broadcast-messages/m1/reaction", "A", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func jsonField(t *testing.T, data json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	return m[key]
}
