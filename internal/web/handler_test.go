package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradient-chat/internal/accountclient"
	"gradient-chat/internal/chat"
	"gradient-chat/internal/credentials"
	"gradient-chat/internal/domain"
	"gradient-chat/internal/errs"
	apihttp "gradient-chat/internal/http"
	"gradient-chat/internal/service"
	"gradient-chat/internal/session"
)

type fakeAccounts struct {
	mu       sync.Mutex
	users    map[string]domain.User // por token
	password map[string]string      // por email
	release  chan struct{}
	// profileErr, si no es nil, se devuelve desde Profile (falla de transporte simulada).
	profileErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: map[string]domain.User{}, password: map[string]string{}}
}

func (f *fakeAccounts) Register(_ context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.password[creds.Email]; ok {
		return domain.AuthResult{}, errs.ErrConflict
	}
	f.password[creds.Email] = creds.Password
	user := domain.User{ID: "id-" + creds.Username, Username: creds.Username, Email: creds.Email}
	token := "tok-" + creds.Email
	f.users[token] = user
	return domain.AuthResult{Token: token, User: user}, nil
}

func (f *fakeAccounts) Login(_ context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.password[creds.Email]; !ok || pw != creds.Password {
		return domain.AuthResult{}, errs.ErrAuthRejected
	}
	token := "tok-" + creds.Email
	return domain.AuthResult{Token: token, User: f.users[token]}, nil
}

func (f *fakeAccounts) Profile(_ context.Context, token string) (domain.User, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return domain.User{}, f.profileErr
	}
	user, ok := f.users[token]
	if !ok {
		return domain.User{}, errs.ErrAuthRejected
	}
	return user, nil
}

type testEnv struct {
	router   *gin.Engine
	sessions *session.Manager
	chat     *chat.Orchestrator
	accounts *fakeAccounts
	store    *credentials.MemoryStore
}

func setupEnv(t *testing.T, responder chat.Responder) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	accounts := newFakeAccounts()
	store := credentials.NewMemoryStore("")
	sessions := session.NewManager(zap.NewNop(), accounts, store)
	orch := chat.NewOrchestrator(zap.NewNop(), responder, sessions.UserID)
	t.Cleanup(orch.Close)
	h := NewHandler(zap.NewNop(), sessions, orch)
	return &testEnv{
		router:   NewRouter(zap.NewNop(), h, sessions),
		sessions: sessions,
		chat:     orch,
		accounts: accounts,
		store:    store,
	}
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func signUp(t *testing.T, env *testEnv, username, email string) {
	t.Helper()
	w := performRequest(env.router, http.MethodPost, "/signup", map[string]string{
		"username": username, "email": email, "password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGuard_RedirectsWithoutSession(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	for _, path := range []string{"/dashboard", "/suggestions", "/conversations/x"} {
		w := performRequest(env.router, http.MethodGet, path, nil)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/signin" {
			t.Fatalf("%s: expected redirect to /signin, got %d %q", path, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestGuard_LoadingWhilePending(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	env.accounts.release = make(chan struct{})
	_ = env.store.Save(context.Background(), "tok-ana@example.com")

	done := make(chan error, 1)
	go func() { done <- env.sessions.Restore(context.Background()) }()
	deadline := time.Now().Add(2 * time.Second)
	for env.sessions.Status() != domain.StatusPending {
		if time.Now().After(deadline) {
			t.Fatalf("session never became pending")
		}
		time.Sleep(time.Millisecond)
	}

	w := performRequest(env.router, http.MethodGet, "/dashboard", nil)
	if w.Code != http.StatusAccepted || !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("expected 202 loading, got %d %s", w.Code, w.Body.String())
	}

	close(env.accounts.release)
	<-done
	// El token no existe en el servicio: se rechaza y se limpia.
	if env.sessions.Status() != domain.StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", env.sessions.Status())
	}
}

func TestSignIn_Errors(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	signUp(t, env, "ana", "ana@example.com")

	w := performRequest(env.router, http.MethodPost, "/signin", map[string]string{"email": "ana@example.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	w = performRequest(env.router, http.MethodGet, "/dashboard", nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("failed login must leave guard denying, got %d", w.Code)
	}
	if tok, _ := env.store.Load(context.Background()); tok != "" {
		t.Fatalf("expected no persisted token after failed login")
	}

	w = performRequest(env.router, http.MethodPost, "/signin", map[string]string{"email": "ana@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	w = performRequest(env.router, http.MethodPost, "/signup", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "secret123",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestChatFlow(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	signUp(t, env, "ana", "ana@example.com")

	w := performRequest(env.router, http.MethodGet, "/suggestions", nil)
	var sugg struct {
		Suggestions []string `json:"suggestions"`
	}
	decode(t, w, &sugg)
	if len(sugg.Suggestions) != 4 {
		t.Fatalf("unexpected suggestions %+v", sugg)
	}

	w = performRequest(env.router, http.MethodPut, "/draft", map[string]string{"content": "   "})
	if w.Code != http.StatusOK {
		t.Fatalf("draft: %d", w.Code)
	}
	w = performRequest(env.router, http.MethodPost, "/messages", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for whitespace draft, got %d", w.Code)
	}

	performRequest(env.router, http.MethodPut, "/draft", map[string]string{"content": sugg.Suggestions[0]})
	w = performRequest(env.router, http.MethodPost, "/messages?wait=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var sent struct {
		ConversationID string         `json:"conversation_id"`
		Message        domain.Message `json:"message"`
		Reply          domain.Message `json:"reply"`
	}
	decode(t, w, &sent)
	if !strings.HasPrefix(sent.Reply.Content, "Quantum computing") || sent.Message.Role != domain.RoleUser {
		t.Fatalf("unexpected exchange %+v", sent)
	}

	w = performRequest(env.router, http.MethodGet, "/dashboard", nil)
	var dash struct {
		User          domain.User           `json:"user"`
		Conversations []domain.Conversation `json:"conversations"`
		ActiveID      string                `json:"active_id"`
		Transcript    []domain.Message      `json:"transcript"`
		Busy          bool                  `json:"busy"`
		Draft         string                `json:"draft"`
	}
	decode(t, w, &dash)
	if dash.User.Username != "ana" || len(dash.Conversations) != 1 || dash.ActiveID != sent.ConversationID {
		t.Fatalf("unexpected dashboard %+v", dash)
	}
	if dash.Conversations[0].Title != "Explain quantum computing in s..." || dash.Conversations[0].OwnerID != "id-ana" {
		t.Fatalf("unexpected conversation %+v", dash.Conversations[0])
	}
	if len(dash.Transcript) != 2 || dash.Busy || dash.Draft != "" {
		t.Fatalf("unexpected transcript state %+v", dash)
	}

	w = performRequest(env.router, http.MethodPost, "/conversations/new", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("new conversation: %d", w.Code)
	}
	w = performRequest(env.router, http.MethodPost, "/messages?wait=true", map[string]string{"content": "hello there"})
	if w.Code != http.StatusOK {
		t.Fatalf("second message: %d", w.Code)
	}

	decode(t, performRequest(env.router, http.MethodGet, "/dashboard", nil), &dash)
	if len(dash.Conversations) != 2 || dash.Conversations[1].ID != sent.ConversationID {
		t.Fatalf("expected newest first, got %+v", dash.Conversations)
	}

	w = performRequest(env.router, http.MethodPost, "/conversations/"+sent.ConversationID+"/select", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("select: %d", w.Code)
	}
	if env.chat.ActiveID() != sent.ConversationID {
		t.Fatalf("expected first conversation active")
	}
	w = performRequest(env.router, http.MethodPost, "/conversations/nope/select", nil)
	if w.Code != http.StatusNotFound || env.chat.ActiveID() != sent.ConversationID {
		t.Fatalf("unknown select must be a no-op 404, got %d", w.Code)
	}
	w = performRequest(env.router, http.MethodGet, "/conversations/"+sent.ConversationID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get conversation: %d", w.Code)
	}
}

func TestSendMessage_AsyncAndAwaiting(t *testing.T) {
	release := make(chan struct{})
	resp := chat.ResponderFunc(func(ctx context.Context, _ []domain.Message, text string) (string, error) {
		select {
		case <-release:
			return "done: " + text, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	env := setupEnv(t, resp)
	signUp(t, env, "ana", "ana@example.com")

	w := performRequest(env.router, http.MethodPost, "/messages", map[string]string{"content": "first"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	w = performRequest(env.router, http.MethodPost, "/messages", map[string]string{"content": "second"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while awaiting, got %d", w.Code)
	}

	var dash struct {
		Busy bool `json:"busy"`
	}
	decode(t, performRequest(env.router, http.MethodGet, "/dashboard", nil), &dash)
	if !dash.Busy {
		t.Fatalf("expected busy dashboard")
	}
	close(release)
}

func TestLogout_ClearsSessionAndActive(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	signUp(t, env, "ana", "ana@example.com")
	performRequest(env.router, http.MethodPost, "/messages?wait=true", map[string]string{"content": "hi"})

	w := performRequest(env.router, http.MethodPost, "/logout", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}
	if env.chat.ActiveID() != "" {
		t.Fatalf("expected active conversation released")
	}
	if w := performRequest(env.router, http.MethodGet, "/dashboard", nil); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", w.Code)
	}

	var sess struct {
		Status   string `json:"status"`
		Decision string `json:"decision"`
	}
	decode(t, performRequest(env.router, http.MethodGet, "/session", nil), &sess)
	if sess.Status != string(domain.StatusUnauthenticated) || sess.Decision != "redirect" {
		t.Fatalf("unexpected session %+v", sess)
	}

	// Otro usuario no ve las conversaciones de ana.
	signUp(t, env, "bob", "bob@example.com")
	var dash struct {
		Conversations []domain.Conversation `json:"conversations"`
	}
	decode(t, performRequest(env.router, http.MethodGet, "/dashboard", nil), &dash)
	if len(dash.Conversations) != 0 {
		t.Fatalf("expected no conversations for bob, got %d", len(dash.Conversations))
	}
}

func TestSignInAsOtherUser_DoesNotWriteIntoPreviousConversation(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	signUp(t, env, "ana", "ana@example.com")

	var first struct {
		ConversationID string `json:"conversation_id"`
	}
	w := performRequest(env.router, http.MethodPost, "/messages?wait=true", map[string]string{"content": "ana private"})
	if w.Code != http.StatusOK {
		t.Fatalf("ana message: %d", w.Code)
	}
	decode(t, w, &first)
	performRequest(env.router, http.MethodPut, "/draft", map[string]string{"content": "ana unsent"})

	// bob entra sin que ana haga logout.
	signUp(t, env, "bob", "bob@example.com")
	if env.chat.ActiveID() != "" || env.chat.Draft() != "" {
		t.Fatalf("expected active conversation and draft released, got %q %q", env.chat.ActiveID(), env.chat.Draft())
	}

	var second struct {
		ConversationID string `json:"conversation_id"`
	}
	w = performRequest(env.router, http.MethodPost, "/messages?wait=true", map[string]string{"content": "bob text"})
	if w.Code != http.StatusOK {
		t.Fatalf("bob message: %d", w.Code)
	}
	decode(t, w, &second)
	if second.ConversationID == first.ConversationID {
		t.Fatalf("bob wrote into ana's conversation %s", first.ConversationID)
	}

	anaConv, ok := env.chat.Conversation(first.ConversationID)
	if !ok || anaConv.OwnerID != "id-ana" || len(anaConv.Messages) != 2 {
		t.Fatalf("ana's conversation was modified: %+v", anaConv)
	}
	bobConv, _ := env.chat.Conversation(second.ConversationID)
	if bobConv.OwnerID != "id-bob" {
		t.Fatalf("expected bob to own new conversation, got %q", bobConv.OwnerID)
	}
}

func TestSendMessage_RefusesActiveConversationOfAnotherUser(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	signUp(t, env, "ana", "ana@example.com")
	var first struct {
		ConversationID string `json:"conversation_id"`
	}
	decode(t, performRequest(env.router, http.MethodPost, "/messages?wait=true", map[string]string{"content": "hi"}), &first)

	signUp(t, env, "bob", "bob@example.com")
	// Seleccion directa en el orchestrator, sin pasar por el filtro del handler.
	env.chat.SelectConversation(first.ConversationID)

	var sent struct {
		ConversationID string `json:"conversation_id"`
	}
	w := performRequest(env.router, http.MethodPost, "/messages?wait=true", map[string]string{"content": "bob text"})
	if w.Code != http.StatusOK {
		t.Fatalf("bob message: %d", w.Code)
	}
	decode(t, w, &sent)
	if sent.ConversationID == first.ConversationID {
		t.Fatalf("message landed in a conversation owned by another user")
	}
	if conv, _ := env.chat.Conversation(first.ConversationID); len(conv.Messages) != 2 {
		t.Fatalf("expected ana's conversation untouched, got %d messages", len(conv.Messages))
	}
}

func TestRestoreSession_RetriesAfterTransportError(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	signUp(t, env, "ana", "ana@example.com")

	// Proceso nuevo con el token persistido y el servicio caido.
	env.sessions = session.NewManager(zap.NewNop(), env.accounts, env.store)
	env.chat = chat.NewOrchestrator(zap.NewNop(), chat.NewCannedResponder(0), env.sessions.UserID)
	t.Cleanup(env.chat.Close)
	env.router = NewRouter(zap.NewNop(), NewHandler(zap.NewNop(), env.sessions, env.chat), env.sessions)
	env.accounts.mu.Lock()
	env.accounts.profileErr = errs.ErrTransport
	env.accounts.mu.Unlock()

	w := performRequest(env.router, http.MethodPost, "/session/restore", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 while service is down, got %d", w.Code)
	}
	var sess struct {
		Status   string `json:"status"`
		HasToken bool   `json:"has_token"`
		Decision string `json:"decision"`
	}
	decode(t, w, &sess)
	if sess.Status != string(domain.StatusError) || !sess.HasToken || sess.Decision != "redirect" {
		t.Fatalf("unexpected session after transport error %+v", sess)
	}

	env.accounts.mu.Lock()
	env.accounts.profileErr = nil
	env.accounts.mu.Unlock()

	w = performRequest(env.router, http.MethodPost, "/session/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on retry, got %d", w.Code)
	}
	decode(t, w, &sess)
	if sess.Status != string(domain.StatusAuthenticated) || !sess.HasToken || sess.Decision != "render" {
		t.Fatalf("expected authenticated after retry, got %+v", sess)
	}
	if w := performRequest(env.router, http.MethodGet, "/dashboard", nil); w.Code != http.StatusOK {
		t.Fatalf("expected dashboard after retry, got %d", w.Code)
	}
}

func TestRestoreSession_WithoutToken(t *testing.T) {
	env := setupEnv(t, chat.NewCannedResponder(0))
	w := performRequest(env.router, http.MethodPost, "/session/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var sess struct {
		Status   string `json:"status"`
		HasToken bool   `json:"has_token"`
	}
	decode(t, w, &sess)
	if sess.HasToken || sess.Status != string(domain.StatusUnauthenticated) {
		t.Fatalf("unexpected session %+v", sess)
	}
}

// mockUserRepo respalda el servicio de cuentas real en el test de punta a punta.
type mockUserRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return errs.ErrConflict
	}
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return domain.User{}, errs.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	id, ok := m.byEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.User{}, errs.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func TestEndToEnd_RestoreAgainstAccountAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &mockUserRepo{byID: map[string]domain.User{}, byEmail: map[string]string{}}
	userSvc := service.NewUserService(zap.NewNop(), repo)
	jwtSvc := service.NewJWTService("secret", time.Hour, service.NewMemoryRevocationStore())
	api := httptest.NewServer(apihttp.NewRouter(zap.NewNop(), apihttp.NewUserHandler(zap.NewNop(), userSvc, jwtSvc), jwtSvc, nil))
	defer api.Close()

	ctx := context.Background()
	store := credentials.NewMemoryStore("")
	client := accountclient.New(api.URL+"/api/auth", time.Second, zap.NewNop())

	first := session.NewManager(zap.NewNop(), client, store)
	if _, err := first.Register(ctx, domain.Credentials{Username: "ana", Email: "ana@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Un proceso nuevo restaura la sesion desde el token persistido.
	second := session.NewManager(zap.NewNop(), client, store)
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if second.Status() != domain.StatusAuthenticated || second.Snapshot().User.Username != "ana" {
		t.Fatalf("expected restored session, got %+v", second.Snapshot())
	}

	// Logout revoca el token en el servicio; un tercer proceso ya no puede restaurar.
	token, _ := store.Load(ctx)
	second.Logout(ctx)
	_ = store.Save(ctx, token)

	third := session.NewManager(zap.NewNop(), client, store)
	if err := third.Restore(ctx); err == nil {
		t.Fatalf("expected revoked token to be rejected")
	}
	if third.Status() != domain.StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", third.Status())
	}
	if tok, _ := store.Load(ctx); tok != "" {
		t.Fatalf("expected rejected token cleared")
	}
}
