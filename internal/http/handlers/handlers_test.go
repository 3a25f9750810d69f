package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/astree/pulse/internal/domain"
	"github.com/astree/pulse/internal/presence"
	"github.com/astree/pulse/internal/realtime"
	"github.com/astree/pulse/internal/repo"
	"github.com/astree/pulse/internal/services"
)

// ---------- test environment ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:engage_handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	hub    *realtime.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	hub := realtime.NewHub(32)
	tracker := presence.NewTracker(presence.NewMemoryStore(), hub, 2*time.Minute)
	notifSvc := services.NewNotificationService(db, hub)
	reactSvc := services.NewReactionService(db, hub, notifSvc)

	h := New(tracker, reactSvc, notifSvc, hub)

	r := gin.New()
	r.POST("/presence/connect", h.Connect)
	r.POST("/presence/disconnect", h.Disconnect)
	r.POST("/presence/heartbeat", h.Heartbeat)
	r.GET("/presence/online", h.OnlineUsers)
	r.GET("/presence/:id", h.GetPresence)
	r.POST("/subjects/:id/react", h.React)
	r.GET("/subjects/:id/reaction", h.GetReaction)
	r.GET("/subjects/:id/summary", h.GetSummary)
	r.GET("/notifications", h.ListNotifications)
	r.GET("/notifications/unread-count", h.UnreadCount)
	r.POST("/notifications/:id/read", h.MarkRead)
	r.POST("/notifications/read-all", h.MarkAllRead)
	r.DELETE("/notifications/:id", h.DeleteNotification)
	r.GET("/realtime/stream", h.Stream)

	return &testEnv{router: r, db: db, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// ---------- presence ----------

func TestPresenceEndpoints_ConnectStatusDisconnect(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/presence/connect", "", gin.H{"user_id": "alice", "connection_id": "c1"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("connect: expected 204, got %d (%s)", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/presence/alice", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", w.Code)
	}
	var st PresenceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Online || st.UserID != "alice" {
		t.Fatalf("expected alice online, got %+v", st)
	}

	w = env.do(t, http.MethodGet, "/presence/online", "", nil)
	var online OnlineUsersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &online); err != nil {
		t.Fatalf("decode online: %v", err)
	}
	if online.Count != 1 || online.Users[0] != "alice" {
		t.Fatalf("expected [alice], got %+v", online)
	}

	w = env.do(t, http.MethodPost, "/presence/disconnect", "", gin.H{"user_id": "alice", "connection_id": "c1"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("disconnect: expected 204, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/presence/alice", "", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Online {
		t.Fatalf("expected alice offline after disconnect")
	}
	if st.LastSeen == nil || st.LastSeenHumanized != "just now" {
		t.Fatalf("expected fresh last seen, got %+v", st)
	}
}

func TestPresenceEndpoints_ValidationAndUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/presence/connect", "", gin.H{"user_id": "alice"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing connection_id, got %d", w.Code)
	}

	// An unknown user reads as offline with "never".
	w = env.do(t, http.MethodGet, "/presence/ghost", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var st PresenceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Online || st.LastSeen != nil || st.LastSeenHumanized != "never" {
		t.Fatalf("expected offline/never, got %+v", st)
	}
}

func TestPresenceEndpoints_Heartbeat(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/presence/heartbeat", "", gin.H{"user_id": "bob"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/presence/bob", "", nil)
	var st PresenceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Online {
		t.Fatalf("heartbeat should bring bob online, got %+v", st)
	}
}

// ---------- reactions ----------

func seedHandlerPost(t *testing.T, db *gorm.DB, id, author string) {
	t.Helper()
	if err := db.Create(&domain.Post{ID: id, AuthorID: author}).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
}

func TestReactionEndpoints_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	seedHandlerPost(t, env.db, "p1", "author")

	w := env.do(t, http.MethodPost, "/subjects/p1/react", "x", gin.H{"type": "love"})
	if w.Code != http.StatusOK {
		t.Fatalf("react: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var rr ReactResponse
	if err := json.Unmarshal(w.Body.Bytes(), &rr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Outcome != services.ReactionAdded || rr.Summary.Total != 1 {
		t.Fatalf("unexpected react response: %+v", rr)
	}

	w = env.do(t, http.MethodGet, "/subjects/p1/reaction", "x", nil)
	var ur UserReactionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ur); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ur.Type == nil || *ur.Type != domain.ReactionLove {
		t.Fatalf("expected love, got %+v", ur)
	}

	// A user who never reacted gets null.
	w = env.do(t, http.MethodGet, "/subjects/p1/reaction", "stranger", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &ur); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ur.Type != nil {
		t.Fatalf("expected null type, got %+v", ur)
	}

	w = env.do(t, http.MethodGet, "/subjects/p1/summary", "", nil)
	var sum domain.ReactionSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Total != 1 || sum.Counts[domain.ReactionLove] != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestReactionEndpoints_Errors(t *testing.T) {
	env := newTestEnv(t)
	seedHandlerPost(t, env.db, "p1", "author")

	w := env.do(t, http.MethodPost, "/subjects/p1/react", "x", gin.H{"type": "applause"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad type, got %d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request code, got %q", er.Code)
	}

	w = env.do(t, http.MethodPost, "/subjects/ghost/react", "x", gin.H{"type": "like"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown subject, got %d", w.Code)
	}
}

// ---------- notifications ----------

func TestNotificationEndpoints_Flow(t *testing.T) {
	env := newTestEnv(t)
	seedHandlerPost(t, env.db, "p1", "author")

	// Two reactions from different users produce two notifications for the
	// author.
	for _, u := range []string{"x", "y"} {
		w := env.do(t, http.MethodPost, "/subjects/p1/react", u, gin.H{"type": "like"})
		if w.Code != http.StatusOK {
			t.Fatalf("react as %s: %d", u, w.Code)
		}
	}

	w := env.do(t, http.MethodGet, "/notifications/unread-count", "author", nil)
	var uc UnreadCountResponse
	if err := json.Unmarshal(w.Body.Bytes(), &uc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if uc.Count != 2 {
		t.Fatalf("expected 2 unread, got %d", uc.Count)
	}

	w = env.do(t, http.MethodGet, "/notifications?unread=true", "author", nil)
	var list ListNotificationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Notifications) != 2 || list.Pagination.Total != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
	id := list.Notifications[0].ID

	// Foreign user cannot mark it.
	w = env.do(t, http.MethodPost, "/notifications/"+id+"/read", "intruder", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/notifications/"+id+"/read", "author", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/notifications/read-all", "author", nil)
	var mar MarkAllReadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &mar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mar.Marked != 1 {
		t.Fatalf("expected 1 remaining marked, got %d", mar.Marked)
	}

	w = env.do(t, http.MethodDelete, "/notifications/"+id, "author", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 delete, got %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/notifications/"+id, "author", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for repeat delete, got %d", w.Code)
	}
}

func TestNotificationEndpoints_MissingIs404(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/notifications/nope/read", "author", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// ---------- realtime stream ----------

func TestStreamEndpoint_DeliversEvents(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/realtime/stream?subjects=p1", nil).WithContext(ctx)
	req.Header.Set("X-User-ID", "alice")
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.router.ServeHTTP(w, req)
		close(done)
	}()

	// Wait for the subscription to land, then publish on a watched topic.
	deadline := time.After(2 * time.Second)
	for env.hub.SubscriberCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("stream never subscribed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	env.hub.Publish(realtime.TopicSubject("p1"), realtime.Event{
		Name: realtime.EventReactionAdded,
		Data: realtime.ReactionChanged{SubjectID: "p1", ReactorID: "x", Type: domain.ReactionLike},
	})

	// Give the handler a moment to flush, then close the stream.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler did not exit on cancel")
	}

	body := w.Body.String()
	if !strings.Contains(body, "event: reaction.added") {
		t.Fatalf("expected reaction.added event in stream, got %q", body)
	}
	if !strings.Contains(body, `"subject_id":"p1"`) {
		t.Fatalf("expected payload in stream, got %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", ct)
	}
}
