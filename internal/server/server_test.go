package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/conductor/internal/memory"
	"github.com/zulandar/conductor/internal/models"
	"github.com/zulandar/conductor/internal/provider"
	"github.com/zulandar/conductor/internal/rag"
	"github.com/zulandar/conductor/internal/recorder"
	"github.com/zulandar/conductor/internal/runner"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeStream plays back a fixed token sequence.
type fakeStream struct {
	chunks []provider.Chunk
	i      int
}

func (s *fakeStream) Next() bool {
	if s.i >= len(s.chunks) {
		return false
	}
	s.i++
	return true
}

func (s *fakeStream) Current() provider.Chunk { return s.chunks[s.i-1] }
func (s *fakeStream) Err() error              { return nil }
func (s *fakeStream) Close() error            { return nil }

func textChunks(tokens ...string) []provider.Chunk {
	chunks := make([]provider.Chunk, len(tokens))
	for i, tok := range tokens {
		chunks[i] = provider.Chunk{Text: tok}
	}
	return chunks
}

// stubRagger answers every query with a fixed string.
type stubRagger struct {
	answer string
	err    error
}

func (s *stubRagger) Query(ctx context.Context, question string) (string, error) {
	return s.answer, s.err
}

func (s *stubRagger) Index(ctx context.Context, filename string, r io.Reader) (*rag.IndexResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, _ := io.ReadAll(r)
	return &rag.IndexResult{Status: "indexed", Filename: filename, Chunks: len(data)/100 + 1}, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	tables := []interface{}{
		&models.User{}, &models.Agent{}, &models.Execution{},
		&models.ExecutionCost{}, &models.Prompt{},
	}
	if err := db.AutoMigrate(tables...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// newTestRouter builds a router whose runner streams the given tokens for
// every provider call.
func newTestRouter(t *testing.T, tokens ...string) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := openTestDB(t)
	rec, err := recorder.New(db)
	if err != nil {
		t.Fatal(err)
	}
	store := memory.NewLocalStore(5, 0)

	open := func(ctx context.Context, cfg provider.Config, req provider.Request) (provider.Stream, error) {
		return &fakeStream{chunks: textChunks(tokens...)}, nil
	}
	run, err := runner.New(runner.Opts{Recorder: rec, Memory: store, Open: open})
	if err != nil {
		t.Fatal(err)
	}

	router, err := Router(Opts{
		DB:       db,
		Runner:   run,
		Memory:   store,
		Recorder: rec,
		Rag:      &stubRagger{answer: "from the docs"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return router, db
}

func createAgent(t *testing.T, db *gorm.DB, name string) *models.Agent {
	t.Helper()
	agent := &models.Agent{Name: name, Provider: models.ProviderOllama, Model: "gemma:2b-instruct", Active: true}
	if err := db.Create(agent).Error; err != nil {
		t.Fatalf("create agent: %v", err)
	}
	return agent
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestRunStream_NDJSON(t *testing.T) {
	router, db := newTestRouter(t, "Hello", " ", "world")
	agent := createAgent(t, db, "streamer")

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/agents/%d/run/stream", agent.ID), map[string]string{"input": "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type = %q", ct)
	}

	var types []string
	var tokens []string
	var end map[string]interface{}
	scanner := bufio.NewScanner(w.Body)
	for scanner.Scan() {
		var ev map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", scanner.Text(), err)
		}
		typ, _ := ev["type"].(string)
		types = append(types, typ)
		switch typ {
		case "token":
			tokens = append(tokens, ev["content"].(string))
		case "end":
			end = ev
		}
	}

	want := []string{"token", "token", "token", "end"}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event types = %v, want %v", types, want)
		}
	}
	if got := strings.Join(tokens, ""); got != "Hello world" {
		t.Errorf("tokens = %q, want %q", got, "Hello world")
	}
	if end["answer"] != "Hello world" {
		t.Errorf("end answer = %v", end["answer"])
	}
	if end["agent_name"] != "streamer" {
		t.Errorf("end agent_name = %v", end["agent_name"])
	}

	// The run must have landed in the ledger.
	var count int64
	db.Model(&models.Execution{}).Count(&count)
	if count != 1 {
		t.Errorf("executions = %d, want 1", count)
	}
}

func TestRunStream_UnknownAgent(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	w := doJSON(router, http.MethodPost, "/agents/999/run/stream", map[string]string{"input": "hi"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	// The 404 is plain JSON, not a stream.
	if strings.Contains(w.Header().Get("Content-Type"), "ndjson") {
		t.Error("404 should not stream NDJSON")
	}
}

func TestRunStream_MissingInput(t *testing.T) {
	router, db := newTestRouter(t, "x")
	agent := createAgent(t, db, "a")

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/agents/%d/run/stream", agent.ID), map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRun_Blocking(t *testing.T) {
	router, db := newTestRouter(t, "fine", " thanks")
	agent := createAgent(t, db, "a")

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/agents/%d/run", agent.ID), map[string]string{"input": "how are you"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var res runner.Result
	decodeBody(t, w, &res)
	if res.Answer != "fine thanks" {
		t.Errorf("answer = %q", res.Answer)
	}
	if res.ExecutionID == 0 {
		t.Error("execution id missing")
	}
}

func TestClearMemory_Idempotent(t *testing.T) {
	router, db := newTestRouter(t, "x")
	agent := createAgent(t, db, "a")

	path := fmt.Sprintf("/agents/%d/memory", agent.ID)
	for i := 0; i < 2; i++ {
		w := doJSON(router, http.MethodDelete, path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("clear #%d status = %d", i+1, w.Code)
		}
	}
}

func TestAgentCosts_404WhenEmpty(t *testing.T) {
	router, db := newTestRouter(t, "ok")
	agent := createAgent(t, db, "a")

	path := fmt.Sprintf("/agents/%d/costs", agent.ID)
	if w := doJSON(router, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Fatalf("empty costs status = %d, want 404", w.Code)
	}

	// One run populates the ledger.
	doJSON(router, http.MethodPost, fmt.Sprintf("/agents/%d/run", agent.ID), map[string]string{"input": "hi"})

	w := doJSON(router, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var costs []recorder.AgentCost
	decodeBody(t, w, &costs)
	if len(costs) != 1 {
		t.Fatalf("costs = %d entries, want 1", len(costs))
	}
	if costs[0].Cost <= 0 {
		t.Errorf("cost = %v, want > 0", costs[0].Cost)
	}
}

func TestCostSummary(t *testing.T) {
	router, db := newTestRouter(t, "abcde")
	agent := createAgent(t, db, "a")

	doJSON(router, http.MethodPost, fmt.Sprintf("/agents/%d/run", agent.ID), map[string]string{"input": "one"})
	doJSON(router, http.MethodPost, fmt.Sprintf("/agents/%d/run", agent.ID), map[string]string{"input": "two"})

	w := doJSON(router, http.MethodGet, fmt.Sprintf("/agents/%d/costs/summary", agent.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var summary recorder.CostSummary
	decodeBody(t, w, &summary)
	if summary.Executions != 2 {
		t.Errorf("executions = %d, want 2", summary.Executions)
	}
	if summary.TotalCost <= 0 {
		t.Errorf("total = %v, want > 0", summary.TotalCost)
	}
}

func TestAgentCRUD(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	w := doJSON(router, http.MethodPost, "/agents", map[string]interface{}{
		"name": "helper", "model": "gpt-4o-mini", "provider": "openai", "temperature": 0.3,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var created models.Agent
	decodeBody(t, w, &created)
	if created.Provider != models.ProviderOpenAI {
		t.Errorf("provider = %q", created.Provider)
	}
	if !created.Active {
		t.Error("new agent should default to active")
	}

	// Update.
	w = doJSON(router, http.MethodPut, fmt.Sprintf("/agents/%d", created.ID), map[string]interface{}{"model": "gpt-4o"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	var updated models.Agent
	decodeBody(t, w, &updated)
	if updated.Model != "gpt-4o" {
		t.Errorf("model = %q after update", updated.Model)
	}
	if updated.Name != "helper" {
		t.Errorf("name = %q, update should not blank untouched fields", updated.Name)
	}

	// List.
	w = doJSON(router, http.MethodGet, "/agents", nil)
	var agents []models.Agent
	decodeBody(t, w, &agents)
	if len(agents) != 1 {
		t.Fatalf("agents = %d, want 1", len(agents))
	}

	// Delete, then a lookup 404s.
	if w = doJSON(router, http.MethodDelete, fmt.Sprintf("/agents/%d", created.ID), nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w = doJSON(router, http.MethodGet, fmt.Sprintf("/agents/%d", created.ID), nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", w.Code)
	}
}

func TestAgentCreate_Invalid(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	w := doJSON(router, http.MethodPost, "/agents", map[string]string{"name": "incomplete"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestExportImportAgents(t *testing.T) {
	router, db := newTestRouter(t, "x")
	createAgent(t, db, "alpha")
	createAgent(t, db, "beta")

	w := doJSON(router, http.MethodGet, "/export/agents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	var bundle struct {
		Version int            `json:"version"`
		Agents  []models.Agent `json:"agents"`
	}
	decodeBody(t, w, &bundle)
	if len(bundle.Agents) != 2 {
		t.Fatalf("exported %d agents, want 2", len(bundle.Agents))
	}

	// Importing the same bundle twice does not duplicate agents.
	for i := 0; i < 2; i++ {
		w = doJSON(router, http.MethodPost, "/import/agents", bundle)
		if w.Code != http.StatusOK {
			t.Fatalf("import #%d status = %d: %s", i+1, w.Code, w.Body.String())
		}
	}
	var count int64
	db.Model(&models.Agent{}).Count(&count)
	if count != 2 {
		t.Errorf("agents after re-import = %d, want 2", count)
	}
}

func TestExecutionsEndpoints(t *testing.T) {
	router, db := newTestRouter(t, "answer")
	a := createAgent(t, db, "a")
	b := createAgent(t, db, "b")

	doJSON(router, http.MethodPost, fmt.Sprintf("/agents/%d/run", a.ID), map[string]string{"input": "q1"})
	doJSON(router, http.MethodPost, fmt.Sprintf("/agents/%d/run", b.ID), map[string]string{"input": "q2"})

	w := doJSON(router, http.MethodGet, "/executions", nil)
	var all []models.Execution
	decodeBody(t, w, &all)
	if len(all) != 2 {
		t.Fatalf("executions = %d, want 2", len(all))
	}

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/executions?agent_id=%d", a.ID), nil)
	var filtered []models.Execution
	decodeBody(t, w, &filtered)
	if len(filtered) != 1 || filtered[0].AgentID != a.ID {
		t.Fatalf("filtered executions = %+v", filtered)
	}

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/executions/%d", filtered[0].ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var one models.Execution
	decodeBody(t, w, &one)
	if one.Cost == nil {
		t.Error("execution should include its cost record")
	}

	if w = doJSON(router, http.MethodDelete, fmt.Sprintf("/executions/%d", one.ID), nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w = doJSON(router, http.MethodDelete, fmt.Sprintf("/executions/%d", one.ID), nil); w.Code != http.StatusNotFound {
		t.Fatalf("re-delete status = %d, want 404", w.Code)
	}
}

func TestUsersAndPrompts(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	w := doJSON(router, http.MethodPost, "/users", map[string]string{"name": "ana", "email": "ana@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user status = %d", w.Code)
	}
	var user models.User
	decodeBody(t, w, &user)

	if w = doJSON(router, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), nil); w.Code != http.StatusOK {
		t.Fatalf("get user status = %d", w.Code)
	}

	// Recreating a prompt under the same name bumps the version.
	for i := 0; i < 2; i++ {
		w = doJSON(router, http.MethodPost, "/prompts", map[string]string{"name": "greeter", "content": "Say hello."})
		if w.Code != http.StatusCreated {
			t.Fatalf("create prompt #%d status = %d", i+1, w.Code)
		}
	}
	var prompt models.Prompt
	decodeBody(t, w, &prompt)
	if prompt.Version != 2 {
		t.Errorf("version = %d, want 2", prompt.Version)
	}

	if w = doJSON(router, http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), nil); w.Code != http.StatusOK {
		t.Fatalf("delete user status = %d", w.Code)
	}
	if w = doJSON(router, http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), nil); w.Code != http.StatusNotFound {
		t.Fatalf("re-delete user status = %d, want 404", w.Code)
	}
}

func TestRAGQuery(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	w := doJSON(router, http.MethodPost, "/rag/query", map[string]string{"question": "what is in the docs"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res struct {
		Answer string `json:"answer"`
	}
	decodeBody(t, w, &res)
	if res.Answer != "from the docs" {
		t.Errorf("answer = %q", res.Answer)
	}

	if w = doJSON(router, http.MethodPost, "/rag/query", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty question status = %d, want 400", w.Code)
	}
}

func TestRAGUpload(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("some document text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/rag/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res rag.IndexResult
	decodeBody(t, w, &res)
	if res.Filename != "notes.txt" {
		t.Errorf("filename = %q", res.Filename)
	}
}

func TestRAG_Unconfigured(t *testing.T) {
	db := openTestDB(t)
	rec, _ := recorder.New(db)
	store := memory.NewLocalStore(5, 0)
	run, _ := runner.New(runner.Opts{Recorder: rec, Memory: store})

	router, err := Router(Opts{DB: db, Runner: run, Memory: store, Recorder: rec})
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(router, http.MethodPost, "/rag/query", map[string]string{"question": "anything"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	w := doJSON(router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	decodeBody(t, w, &res)
	if res.Status != "ok" {
		t.Errorf("status = %q", res.Status)
	}
	if res.Components["database"] != "ok" {
		t.Errorf("database component = %q", res.Components["database"])
	}
	if _, present := res.Components["redis"]; present {
		t.Error("redis component should be absent when redis is not configured")
	}
	if res.Components["rag"] != "configured" {
		t.Errorf("rag component = %q", res.Components["rag"])
	}
}

func TestRouter_RequiresCollaborators(t *testing.T) {
	if _, err := Router(Opts{}); err == nil {
		t.Fatal("expected error for empty opts")
	}
}
