package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-chat/internal/api/middleware"
	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/export"
	"github.com/dvloznov/finance-chat/internal/jobs"
	jobsmem "github.com/dvloznov/finance-chat/internal/jobs/inmemory"
	"github.com/dvloznov/finance-chat/internal/router"
	"github.com/dvloznov/finance-chat/internal/store/memory"
)

// MockRouter is a mock implementation of MessageRouter for testing.
type MockRouter struct {
	RouteFunc func(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) router.Action
	Histories [][]domain.ConversationTurn
}

func (m *MockRouter) Route(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) router.Action {
	m.Histories = append(m.Histories, history)
	return m.RouteFunc(ctx, message, history, txs)
}

type MockTips struct {
	Seen int
}

func (m *MockTips) Tips(ctx context.Context, txs []domain.TransactionRecord) []string {
	m.Seen = len(txs)
	return []string{"💡 tip"}
}

type MockPublisher struct {
	Published []*jobs.ExportJob
}

func (m *MockPublisher) PublishExport(ctx context.Context, job *jobs.ExportJob) error {
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	m.Published = append(m.Published, job)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

type testServer struct {
	mux       http.Handler
	store     *memory.Store
	router    *MockRouter
	tips      *MockTips
	publisher *MockPublisher
	jobStore  *jobsmem.Store
}

func newTestServer(t *testing.T, withUploads bool) *testServer {
	t.Helper()
	log := zerolog.Nop()
	ts := &testServer{
		store: memory.NewStore(),
		router: &MockRouter{
			RouteFunc: func(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) router.Action {
				if message == "spent 250 on lunch" {
					return router.Action{
						Kind:  router.ActionRecordTransaction,
						Reply: "Got it! I've recorded ₹250 spent on food.",
						Transaction: &domain.TransactionRecord{
							ID: "rule-1", Type: domain.Expense, Amount: 250,
							Category: domain.CategoryFood, Description: "lunch",
						},
					}
				}
				return router.Action{Kind: router.ActionAdvice, Reply: "Save more."}
			},
		},
		tips:      &MockTips{},
		publisher: &MockPublisher{},
		jobStore:  jobsmem.NewStore(),
	}

	var publisher jobs.Publisher
	if withUploads {
		publisher = ts.publisher
	}

	chat := NewChatHandler(ts.router, ts.store, log)
	txs := NewTransactionsHandler(ts.store, ts.tips, log)
	exp := NewExportHandler(ts.store, publisher, ts.jobStore, time.UTC, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", chat.Chat)
	mux.HandleFunc("GET /api/transactions", txs.ListTransactions)
	mux.HandleFunc("POST /api/transactions", txs.CreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", txs.UpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", txs.DeleteTransaction)
	mux.HandleFunc("GET /api/summary", txs.GetSummary)
	mux.HandleFunc("GET /api/tips", txs.GetTips)
	mux.HandleFunc("GET /api/export", exp.Export)
	mux.HandleFunc("GET /api/export/jobs", exp.ListJobs)
	mux.HandleFunc("GET /api/export/jobs/{id}", exp.GetJob)

	ts.mux = middleware.UserID("")(mux)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestChat_RecordsTransaction(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/chat", "alice", `{"message":"spent 250 on lunch","history":[{"sender":"user","text":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	action := decode[router.Action](t, rec)
	if action.Kind != router.ActionRecordTransaction || action.Transaction == nil {
		t.Fatalf("unexpected action %+v", action)
	}
	if action.Transaction.ID == "rule-1" || action.Transaction.UserID != "alice" {
		t.Errorf("expected stored record with new ID, got %+v", action.Transaction)
	}
	if len(ts.router.Histories) != 1 || len(ts.router.Histories[0]) != 1 {
		t.Errorf("expected history to reach the router, got %v", ts.router.Histories)
	}

	stored, _ := ts.store.List(context.Background(), "alice")
	if len(stored) != 1 || stored[0].Amount != 250 {
		t.Errorf("expected transaction stored, got %+v", stored)
	}
}

func TestChat_AdviceDoesNotStore(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/chat", "alice", `{"message":"how do I save?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if action := decode[router.Action](t, rec); action.Reply != "Save more." {
		t.Errorf("unexpected reply %q", action.Reply)
	}
	stored, _ := ts.store.List(context.Background(), "alice")
	if len(stored) != 0 {
		t.Errorf("expected nothing stored, got %d", len(stored))
	}
}

func TestChat_BadRequests(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name string
		user string
		body string
		want int
	}{
		{"invalid json", "alice", `{`, http.StatusBadRequest},
		{"blank message", "alice", `{"message":"   "}`, http.StatusBadRequest},
		{"missing user", "", `{"message":"hi"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := ts.do(t, http.MethodPost, "/api/chat", tt.user, tt.body); rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestTransactionsCRUD(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", `{"type":"expense","amount":800,"category":"Food","description":"groceries"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[domain.TransactionRecord](t, rec)
	if created.Category != domain.CategoryFood {
		t.Errorf("expected category normalised to food, got %q", created.Category)
	}

	rec = ts.do(t, http.MethodPost, "/api/transactions", "alice", `{"type":"expense","amount":-5,"category":"food","description":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative amount, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPut, "/api/transactions/"+created.ID, "alice", `{"type":"expense","amount":900,"category":"shopping","description":"groceries"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if updated := decode[domain.TransactionRecord](t, rec); updated.Amount != 900 || updated.Category != domain.CategoryShopping {
		t.Errorf("unexpected update result %+v", updated)
	}

	rec = ts.do(t, http.MethodPut, "/api/transactions/"+created.ID, "bob", `{"type":"expense","amount":1,"category":"food","description":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user's record, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/transactions", "alice", "")
	list := decode[struct {
		Transactions []domain.TransactionRecord `json:"transactions"`
		Count        int                        `json:"count"`
	}](t, rec)
	if list.Count != 1 {
		t.Errorf("expected 1 transaction, got %d", list.Count)
	}

	if rec := ts.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "alice", ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "alice", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestSummaryAndTips(t *testing.T) {
	ts := newTestServer(t, false)
	ctx := context.Background()
	ts.store.Append(ctx, "alice", domain.TransactionRecord{Type: domain.Income, Amount: 5000, Category: domain.CategorySalary, Description: "salary"})
	ts.store.Append(ctx, "alice", domain.TransactionRecord{Type: domain.Expense, Amount: 250, Category: domain.CategoryFood, Description: "lunch"})

	rec := ts.do(t, http.MethodGet, "/api/summary", "alice", "")
	summary := decode[struct {
		TotalIncome   float64 `json:"totalIncome"`
		TotalExpenses float64 `json:"totalExpenses"`
		Balance       float64 `json:"balance"`
	}](t, rec)
	if summary.TotalIncome != 5000 || summary.TotalExpenses != 250 || summary.Balance != 4750 {
		t.Errorf("unexpected summary %+v", summary)
	}

	rec = ts.do(t, http.MethodGet, "/api/tips", "alice", "")
	tips := decode[struct {
		Tips []string `json:"tips"`
	}](t, rec)
	if len(tips.Tips) != 1 || ts.tips.Seen != 2 {
		t.Errorf("unexpected tips %v (saw %d txs)", tips.Tips, ts.tips.Seen)
	}
}

func TestExport_Download(t *testing.T) {
	ts := newTestServer(t, false)
	ts.store.Append(context.Background(), "alice", domain.TransactionRecord{Type: domain.Expense, Amount: 250, Category: domain.CategoryFood, Description: "lunch"})

	rec := ts.do(t, http.MethodGet, "/api/export", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "ClearBudget_Transactions_") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected workbook body")
	}
}

func TestExport_Upload(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t, false)
		if rec := ts.do(t, http.MethodGet, "/api/export?upload=true", "alice", ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("enqueues job", func(t *testing.T) {
		ts := newTestServer(t, true)
		rec := ts.do(t, http.MethodGet, "/api/export?upload=true", "alice", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		job := decode[jobs.ExportJob](t, rec)
		if job.JobID != "job-1" || job.UserID != "alice" {
			t.Errorf("unexpected job %+v", job)
		}
		if len(ts.publisher.Published) != 1 {
			t.Errorf("expected one published job, got %d", len(ts.publisher.Published))
		}
	})
}

func TestExport_Jobs(t *testing.T) {
	ts := newTestServer(t, true)
	ctx := context.Background()
	ts.jobStore.SaveJob(ctx, &jobs.ExportJob{JobID: "a", UserID: "alice", Status: jobs.JobStatusCompleted, URI: "gs://b/o"})
	ts.jobStore.SaveJob(ctx, &jobs.ExportJob{JobID: "b", UserID: "bob", Status: jobs.JobStatusPending})

	rec := ts.do(t, http.MethodGet, "/api/export/jobs/a", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if job := decode[jobs.ExportJob](t, rec); job.URI != "gs://b/o" {
		t.Errorf("unexpected job %+v", job)
	}

	if rec := ts.do(t, http.MethodGet, "/api/export/jobs/b", "alice", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user's job, got %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/export/jobs/missing", "alice", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/export/jobs", "alice", "")
	list := decode[struct {
		Count int `json:"count"`
	}](t, rec)
	if list.Count != 1 {
		t.Errorf("expected 1 job for alice, got %d", list.Count)
	}
}
