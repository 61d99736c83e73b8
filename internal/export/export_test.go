package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/jobs"
)

func sampleRecords() []domain.TransactionRecord {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	return []domain.TransactionRecord{
		{ID: "1", Type: domain.Income, Amount: 50000, Category: domain.CategorySalary, Description: "salary", CreatedAt: at},
		{ID: "2", Type: domain.Expense, Amount: 250, Category: domain.CategoryFood, Description: "lunch", CreatedAt: at.Add(time.Hour)},
		{ID: "3", Type: domain.Expense, Amount: 1200.5, Category: domain.CategoryTransport, Description: " ", CreatedAt: at.Add(2 * time.Hour)},
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleRecords(), time.UTC); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}

	// header + 3 records + blank + SUMMARY + 3 totals
	if len(rows) != 9 {
		t.Fatalf("expected 9 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "Date" || rows[0][6] != "Balance Impact" {
		t.Errorf("unexpected header: %v", rows[0])
	}

	first := rows[1]
	if first[0] != "05/03/2024" || first[1] != "02:07:09 PM" {
		t.Errorf("unexpected date/time: %v", first[:2])
	}
	if first[2] != "Income" || first[4] != "Salary" || first[6] != "+₹50,000" {
		t.Errorf("unexpected income row: %v", first)
	}
	if rows[2][6] != "-₹250" {
		t.Errorf("expected -₹250, got %q", rows[2][6])
	}
	if rows[3][5] != "No description" {
		t.Errorf("expected placeholder description, got %q", rows[3][5])
	}

	if rows[5][0] != "SUMMARY" {
		t.Errorf("expected SUMMARY marker, got %v", rows[5])
	}
	tests := []struct {
		row    int
		label  string
		impact string
	}{
		{6, "Total Income", "+₹50,000"},
		{7, "Total Expenses", "-₹1,450.5"},
		{8, "Net Balance", "+₹48,549.5"},
	}
	for _, tt := range tests {
		got := rows[tt.row]
		if got[0] != tt.label || got[6] != tt.impact {
			t.Errorf("row %d: expected %s/%s, got %v", tt.row, tt.label, tt.impact, got)
		}
	}
}

func TestWriteWorkbook_NegativeBalance(t *testing.T) {
	recs := []domain.TransactionRecord{
		{ID: "1", Type: domain.Expense, Amount: 300, Category: domain.CategoryRent, Description: "rent", CreatedAt: time.Now()},
	}
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, recs, nil); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	impact, err := f.GetCellValue(SheetName, "G7")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if impact != "-₹300" {
		t.Errorf("expected -₹300 net balance, got %q", impact)
	}
}

func TestObjectName(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := ObjectName("alice", at)
	want := "exports/alice/ClearBudget_Transactions_2024-01-02_03-04-05.xlsx"
	if got != want {
		t.Errorf("ObjectName = %q, want %q", got, want)
	}
	if uri := GCSURI("bucket", got); uri != "gs://bucket/"+want {
		t.Errorf("unexpected URI %q", uri)
	}
}

type MockUploader struct {
	UploadFunc func(ctx context.Context, objectName string, r io.Reader) (string, error)
	Objects    map[string][]byte
}

func (m *MockUploader) Upload(ctx context.Context, objectName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.Objects == nil {
		m.Objects = make(map[string][]byte)
	}
	m.Objects[objectName] = data
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, objectName, bytes.NewReader(data))
	}
	return GCSURI("test-bucket", objectName), nil
}

type MockLister struct {
	Records []domain.TransactionRecord
	Err     error
}

func (m *MockLister) List(ctx context.Context, userID string) ([]domain.TransactionRecord, error) {
	return m.Records, m.Err
}

func TestUploadJobHandler(t *testing.T) {
	uploader := &MockUploader{}
	handler := UploadJobHandler(&MockLister{Records: sampleRecords()}, uploader, time.UTC)

	job := &jobs.ExportJob{
		JobID:     "job-1",
		UserID:    "alice",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	object := "exports/alice/ClearBudget_Transactions_2024-01-02_03-04-05.xlsx"
	if job.URI != "gs://test-bucket/"+object {
		t.Errorf("unexpected URI %q", job.URI)
	}
	data, ok := uploader.Objects[object]
	if !ok || len(data) == 0 {
		t.Fatalf("expected workbook uploaded to %s", object)
	}
	if _, err := excelize.OpenReader(bytes.NewReader(data)); err != nil {
		t.Errorf("uploaded data is not a workbook: %v", err)
	}
}

func TestUploadJobHandler_Errors(t *testing.T) {
	job := &jobs.ExportJob{JobID: "job-1", UserID: "alice", CreatedAt: time.Now()}

	listFail := UploadJobHandler(&MockLister{Err: errors.New("db down")}, &MockUploader{}, nil)
	if err := listFail(context.Background(), job); err == nil {
		t.Error("expected list error")
	}

	uploadFail := UploadJobHandler(&MockLister{}, &MockUploader{
		UploadFunc: func(ctx context.Context, objectName string, r io.Reader) (string, error) {
			return "", errors.New("permission denied")
		},
	}, nil)
	if err := uploadFail(context.Background(), job); err == nil {
		t.Error("expected upload error")
	}
	if job.URI != "" {
		t.Errorf("URI must stay empty on failure, got %q", job.URI)
	}
}
