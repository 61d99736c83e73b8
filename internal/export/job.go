package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/jobs"
)

// TransactionLister is the part of the transaction store an export reads.
type TransactionLister interface {
	List(ctx context.Context, userID string) ([]domain.TransactionRecord, error)
}

// UploadJobHandler builds the workbook for job.UserID and uploads it,
// recording the resulting URI on the job.
func UploadJobHandler(lister TransactionLister, uploader Uploader, loc *time.Location) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.ExportJob) error {
		recs, err := lister.List(ctx, job.UserID)
		if err != nil {
			return fmt.Errorf("listing transactions: %w", err)
		}

		var buf bytes.Buffer
		if err := WriteWorkbook(&buf, recs, loc); err != nil {
			return err
		}

		uri, err := uploader.Upload(ctx, ObjectName(job.UserID, job.CreatedAt), &buf)
		if err != nil {
			return fmt.Errorf("uploading export: %w", err)
		}
		job.URI = uri
		return nil
	}
}
