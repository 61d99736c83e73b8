package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const transactionsTable = "transactions"

// table returns the fully qualified, backquoted table name.
func table(projectID, datasetID string) string {
	return "`" + projectID + "." + datasetID + "." + transactionsTable + "`"
}

// InsertTransactionWithClient writes one row with a DML INSERT. Streaming
// inserts are avoided because rows in the streaming buffer cannot be
// updated or deleted.
func InsertTransactionWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *TransactionRow) error {
	q := client.Query(`
		INSERT INTO ` + table(client.Project(), datasetID) + `
		(transaction_id, user_id, type, amount, category, description, created_ts)
		VALUES (@transaction_id, @user_id, @type, @amount, @category, @description, @created_ts)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "user_id", Value: row.UserID},
		{Name: "type", Value: row.Type},
		{Name: "amount", Value: row.Amount},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
		{Name: "created_ts", Value: row.CreatedTS},
	}
	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// QueryTransactionsByUserWithClient returns the user's rows oldest first.
func QueryTransactionsByUserWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string) ([]*TransactionRow, error) {
	q := client.Query(`
		SELECT transaction_id, user_id, type, amount, category, description, created_ts
		FROM ` + table(client.Project(), datasetID) + `
		WHERE user_id = @user_id
		ORDER BY created_ts, transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByUser: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByUser: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

// UpdateTransactionWithClient rewrites the editable columns and reports how
// many rows matched.
func UpdateTransactionWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *TransactionRow) (int64, error) {
	q := client.Query(`
		UPDATE ` + table(client.Project(), datasetID) + `
		SET type = @type, amount = @amount, category = @category, description = @description
		WHERE user_id = @user_id AND transaction_id = @transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "user_id", Value: row.UserID},
		{Name: "type", Value: row.Type},
		{Name: "amount", Value: row.Amount},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
	}
	n, err := runDML(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("UpdateTransaction: %w", err)
	}
	return n, nil
}

// DeleteTransactionWithClient removes one row and reports how many matched.
func DeleteTransactionWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID, transactionID string) (int64, error) {
	q := client.Query(`
		DELETE FROM ` + table(client.Project(), datasetID) + `
		WHERE user_id = @user_id AND transaction_id = @transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: transactionID},
	}
	n, err := runDML(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("DeleteTransaction: %w", err)
	}
	return n, nil
}

func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	var affected int64
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		affected = qs.NumDMLAffectedRows
	}
	return affected, nil
}
