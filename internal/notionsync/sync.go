// Package notionsync mirrors a user's recorded transactions into a Notion
// database. The store stays the source of truth.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-chat/internal/logger"
)

// pageSize is the Notion maximum for database queries.
const pageSize = 100

// Result counts what a sync did (or would do, on a dry run).
type Result struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// SyncTransactions makes the Notion database match the user's stored
// transactions:
// 1. pages whose Transaction ID is unknown or missing are archived
// 2. pages for known transactions are updated in place
// 3. transactions without a page get a new one
//
// Per-page API failures are logged and counted; only listing failures abort.
func SyncTransactions(ctx context.Context, lister TransactionLister, notionClient NotionService, notionDBID, userID string, dryRun bool) (Result, error) {
	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Bool("dry_run", dryRun).
		Logger()

	var res Result

	recs, err := lister.List(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("failed to list transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(recs)).Msg("Retrieved transactions from store")

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID, userID)
	if err != nil {
		return res, fmt.Errorf("failed to query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	valid := make(map[string]bool, len(recs))
	for _, rec := range recs {
		valid[rec.ID] = true
	}

	pageByTx := make(map[string]string)
	for _, page := range pages {
		txID := extractTransactionID(page)
		if txID != "" && valid[txID] {
			if _, dup := pageByTx[txID]; !dup {
				pageByTx[txID] = string(page.ID)
				continue
			}
		}

		pageLog := log.With().Str("transaction_id", txID).Str("page_id", string(page.ID)).Logger()
		if dryRun {
			pageLog.Info().Msg("[DRY RUN] Would archive stale Notion page")
			res.Archived++
			continue
		}
		if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
			pageLog.Warn().Err(err).Msg("Failed to archive stale Notion page")
			res.Failed++
			continue
		}
		pageLog.Debug().Msg("Archived stale Notion page")
		res.Archived++
	}

	for _, rec := range recs {
		recLog := log.With().Str("transaction_id", rec.ID).Logger()
		pageID, exists := pageByTx[rec.ID]

		if dryRun {
			if exists {
				recLog.Info().Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
				res.Updated++
			} else {
				recLog.Info().Msg("[DRY RUN] Would create Notion page")
				res.Created++
			}
			continue
		}

		props := TransactionToNotionProperties(rec)
		if exists {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				recLog.Warn().Err(err).Str("page_id", pageID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			recLog.Warn().Err(err).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		recLog.Debug().Str("page_id", string(page.ID)).Msg("Created Notion page")
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("Transaction sync to Notion completed")

	return res, nil
}

// queryAllNotionPages returns every page of the user, following cursors.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID, userID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			Filter:   userFilter(userID),
			PageSize: pageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
