package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-chat/internal/domain"
)

// Property names of the mirror database.
const (
	propDescription   = "Description"
	propTransactionID = "Transaction ID"
	propUser          = "User"
	propType          = "Type"
	propCategory      = "Category"
	propAmount        = "Amount"
	propRecordedAt    = "Recorded At"
)

// TransactionToNotionProperties maps a record onto the mirror database
// columns. The description is the page title.
func TransactionToNotionProperties(rec domain.TransactionRecord) notionapi.Properties {
	recorded := notionapi.Date(rec.CreatedAt.UTC())
	return notionapi.Properties{
		propDescription: notionapi.TitleProperty{
			Title: []notionapi.RichText{text(rec.Description)},
		},
		propTransactionID: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{text(rec.ID)},
		},
		propUser: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{text(rec.UserID)},
		},
		propType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Type)},
		},
		propCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Category)},
		},
		propAmount: notionapi.NumberProperty{
			Number: rec.Amount,
		},
		propRecordedAt: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &recorded},
		},
	}
}

func text(s string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}
}

// userFilter limits a database query to one user's pages.
func userFilter(userID string) notionapi.Filter {
	return &notionapi.PropertyFilter{
		Property: propUser,
		RichText: &notionapi.TextFilterCondition{Equals: userID},
	}
}

// extractTransactionID reads the Transaction ID column of a page.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties[propTransactionID]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok && len(richText.RichText) > 0 {
			return richText.RichText[0].PlainText
		}
	}
	return ""
}
