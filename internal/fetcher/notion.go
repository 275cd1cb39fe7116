package fetcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/devbrain-io/devbrain/internal/model"
)

const maxPageDepth = 5

type notionConfig struct {
	Token string   `json:"token"`
	Pages []string `json:"pages"`
}

// notionFetcher renders notion pages to markdown so the downstream pipeline
// treats a wiki page like any other markdown document. Child pages are
// walked recursively up to maxPageDepth.
type notionFetcher struct {
	name   string
	client *notionapi.Client
	pages  []string
}

func init() {
	Register(model.SourceTypeWiki, createNotionFetcher)
}

func createNotionFetcher(name string, args interface{}) (Fetcher, error) {
	config := &notionConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Token == "" || len(config.Pages) == 0 {
		return nil, fmt.Errorf("wiki token/pages are required")
	}
	return &notionFetcher{
		name:   name,
		client: notionapi.NewClient(notionapi.Token(config.Token)),
		pages:  config.Pages,
	}, nil
}

func (f *notionFetcher) Name() string {
	return f.name
}

func (f *notionFetcher) SourceType() string {
	return model.SourceTypeWiki
}

func (f *notionFetcher) ListFiles(ctx context.Context) ([]SourceFile, error) {
	files := make([]SourceFile, 0, len(f.pages))
	seen := map[string]bool{}
	for _, pageID := range f.pages {
		if err := f.walkPage(ctx, pageID, 0, seen, &files); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (f *notionFetcher) FileURL(path string) string {
	return "https://www.notion.so/" + strings.TrimSuffix(path, ".md")
}

func (f *notionFetcher) walkPage(ctx context.Context, pageID string, depth int, seen map[string]bool, out *[]SourceFile) error {
	id := strings.ReplaceAll(strings.TrimSpace(pageID), "-", "")
	if id == "" || seen[id] || depth > maxPageDepth {
		return nil
	}
	seen[id] = true
	page, err := f.client.Page.Get(ctx, notionapi.PageID(id))
	if err != nil {
		return fmt.Errorf("get page %s: %w", id, err)
	}
	var body strings.Builder
	title := pageTitle(page)
	if title != "" {
		body.WriteString("# " + title + "\n\n")
	}
	childPages, err := f.renderChildren(ctx, notionapi.BlockID(id), &body)
	if err != nil {
		return err
	}
	content := strings.TrimSpace(body.String())
	if content != "" {
		*out = append(*out, SourceFile{Path: id + ".md", Content: content + "\n"})
	}
	for _, child := range childPages {
		if err := f.walkPage(ctx, child, depth+1, seen, out); err != nil {
			logutil.GetLogger(ctx).Warn("skip unreadable child page",
				zap.String("page_id", child), zap.Error(err))
		}
	}
	return nil
}

// renderChildren appends the markdown rendering of a block's children and
// returns the ids of any child pages found along the way.
func (f *notionFetcher) renderChildren(ctx context.Context, blockID notionapi.BlockID, body *strings.Builder) ([]string, error) {
	var childPages []string
	cursor := notionapi.Cursor("")
	for {
		resp, err := f.client.Block.GetChildren(ctx, blockID, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, fmt.Errorf("get children of %s: %w", blockID, err)
		}
		for _, block := range resp.Results {
			pages, err := f.renderBlock(ctx, block, body)
			if err != nil {
				return nil, err
			}
			childPages = append(childPages, pages...)
		}
		if !resp.HasMore {
			return childPages, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

func (f *notionFetcher) renderBlock(ctx context.Context, block notionapi.Block, body *strings.Builder) ([]string, error) {
	switch b := block.(type) {
	case *notionapi.ChildPageBlock:
		return []string{string(b.GetID())}, nil
	case *notionapi.Heading1Block:
		writeLine(body, "# "+plainText(b.Heading1.RichText))
	case *notionapi.Heading2Block:
		writeLine(body, "## "+plainText(b.Heading2.RichText))
	case *notionapi.Heading3Block:
		writeLine(body, "### "+plainText(b.Heading3.RichText))
	case *notionapi.ParagraphBlock:
		writeLine(body, plainText(b.Paragraph.RichText))
	case *notionapi.BulletedListItemBlock:
		writeLine(body, "- "+plainText(b.BulletedListItem.RichText))
	case *notionapi.NumberedListItemBlock:
		writeLine(body, "1. "+plainText(b.NumberedListItem.RichText))
	case *notionapi.ToDoBlock:
		mark := "[ ]"
		if b.ToDo.Checked {
			mark = "[x]"
		}
		writeLine(body, "- "+mark+" "+plainText(b.ToDo.RichText))
	case *notionapi.QuoteBlock:
		writeLine(body, "> "+plainText(b.Quote.RichText))
	case *notionapi.CalloutBlock:
		writeLine(body, "> "+plainText(b.Callout.RichText))
	case *notionapi.CodeBlock:
		body.WriteString("```" + string(b.Code.Language) + "\n")
		body.WriteString(plainText(b.Code.RichText))
		body.WriteString("\n```\n\n")
	}
	if block.GetHasChildren() && block.GetType() != notionapi.BlockTypeChildPage {
		return f.renderChildren(ctx, notionapi.BlockID(block.GetID()), body)
	}
	return nil, nil
}

func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return strings.TrimSpace(plainText(title.Title))
		}
	}
	return ""
}

func plainText(rich []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rich {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

func writeLine(body *strings.Builder, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	body.WriteString(line + "\n\n")
}
