package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
	"github.com/topiclens/topiclens-backend/internal/platform/openai"
)

const (
	namingSampleDocs   = 5
	namingExcerptChars = 500
	namingPromptChars  = 2000
)

const namingSystemPrompt = "You are a helpful assistant that generates concise topic names."

// topicName derives a short label for a cluster from its most central
// documents. Naming must never sink a discovery run: any provider failure
// falls back to a placeholder.
func topicName(ctx context.Context, log *logger.Logger, ai openai.Client, cl kCluster, docsByID map[uuid.UUID]*domain.Document) string {
	sample := sampleClusterDocs(cl, namingSampleDocs)
	excerpts := make([]string, 0, len(sample))
	for _, m := range sample {
		doc := docsByID[m.DocID]
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		excerpts = append(excerpts, truncateText(doc.Content, namingExcerptChars))
	}
	fallback := fmt.Sprintf("Topic %d", cl.Slot+1)
	if len(excerpts) == 0 {
		return fallback
	}

	combined := truncateText(strings.Join(excerpts, "\n\n"), namingPromptChars)
	user := fmt.Sprintf(`Analyze the following documents and generate a concise topic name (2-4 words) that captures the main theme.

Documents:
%s

Generate only the topic name, nothing else:`, combined)

	name, err := ai.GenerateText(ctx, namingSystemPrompt, user)
	if err != nil {
		log.Warn("Topic naming failed; using placeholder", "slot", cl.Slot, "error", err)
		return fallback
	}
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	if name == "" {
		return fallback
	}
	return name
}
