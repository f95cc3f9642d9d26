package chat

import (
	"fmt"
	"strings"

	"github.com/wattmonk/ragchat/internal/models"
)

// FormatContext renders retrieved chunks as labeled source blocks for the
// prompt, in result order.
func FormatContext(results []models.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant information from knowledge base:\n\n")
	for i, res := range results {
		fmt.Fprintf(&b, "[Source %d: %s (%s)]\n", i+1, res.Source(), strings.ToUpper(res.Corpus()))
		b.WriteString(res.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// BuildPrompt assembles the generation prompt for a query given its intent and
// any retrieved context.
func BuildPrompt(query, context string, intent models.Intent) string {
	if intent.Label == models.IntentGeneral {
		return fmt.Sprintf(`You are a helpful AI assistant. Answer the user's question in a friendly and informative manner.

User Question: %s

Answer:`, query)
	}

	domain := strings.ToUpper(string(intent.Label))
	if context == "" {
		return fmt.Sprintf(`You are a helpful assistant. The user is asking about %s related topics, but I don't have specific context available in my knowledge base for this query.

User Question: %s

Please provide a helpful response based on your general knowledge, but clearly indicate that this information is not from the specific %s knowledge base and recommend consulting official sources for authoritative information.

Answer:`, domain, query, domain)
	}

	return fmt.Sprintf(`You are a helpful assistant specializing in %s information.
Use the provided context to answer the user's question accurately and comprehensively.

%s

User Question: %s

Instructions:
1. Answer based primarily on the provided context
2. If the context doesn't contain enough information, clearly state this
3. Always cite your sources when using information from the context
4. Be specific and technical when appropriate
5. If asked about %s, focus on that domain

Answer:`, domain, context, query, domain)
}
