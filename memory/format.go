package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ninaia/memoria/personality"
	"github.com/ninaia/memoria/types"
)

// FormatContextForLLM renders a response context as a prompt block in
// Portuguese: the personality instructions, what is known about the user,
// the channel mood and the recent conversation.
func FormatContextForLLM(rc *types.ResponseContext) string {
	if rc == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(personality.BuildSystemPrompt("", rc.Personality))

	if rc.UserProfile != nil {
		doc := rc.UserProfile.Document
		fmt.Fprintf(&b, "\nSobre %s:\n", rc.UserProfile.Username)
		if doc != nil {
			fmt.Fprintf(&b, "- Humor predominante: %s\n", doc.Emotions.Predominant)
			if topics := topicNames(doc.Topics, 5); len(topics) > 0 {
				fmt.Fprintf(&b, "- Assuntos frequentes: %s\n", strings.Join(topics, ", "))
			}
			if len(doc.FrequentExpressions) > 0 {
				limit := len(doc.FrequentExpressions)
				if limit > 5 {
					limit = 5
				}
				fmt.Fprintf(&b, "- Expressões típicas: %s\n", strings.Join(doc.FrequentExpressions[:limit], ", "))
			}
		}
	}

	if rc.ChannelProfile != nil {
		doc := rc.ChannelProfile.Document
		name := rc.ChannelProfile.ChannelName
		if doc != nil && doc.Name != "" {
			name = doc.Name
		}
		fmt.Fprintf(&b, "\nSobre o canal %s:\n", name)
		if doc != nil {
			fmt.Fprintf(&b, "- Tom predominante: %s\n", doc.Tone.Predominant)
			if len(doc.RecurringThemes) > 0 {
				limit := len(doc.RecurringThemes)
				if limit > 5 {
					limit = 5
				}
				fmt.Fprintf(&b, "- Temas recorrentes: %s\n", strings.Join(doc.RecurringThemes[:limit], ", "))
			}
		}
	}

	if len(rc.RecentInteractions) > 0 {
		b.WriteString("\nConversa recente (mais nova primeiro):\n")
		for _, in := range rc.RecentInteractions {
			fmt.Fprintf(&b, "- %s: %s\n", in.UserID, in.ContentSummary)
		}
	}

	return b.String()
}

func topicNames(topics []types.TopicRelevance, limit int) []string {
	sorted := make([]types.TopicRelevance, len(topics))
	copy(sorted, topics)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Relevance != sorted[j].Relevance {
			return sorted[i].Relevance > sorted[j].Relevance
		}
		return sorted[i].Topic < sorted[j].Topic
	})

	names := make([]string, 0, limit)
	for _, tr := range sorted {
		names = append(names, tr.Topic)
		if len(names) == limit {
			break
		}
	}
	return names
}
