// Package prompt composes role-tagged message sequences for the chat
// model. Document context and web-search context are never mixed in one
// prompt; the caller picks exactly one builder per turn.
package prompt

import "fmt"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// historyWindow bounds how many prior messages are carried into a turn.
const historyWindow = 6

const documentSystem = `You are a helpful assistant that answers questions based on the provided context.

Instructions:
- Use the context below to answer the user's question
- If the answer is not in the context, say "I don't have enough information in the loaded documents to answer that question."
- Cite the source document when possible
- Be concise and accurate`

const searchSystem = `You are a helpful assistant with access to web search results.

Instructions:
- Use the web search results provided to answer the user's question
- Cite sources by mentioning the website name or URL when relevant
- If the search results don't contain enough information, say so
- Provide accurate, up-to-date information based on the search results
- Be concise but thorough`

const plainSystem = `You are a helpful assistant.`

// BuildDocumentPrompt composes a turn grounded in retrieved document
// context.
func BuildDocumentPrompt(docContext, question, factContext string, history []Message) []Message {
	user := fmt.Sprintf("Context from documents:\n%s\n\n---\n\nQuestion: %s", docContext, question)
	return compose(documentSystem, factContext, history, user)
}

// BuildSearchPrompt composes a turn grounded in formatted web search
// results.
func BuildSearchPrompt(searchContext, question, factContext string, history []Message) []Message {
	user := fmt.Sprintf("%s\n---\n\nQuestion: %s", searchContext, question)
	return compose(searchSystem, factContext, history, user)
}

// BuildPlainPrompt composes an unaugmented turn.
func BuildPlainPrompt(question, factContext string, history []Message) []Message {
	return compose(plainSystem, factContext, history, question)
}

func compose(system, factContext string, history []Message, user string) []Message {
	if factContext != "" {
		system = system + "\n\n" + factContext
	}

	messages := []Message{{Role: RoleSystem, Content: system}}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	messages = append(messages, history...)

	return append(messages, Message{Role: RoleUser, Content: user})
}
