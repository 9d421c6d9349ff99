package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationMessage is one turn of a conversation. Order within a slice is chronological.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Messages []ConversationMessage `json:"messages"`
}

// ChatResponse is a successful chat turn.
type ChatResponse struct {
	Message        string `json:"message"`
	QuestionsAsked int    `json:"questionsAsked"`
	MaxQuestions   int    `json:"maxQuestions"`
}

// QuotaExceededResponse is returned with 429 once the daily quota is used up.
type QuotaExceededResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	QuestionsAsked int    `json:"questionsAsked"`
	MaxQuestions   int    `json:"maxQuestions"`
}

// ChatUsage reports today's consumption for the caller.
type ChatUsage struct {
	QuestionsAsked int `json:"questionsAsked"`
	MaxQuestions   int `json:"maxQuestions"`
}
