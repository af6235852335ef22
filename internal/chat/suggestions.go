package chat

var suggestions = []string{
	"Explain quantum computing in simple terms",
	"Write a Python function to sort a list",
	"What are the benefits of meditation?",
	"Help me plan a weekend trip to Paris",
}

// Suggestions devuelve los prompts sugeridos para una conversacion vacia.
func Suggestions() []string {
	return append([]string(nil), suggestions...)
}
