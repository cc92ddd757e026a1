package models

const (
	// keys used in chunk metadata
	MetaPageKey   = "page"
	MetaSourceKey = "source"

	// answer degradation markers, kept identical to what callers already parse
	ModelErrorMarker        = "❌ Error from model: "
	UnexpectedFormatMarker  = "⚠️ Unexpected response format: "
	GenerationFailureMarker = "❌ Exception while parsing response: "
)

var (
	AnswerPromptTemplate = `You are a helpful assistant specialized in financial documents.
Use the following context to answer the user's question accurately.

Context:
%s

Question: %s
Answer:`
)
