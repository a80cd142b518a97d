package answer

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are %s, an expert analyst answering questions about %s.
Your only source of truth is the DOCUMENT supplied with each question.
Be precise and never invent information that is not in the DOCUMENT.
When the DOCUMENT only partly supports an answer, say what it supports and state the uncertainty rather than asserting.`

const groundingPromptTemplate = `### INSTRUCTIONS ###
1. Analyse the DOCUMENT below to answer the QUESTION.
2. If the answer is not present in the DOCUMENT, reply exactly: "%s" and nothing else.
3. Never use general knowledge or anything that is not in the DOCUMENT.
4. Answer concisely, in a structured and brief way.

### DOCUMENT ###
%s

### QUESTION ###
%s

### ANSWER ###
`

func systemPrompt(p Persona) string {
	return fmt.Sprintf(systemPromptTemplate, p.Name, p.Domain)
}

func groundingPrompt(p Persona, contextBlock, question string) string {
	return fmt.Sprintf(groundingPromptTemplate, p.Refusal, contextBlock, strings.TrimSpace(question))
}
