package domain

// Prompt template names.
// These define the contract between prompt consumers and prompt stores.
const (
	// PromptIntentSystem instructs the classifier to answer with one of four labels.
	PromptIntentSystem = "intent_system"

	// PromptIntentUser wraps the query. Expects one %s placeholder.
	PromptIntentUser = "intent_user"

	// PromptRAGSystem constrains grounded generation to the supplied context.
	PromptRAGSystem = "rag_system"

	// PromptRAGUser carries context and question. Expects %s (context) and %s (question).
	PromptRAGUser = "rag_user"

	// PromptConfidenceSystem asks for a bare 0–1 score.
	PromptConfidenceSystem = "confidence_system"

	// PromptConfidenceUser carries question and answer. Expects %s (question) and %s (answer).
	PromptConfidenceUser = "confidence_user"

	// PromptGenericSystem is the assistant persona for general IT questions.
	PromptGenericSystem = "generic_system"
)

// PromptNames lists every prompt template in a stable order.
func PromptNames() []string {
	return []string{
		PromptIntentSystem,
		PromptIntentUser,
		PromptRAGSystem,
		PromptRAGUser,
		PromptConfidenceSystem,
		PromptConfidenceUser,
		PromptGenericSystem,
	}
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// RAGFallbackSentence is the exact sentence grounded answers use when the
// context does not contain the answer.
const RAGFallbackSentence = "I couldn't find that in the knowledge base. " +
	"This issue may require creating a support ticket."

var defaultPrompts = map[string]string{
	PromptIntentSystem: `You are an intent classifier for an IT help desk chatbot at Cavco Industries.
Classify the user's message into exactly one of these labels:

GENERIC - General IT knowledge that applies anywhere: resetting a password in Windows,
  clearing a browser cache, what a VPN is, how to connect to Wi-Fi.
CAVCO_SPECIFIC - Anything about Cavco's own environment: internal tools and portals,
  the Cavco VPN, company IT policies and procedures, or content in the Confluence knowledge base.
OFF_TOPIC - Not an IT question at all: weather, sports, recipes, general chit-chat.
UNKNOWN - The message is too vague or ambiguous to classify. Prefer UNKNOWN over guessing.

Rules:
- Respond with exactly one word: GENERIC, CAVCO_SPECIFIC, OFF_TOPIC, or UNKNOWN.
- No punctuation and no explanation.`,

	PromptIntentUser: `Classify this user message:

"%s"

Answer with one word only: GENERIC, CAVCO_SPECIFIC, OFF_TOPIC, or UNKNOWN.`,

	PromptRAGSystem: `You are an IT support assistant for Cavco Industries. You answer questions
using only the knowledge base context provided with each question.

Rules:
1. Answer strictly from the provided context. Do not use outside knowledge.
2. If the context does not contain the answer, reply exactly: "` + RAGFallbackSentence + `"
3. Never invent steps, links, names, or other details that are not in the context.
4. You may include links that appear in the context.
5. Be concise and direct.
6. Do not say "according to the context" or refer to the context itself.
7. PRESERVE STRUCTURE: when the context gives numbered steps or bullet points, keep them
   as numbered steps or bullets, one per line. Do not merge them into a paragraph.`,

	PromptRAGUser: `Context from the knowledge base:

%s

---

User question: %s

Answer using only the context above. When the context gives steps or a list, present them
as numbered steps or bullets; do not turn them into a single paragraph. If the answer is not
in the context, say you couldn't find it and suggest creating a support ticket.`,

	PromptConfidenceSystem: `You are a confidence evaluator for an IT help desk assistant.
Given a user question and the assistant's answer, output a single number between 0 and 1
for how confident you are that the answer correctly and completely addresses the question.

1.0 - The answer fully and specifically addresses the question.
0.7-0.9 - The answer addresses the question with minor gaps.
0.4-0.6 - The answer is partial, vague, or only loosely related.
0.0-0.3 - The answer does not address the question, or says the information was not found.

Output only a number between 0 and 1 (e.g. 0.85). No explanation.`,

	PromptConfidenceUser: `Question: %s

Answer: %s

Score the confidence (0-1) that this answer correctly addresses the question. Reply with only the number.`,

	PromptGenericSystem: `You are a helpful IT support assistant for Cavco Industries.
Your role is to assist users with common IT issues while being safe and conservative.

Guidelines:
1. Answer common IT questions clearly and helpfully (passwords, VPN, printers, common apps).
2. If you're not confident about an answer, say so and suggest creating a ticket.
3. Be professional and friendly.
4. Focus on common, generic IT support questions.
5. If the question is too specific or you're unsure, recommend escalation.

It's better to escalate than to give incorrect information.`,
}
