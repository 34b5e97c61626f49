package chat

import (
	"fmt"
	"strings"

	"github.com/nyaysahay/nyaysahay/pkg/ai"
	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

// personaInstruction is the fixed behavioral preamble passed to the
// generation model as the system instruction for every request.
const personaInstruction = `You are JusticeAI, an intelligent legal assistant for the NyaySahay platform. Your mission is to help citizens understand their legal rights and provide guidance on legal matters in India.

**Your Role:**
- Provide clear, accurate legal information based on Indian law
- Help users understand their constitutional rights
- Guide users on legal procedures and remedies
- Explain legal concepts in simple, understandable language
- Suggest appropriate legal actions when needed

**Guidelines:**
- Always clarify that you provide legal information, not legal advice
- Recommend consulting with qualified advocates for specific legal matters
- Be empathetic and supportive, especially for victims of injustice
- Use simple language and avoid complex legal jargon
- Provide step-by-step guidance when explaining procedures
- Include relevant legal sections/acts when applicable
- Be culturally sensitive and aware of Indian legal context

**For Clients:** Help them understand their rights, legal options, and connect them with advocates
**For Advocates:** Provide legal research assistance, case law references, and procedural guidance

Always be professional, helpful, and encouraging. Maintain the seriousness of legal matters.`

// contextBlock builds the per-request context preamble: who the user is plus
// the text of the nearest long-term memory hits, most similar first.
func contextBlock(principalRole string, memoryTexts []string) string {
	userRole := "citizen"
	if principalRole == models.RoleAdvocate {
		userRole = "legal professional"
	}

	return fmt.Sprintf(`<|context|>
You are JusticeAI, an AI legal assistant for NyaySahay platform. The user is a %s.

Relevant information from past conversations:
%s
<|/context|>

<|conversation|>`, userRole, strings.Join(memoryTexts, "\n"))
}

// assemblePrompt injects the context preamble into the conversation window.
// The generation API requires the turn sequence to begin with a user turn: if
// the oldest turn already is one, the preamble is prepended to its text,
// otherwise a synthetic leading user turn carries it alone. The input slice is
// not modified.
func assemblePrompt(window []ai.Turn, preamble string) []ai.Turn {
	if len(window) > 0 && window[0].Role == models.MessageRoleUser {
		turns := make([]ai.Turn, len(window))
		copy(turns, window)
		turns[0].Text = preamble + "\n" + turns[0].Text
		return turns
	}

	turns := make([]ai.Turn, 0, len(window)+1)
	turns = append(turns, ai.Turn{Role: models.MessageRoleUser, Text: preamble})
	return append(turns, window...)
}
