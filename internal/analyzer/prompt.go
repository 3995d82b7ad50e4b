// internal/analyzer/prompt.go
package analyzer

import (
	"fmt"

	"github.com/xkilldash9x/logwarden/api/schemas"
)

const systemPrompt = `You are an expert log analyst. You identify the root cause of errors in application and server logs and give specific, practical remediation. Always answer with a single JSON object in the requested format.`

// buildUserPrompt renders the analysis request for already reduced content.
func buildUserPrompt(format schemas.LogFormat, content string) string {
	return fmt.Sprintf(`Analyze the following %s logs and provide a structured analysis.

Log Content:
`+"```"+`
%s
`+"```"+`

**Response Format (Strict JSON):**
{
  "rootCause": "Brief explanation of the main issue identified",
  "confidence": 85,
  "suggestedFixes": ["specific", "actionable", "solutions"],
  "relatedErrors": ["related error messages or patterns"],
  "followUpQuestions": ["questions that would help debug further"],
  "metadata": {
    "errorType": "type of error, e.g. runtime, configuration, network, database",
    "severity": "one of: low, medium, high, critical",
    "lineNumbers": [1, 2, 3],
    "stackTrace": "extracted stack trace if available"
  }
}

"confidence" is an integer between 0 and 100.

Focus on:
1. Identifying the root cause of errors
2. Providing actionable solutions
3. Extracting relevant context and patterns
4. Assessing the severity and impact
5. Suggesting follow-up investigations

If multiple errors are present, focus on the most critical ones.`, format, content)
}
