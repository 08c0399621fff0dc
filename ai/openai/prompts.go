package openai

import (
	"fmt"
	"strings"

	"github.com/docmesh/docmesh/ai"
)

const recognitionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string"
          },
          "type": {
            "type": "string"
          }
        },
        "required": ["name", "type"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities"],
  "additionalProperties": false
}`

const recognitionPromptTemplate = `Extract the named entities mentioned in the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Entity names must be copied verbatim from the text, preserving capitalization.
- Type field must match exactly one of the listed values: %s.
- Include only entities that are explicitly mentioned in the text. Do not hallucinate.
- List each distinct entity once, even if it appears several times.
- If no entities can be identified, return "entities": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Sara bought tomatoes at the market in Lyon."
Output:
{
  "entities": [
    {"name":"Sara","type":"person"},
    {"name":"Lyon","type":"place"}
  ]
}

Example (organization and date):
Input: "Acme Corp filed the report on 12 March 2024."
Output:
{
  "entities": [
    {"name":"Acme Corp","type":"organization"},
    {"name":"12 March 2024","type":"date"}
  ]
}

Example (nothing to extract):
Input: "it rained all afternoon"
Output:
{
  "entities": []
}`

// buildRecognizerPrompt creates the system prompt with entity types embedded.
func buildRecognizerPrompt() string {
	return fmt.Sprintf(recognitionPromptTemplate,
		recognitionResponseSchema,
		strings.Join(ai.EntityTypes, ", "))
}
