package claim

import (
	"fmt"
	"strings"
)

const extractSystemPrompt = `You are an expert at extracting claims from text. Your task is to identify and list all claims present, true or false, in the given text. Each claim should be a verifiable statement. If the input content is very lengthy, then pick the major claims. Don't repeat the same claim. For each claim, also provide the original part of the sentence from which the claim is derived. Present the claims as a JSON array of objects. Each object should have two keys: "claim": the extracted claim in a single verifiable statement, and "original_text": the portion of the original text that supports or contains the claim. Do not include any additional text or commentary. Return the output strictly as a JSON array of objects following this schema: [{"claim": "extracted claim here", "original_text": "original text portion here"}, ...] Output the result as valid JSON, strictly adhering to the defined schema. Ensure there are no markdown codes or additional elements included in the output. Do not add anything else. Return only JSON.`

const verifySystemPrompt = `You are an expert fact-checker. Given a claim and a set of sources, determine whether the claim is true or false based on the text from sources (or if there is insufficient information).

For your analysis, consider all the sources collectively.

Provide your answer as a JSON object with the following structure:
{
  "claim": "...",
  "assessment": "True" or "False" or "Insufficient Information",
  "summary": "Why is this claim correct and if it isn't correct, then what's correct. In a single line.",
  "fixed_original_text": "If the assessment is False then correct the original text (keeping everything as it is and just fix the fact in the part of the text)",
  "confidence_score": a percentage number between 0 and 100 (100 means fully confident that the decision you have made is correct, 0 means you are completely unsure)
}`

func extractUserPrompt(content string) string {
	return "Here is the content: " + content
}

func verifyUserPrompt(c Claim, sources []Evidence) string {
	return fmt.Sprintf("Here are the sources:\n%s\n\nHere is the Original part of the text: %s\n\nHere is the claim: %s",
		FormatSources(sources), c.OriginalText, c.Claim)
}

// FormatSources renders evidence as numbered blocks separated by blank lines.
func FormatSources(sources []Evidence) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("Source %d:\nText: %s\nURL: %s", i+1, s.Text, s.URL)
	}
	return strings.Join(blocks, "\n\n")
}
