package judge

import (
	"fmt"
	"strings"

	_ "embed"
)

//go:embed prompt.md
var promptTemplate string

// RepairInstruction is appended to the prompt when a provider's previous
// response failed structural validation.
const RepairInstruction = "Your previous reply was not a valid JSON object matching the schema. " +
	"Respond again with only the JSON object. No prose, no markdown fences."

// BuildPrompt renders the shared evaluation prompt. All provider adapters use
// the same prompt so judge outputs stay structurally comparable.
func BuildPrompt(req *Request, repair string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job Description:\n{{JD_TEXT}}\n\nCandidate CV:\n{{CV_TEXT}}{{GUIDANCE}}{{REPAIR}}\n\nJSON Response:"
	}

	guidance := ""
	if g := strings.TrimSpace(req.Guidance); g != "" {
		guidance = fmt.Sprintf("\n\n**Special Guidance:** %s", g)
	}

	repairBlock := ""
	if r := strings.TrimSpace(repair); r != "" {
		repairBlock = fmt.Sprintf("\n\n**Correction:** %s", r)
	}

	prompt := strings.ReplaceAll(template, "{{JD_TEXT}}", req.JDText)
	prompt = strings.ReplaceAll(prompt, "{{CV_TEXT}}", req.CVText)
	prompt = strings.ReplaceAll(prompt, "{{GUIDANCE}}", guidance)
	prompt = strings.ReplaceAll(prompt, "{{REPAIR}}", repairBlock)

	return prompt
}
