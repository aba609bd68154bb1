package ai

import (
	"fmt"
	"strings"

	"github.com/castlebay/notedown/internal/ai/provider"
)

// Action names a writing operation the model performs.
type Action string

const (
	ActionContinue   Action = "continue"
	ActionSummarize  Action = "summarize"
	ActionImprove    Action = "improve"
	ActionShorten    Action = "shorten"
	ActionExpand     Action = "expand"
	ActionRephrase   Action = "rephrase"
	ActionFormal     Action = "formal"
	ActionCasual     Action = "casual"
	ActionBrainstorm Action = "brainstorm"
	ActionFixGrammar Action = "fix-grammar"
	ActionCustom     Action = "custom"
)

// consumesSelection reports whether the action rewrites selected text
// rather than continuing after it.
func (a Action) consumesSelection() bool {
	switch a {
	case ActionSummarize, ActionImprove, ActionShorten, ActionExpand,
		ActionRephrase, ActionFormal, ActionCasual, ActionBrainstorm,
		ActionFixGrammar, ActionCustom:
		return true
	}
	return false
}

const systemPrompt = `You are a writing assistant inside a note-taking editor.
Write directly usable text: no preamble, no commentary, no surrounding quotes.
Use markdown only for structure the user would keep (headings, lists, code fences).`

const structuredSystemPrompt = `You are a writing assistant inside a note-taking editor.
Respond with a single JSON object of the form
{"blocks": [{"kind": "paragraph", "text": "..."}]}.
Valid kinds: paragraph, heading (with "level" 1-3), bullet-list,
ordered-list, task-list (items with "text" and "checked"), blockquote,
code-block (with "language"), divider. No text outside the JSON object.`

var actionTemplates = map[Action]string{
	ActionContinue:   "Continue the following text naturally:\n\n%s",
	ActionSummarize:  "Summarize the following text concisely:\n\n%s",
	ActionImprove:    "Improve the clarity and flow of the following text, keeping its meaning:\n\n%s",
	ActionShorten:    "Rewrite the following text to be shorter without losing substance:\n\n%s",
	ActionExpand:     "Expand the following text with more detail:\n\n%s",
	ActionRephrase:   "Rephrase the following text in different words, keeping its meaning:\n\n%s",
	ActionFormal:     "Rewrite the following text in a more formal tone:\n\n%s",
	ActionCasual:     "Rewrite the following text in a more casual tone:\n\n%s",
	ActionBrainstorm: "Brainstorm ideas that build on the following text, as a list:\n\n%s",
	ActionFixGrammar: "Fix spelling and grammar in the following text, changing nothing else:\n\n%s",
}

// PromptInput collects everything a generation prompt is built from.
type PromptInput struct {
	// Action selects the operation.
	Action Action

	// Context is document text around the cursor, used by continue.
	Context string

	// Selection is the selected text a rewriting action operates on.
	Selection string

	// Instruction is the user's free-form instruction for ActionCustom
	// and for modify rounds.
	Instruction string

	// PreviousDraft is the suggestion being revised in a modify round.
	PreviousDraft string

	// Structured asks for the JSON block payload.
	Structured bool

	// MaxTokens bounds the response; 0 uses the provider default.
	MaxTokens int
}

// BuildPrompt renders the input into a provider request.
func BuildPrompt(in PromptInput) provider.Request {
	req := provider.Request{
		System:     systemPrompt,
		Structured: in.Structured,
		MaxTokens:  in.MaxTokens,
	}
	if in.Structured {
		req.System = structuredSystemPrompt
	}

	switch {
	case in.PreviousDraft != "":
		var b strings.Builder
		fmt.Fprintf(&b, "You previously drafted:\n\n%s\n\n", in.PreviousDraft)
		if in.Instruction != "" {
			fmt.Fprintf(&b, "Revise the draft: %s", in.Instruction)
		} else {
			b.WriteString("Revise the draft to improve it.")
		}
		req.Prompt = b.String()
	case in.Action == ActionCustom:
		var b strings.Builder
		b.WriteString(in.Instruction)
		if in.Selection != "" {
			fmt.Fprintf(&b, "\n\nApply this to the following text:\n\n%s", in.Selection)
		}
		req.Prompt = b.String()
	case in.Action.consumesSelection():
		req.Prompt = fmt.Sprintf(actionTemplates[in.Action], in.Selection)
	default:
		req.Prompt = fmt.Sprintf(actionTemplates[ActionContinue], in.Context)
	}
	return req
}
