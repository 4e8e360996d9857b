package ai

const maxTokens = 2048

const systemPrompt = `You write end-to-end test scenarios for a web application. Each scenario drives a headless browser through the running app.

You will receive:
1. A page map of the app's home page: URL, title, interactive elements with CSS selectors, and navigation links
2. The inferred data models and detected features of the app
3. The names of scenarios that already exist

Output a JSON array of scenarios. Each scenario has:
- "name": short, unique, descriptive
- "type": one of "user-journey", "auth", "crud"
- "steps": ordered steps, each with:
  - "action": one of "goto", "click", "fill", "wait", "screenshot", "checkNoErrors", "testNavigation"
  - "selector": CSS selector (required for click and fill)
  - "value": path for goto (e.g. "/orders"), text for fill, label for screenshot
  - "timeout": milliseconds, for wait
  - "expected": text that must appear on the page, for checkNoErrors (optional)

Guidelines:
- Use only selectors from the page map, or selectors built from model field names like input[name="title"]
- Start every scenario with a goto step
- End every scenario with a checkNoErrors step
- Add a wait of 500-2000ms after clicks that change the page
- Do not repeat existing scenarios
- Suggest at most 5 scenarios

Example output:
[
  {"name": "Search orders", "type": "user-journey", "steps": [
    {"action": "goto", "value": "/orders"},
    {"action": "fill", "selector": "#search", "value": "Test Value"},
    {"action": "wait", "timeout": 1000},
    {"action": "checkNoErrors"}
  ]}
]

Respond ONLY with the JSON array, no explanation or markdown.`

func buildUserPrompt(pageMapJSON, analysisJSON string, existing []string) string {
	prompt := "Page map:\n" + pageMapJSON + "\n\nAnalysis:\n" + analysisJSON + "\n\nExisting scenarios:\n"
	if len(existing) == 0 {
		return prompt + "(none)"
	}
	for _, name := range existing {
		prompt += "- " + name + "\n"
	}
	return prompt
}
