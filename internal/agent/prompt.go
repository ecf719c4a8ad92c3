package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const systemPrompt = `You are Onyx Lite. You help users navigate the web. Perform simple actions: clicking links, typing searches, or summarizing visible text. Keep responses short and JSON-only.

OUTPUT ONLY a JSON object. No text before or after.
{"thought":"brief reasoning","tool":"tool_name","params":{}}

TOOLS:
- navigate: {"tool":"navigate","params":{"url":"https://..."}}
- type: {"tool":"type","params":{"selector":"search","text":"query"}} — Auto-submits with Enter. Do NOT click Search after typing.
- click: {"tool":"click","params":{"selector":"visible button text"}}
- scroll: {"tool":"scroll","params":{"direction":"down"}}
- scrape: {"tool":"scrape","params":{"selector":"h1"}}
- highlight: {"tool":"highlight","params":{"selector":"price"}}
- read-summary: {"tool":"read-summary","params":{}}
- answer: {"tool":"answer","params":{"text":"final answer"}} — Use ONLY when done.

RULES:
1. Type BEFORE clicking any search button. Type auto-submits.
2. After navigating, interact with the page — don't answer immediately.
3. Read the PAGE TEXT to find information — you often don't need to scrape.
4. Keep thoughts to one short sentence.`

const (
	correctiveTurn = `Invalid JSON. Reply with ONLY: {"thought":"...","tool":"...","params":{}}`
	blockedTurn    = "BLOCKED: Type your query first, then the form auto-submits. Don't click search."
	navigateHint   = "\nPage loaded. Now interact — type, click, or read. Do NOT answer yet."
	lastStepHint   = "\nLAST STEP — answer now with whatever you have."

	unreadablePage = "[Could not read page]"
	emptyPage      = "[Empty page]"

	parseApology = "I couldn't parse the AI response. Please try again."
)

// searchWords - признаки кнопки поиска/отправки. Эвристика: ловит и ссылки
// вроде "Search settings".
var searchWords = []string{"search", "go", "submit", "find"}

func stepTurn(page, goal string, step, maxSteps int) string {
	turn := fmt.Sprintf("PAGE TEXT:\n\"%s\"\n\nGOAL: \"%s\"\nSTEP: %d/%d", page, goal, step, maxSteps)
	if step == maxSteps {
		turn += lastStepHint
	}
	return turn
}

func quickTurn(page, request string) string {
	return fmt.Sprintf("PAGE CONTENT:\n\"%s\"\n\nUSER REQUEST: %s", page, request)
}

func looksLikeSearchControl(target string) bool {
	target = strings.ToLower(target)
	for _, w := range searchWords {
		if strings.Contains(target, w) {
			return true
		}
	}
	return false
}

func clip(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
