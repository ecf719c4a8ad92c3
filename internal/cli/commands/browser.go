package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"onyxAgent/internal/agent"
	"onyxAgent/internal/cli/ui"
	"onyxAgent/internal/executor"
	"onyxAgent/internal/llm"
)

// PageHandler - команды над текущей страницей без цикла агента.
type PageHandler struct {
	agent *agent.Agent
	actor agent.Actor
	out   io.Writer
}

func NewPageHandler(a *agent.Agent, actor agent.Actor, out io.Writer) *PageHandler {
	return &PageHandler{
		agent: a,
		actor: actor,
		out:   out,
	}
}

// Open открывает URL в браузере
func (h *PageHandler) Open(ctx context.Context, url string) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconArrow+" Открытие %s..."+ui.ColorReset+"\n", url)
	out := h.actor.Execute(ctx, llm.Command{Tool: llm.ToolNavigate, Params: llm.Params{"url": url}})
	h.printOutcome(out)
}

// Ask задаёт разовый вопрос о странице. Если модель предложила действие,
// оно выполняется один раз.
func (h *PageHandler) Ask(ctx context.Context, question string) {
	fmt.Fprintln(h.out, ui.ColorCyan+ui.IconRobot+" Запрос к модели..."+ui.ColorReset)
	cmd, err := h.agent.Ask(ctx, question)
	if err != nil {
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" AI Error:"+ui.ColorReset+" %v\n", err)
		return
	}

	if cmd.Thought != "" {
		fmt.Fprintln(h.out, ui.ColorPurple+ui.IconThought+" "+cmd.Thought+ui.ColorReset)
	}
	if cmd.Tool.Terminal() {
		fmt.Fprintln(h.out, ui.ColorBold+ui.ColorGreen+ui.IconChat+" "+cmd.Text()+ui.ColorReset)
		return
	}

	fmt.Fprintf(h.out, ui.ColorYellow+"⚡ %s"+ui.ColorReset+"\n", cmd.Encode())
	h.printOutcome(h.actor.Execute(ctx, cmd))
}

func (h *PageHandler) printOutcome(out executor.Outcome) {
	switch out.Kind {
	case executor.KindOK:
		fmt.Fprintln(h.out, ui.ColorGreen+out.Summary()+ui.ColorReset)
	case executor.KindNotFound:
		fmt.Fprintln(h.out, ui.ColorYellow+"🔍 "+out.Text+ui.ColorReset)
	default:
		fmt.Fprintln(h.out, ui.ColorRed+out.Summary()+ui.ColorReset)
	}
}
