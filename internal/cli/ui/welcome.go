package ui

import (
	"fmt"
	"io"
	"os"
)

// PrintWelcome выводит приветствие и лого
func PrintWelcome(w io.Writer, engine string, models []string) {
	logoBytes, err := os.ReadFile("logo.txt")
	if err == nil {
		fmt.Fprintln(w, ColorCyan+string(logoBytes)+ColorReset)
	}
	fmt.Fprintln(w, ColorBold+IconRobot+" Onyx Agent v0.2.0"+ColorReset)
	fmt.Fprintln(w, ColorGray+"Автономный агент для работы со страницами в браузере"+ColorReset)
	if len(models) > 0 {
		fmt.Fprintf(w, ColorGray+"Браузер: %s, модель: %s (+%d резервных)"+ColorReset+"\n", engine, models[0], len(models)-1)
	}
	fmt.Fprintln(w)
	PrintHelp(w)
	fmt.Fprintln(w, ColorCyan+IconBulb+" Совет:"+ColorReset+" "+ColorYellow+"go"+ColorReset+" <цель> запускает агента сразу, "+ColorYellow+"Ctrl+C"+ColorReset+" останавливает прогон")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ColorGray+"⬆️ ⬇️"+ColorReset+" Используйте стрелки для навигации по истории команд")
	fmt.Fprintln(w)
}

// PrintHelp выводит список доступных команд
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, ColorYellow+IconList+" Доступные команды:"+ColorReset)
	fmt.Fprintln(w, "  "+ColorGreen+"go"+ColorReset+" <цель>          - Создать задачу и сразу выполнить")
	fmt.Fprintln(w, "  "+ColorGreen+"task"+ColorReset+" <цель>        - Создать новую задачу")
	fmt.Fprintln(w, "  "+ColorGreen+"tasks"+ColorReset+"               - Список всех задач")
	fmt.Fprintln(w, "  "+ColorGreen+"run"+ColorReset+" <id>            - Выполнить задачу")
	fmt.Fprintln(w, "  "+ColorGreen+"show"+ColorReset+" <id>           - Детали задачи и шаги")
	fmt.Fprintln(w, "  "+ColorGreen+"logs"+ColorReset+" <id>           - LLM логи задачи")
	fmt.Fprintln(w, "  "+ColorGreen+"ask"+ColorReset+" <вопрос>        - Разовый вопрос о текущей странице")
	fmt.Fprintln(w, "  "+ColorGreen+"open"+ColorReset+" <url>          - Открыть URL в браузере")
	fmt.Fprintln(w, "  "+ColorGreen+"stop"+ColorReset+"                - Остановить прогон (или Ctrl+C)")
	fmt.Fprintln(w, "  "+ColorGreen+"clear"+ColorReset+"               - Очистить экран")
	fmt.Fprintln(w, "  "+ColorGreen+"exit"+ColorReset+"                - Выход")
	fmt.Fprintln(w)
}
