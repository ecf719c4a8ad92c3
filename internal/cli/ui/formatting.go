package ui

import (
	"fmt"
	"strings"
)

// FormatStatus возвращает иконку, цвет и текст для статуса задачи
func FormatStatus(status string) (icon, color, text string) {
	switch status {
	case "completed":
		return IconCheckmark, ColorGreen, "завершена"
	case "failed":
		return IconCross, ColorRed, "ошибка"
	case "running":
		return IconPlay, ColorCyan, "выполняется"
	case "pending":
		return IconClock, ColorYellow, "ожидает"
	default:
		return IconClock, ColorYellow, status
	}
}

// Shorten обрезает строку до n рун с многоточием.
func Shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// ClearScreen очищает терминал
func ClearScreen() {
	fmt.Print("\033[H\033[2J")
}
