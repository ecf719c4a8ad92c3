package browser

import "onyxAgent/internal/dom"

// NativeSetterWriter пишет value через сеттер прототипа HTMLInputElement
// (HTMLTextAreaElement, HTMLSelectElement), чтобы контролируемые поля
// фреймворков увидели изменение. Для остальных элементов, в том числе из
// других движков, возвращает dom.ErrNotWritable.
type NativeSetterWriter struct{}

func (NativeSetterWriter) WriteValue(el dom.Element, text string) error {
	pe, ok := el.(*pageElement)
	if !ok {
		return dom.ErrNotWritable
	}
	return pe.write(nativeSetValue, text)
}

// DefaultWriter - сеттер прототипа, затем простое присваивание.
func DefaultWriter() dom.ValueWriter {
	return dom.FallbackWriter{NativeSetterWriter{}, dom.AssignWriter{}}
}
