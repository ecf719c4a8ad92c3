package dom

// ValueWriter записывает значение в поле так, чтобы это заметила собственная
// логика страницы (обработчики фреймворков, перехватывающих запись свойства).
type ValueWriter interface {
	WriteValue(el Element, text string) error
}

// ValueSetter - элемент, умеющий принять значение прямым присваиванием.
type ValueSetter interface {
	SetValue(text string) error
}

// AssignWriter - простое присваивание value.
type AssignWriter struct{}

func (AssignWriter) WriteValue(el Element, text string) error {
	s, ok := el.(ValueSetter)
	if !ok {
		return ErrNotWritable
	}
	return s.SetValue(text)
}

// FallbackWriter пробует писатели по порядку до первого успешного.
type FallbackWriter []ValueWriter

func (f FallbackWriter) WriteValue(el Element, text string) error {
	err := ErrNotWritable
	for _, w := range f {
		if err = w.WriteValue(el, text); err == nil {
			return nil
		}
	}
	return err
}
