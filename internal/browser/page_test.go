package browser

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandle - JS-хэндл без браузера: всё, что не переопределено, паникует.
type fakeHandle struct {
	playwright.JSHandle
	el       playwright.ElementHandle
	infos    []interface{}
	props    map[string]playwright.JSHandle
	disposed bool
}

func (h *fakeHandle) AsElement() playwright.ElementHandle { return h.el }
func (h *fakeHandle) Dispose() error                      { h.disposed = true; return nil }

func (h *fakeHandle) Evaluate(string, ...interface{}) (interface{}, error) {
	return h.infos, nil
}

func (h *fakeHandle) GetProperties() (map[string]playwright.JSHandle, error) {
	return h.props, nil
}

type fakeElement struct {
	playwright.ElementHandle
	form     playwright.JSHandle
	disposed bool
}

func (e *fakeElement) Dispose() error { e.disposed = true; return nil }

func (e *fakeElement) EvaluateHandle(string, ...interface{}) (playwright.JSHandle, error) {
	return e.form, nil
}

func TestPageDocument_HandleLifecycle(t *testing.T) {
	first, second := &fakeElement{}, &fakeElement{}
	text, length := &fakeHandle{}, &fakeHandle{}
	arr := &fakeHandle{
		infos: []interface{}{
			map[string]interface{}{"tag": "a"},
			map[string]interface{}{"tag": "button"},
		},
		props: map[string]playwright.JSHandle{
			"1":      &fakeHandle{el: second},
			"0":      &fakeHandle{el: first},
			"2":      text,
			"length": length,
		},
	}

	d := &pageDocument{}
	els, err := d.collectElements(arr)
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.Equal(t, "a", els[0].TagName())
	assert.Equal(t, "button", els[1].TagName())

	assert.True(t, text.disposed)
	assert.True(t, length.disposed)
	assert.False(t, first.disposed)

	d.release()
	assert.True(t, first.disposed)
	assert.True(t, second.disposed)
	assert.Empty(t, d.handles)
}

func TestPageElement_FormWithoutFormDisposesHandle(t *testing.T) {
	null := &fakeHandle{}
	d := &pageDocument{}
	el := &pageElement{doc: d, h: &fakeElement{form: null}}

	assert.Nil(t, el.Form())
	assert.True(t, null.disposed)
	assert.Empty(t, d.handles)

	form := &fakeElement{}
	el = &pageElement{doc: d, h: &fakeElement{form: &fakeHandle{el: form}}}
	require.NotNil(t, el.Form())
	d.release()
	assert.True(t, form.disposed)
}
