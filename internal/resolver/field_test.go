package resolver

import (
	"testing"

	"onyxAgent/internal/dom/htmldoc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formPage = `<body>
<div id="q-wrapper" class="search"></div>
<input id="email" name="user_email" placeholder="E-mail" style="width:200px;height:30px">
<input id="agree" type="checkbox" name="search_agree">
<input id="hidden-q" type="hidden" name="search">
<input id="small" type="search" style="width:40px;height:20px">
<textarea id="notes" style="width:300px;height:200px"></textarea>
<div id="editor" contenteditable="true" aria-label="Message body"></div>
</body>`

func TestSelectField(t *testing.T) {
	doc := htmldoc.MustParse(formPage)

	tests := []struct {
		name     string
		target   string
		id       string
		strategy string
	}{
		{"exact input", "#email", "email", FieldExact},
		{"exact skips containers", "#q-wrapper", "notes", FieldLargest},
		{"exact contenteditable", "#editor", "editor", FieldExact},
		{"attribute by placeholder", "e-mail", "email", FieldAttr},
		{"attribute by aria-label", "Message", "editor", FieldAttr},
		{"attribute skips hidden and checkbox", "search", "small", FieldAttr},
		{"largest visible", "comment box", "notes", FieldLargest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pick, err := SelectField(doc, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, pick.Strategy)
			assert.Equal(t, tt.id, pick.Element.Attr("id"))
		})
	}
}

func TestSelectField_NoField(t *testing.T) {
	doc := htmldoc.MustParse(`<body><button>Only a button</button><input type="text" style="width:30px;height:8px"></body>`)

	_, err := SelectField(doc, "query")
	assert.ErrorIs(t, err, ErrNoField)
}
