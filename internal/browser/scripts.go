package browser

// describeElement снимает всё, что читают резолвер и исполнитель, за один
// вызов.
const describeElement = `(e) => {
	const r = e.getBoundingClientRect();
	const attrs = {};
	for (const a of Array.from(e.attributes || [])) attrs[a.name.toLowerCase()] = a.value;
	const tag = (e.tagName || '').toLowerCase();
	const formish = tag === 'input' || tag === 'select' || tag === 'textarea';
	const value = e.value == null ? '' : String(e.value);
	return {
		tag,
		type: typeof e.type === 'string' ? e.type : '',
		attrs,
		direct: Array.from(e.childNodes)
			.filter(n => n.nodeType === Node.TEXT_NODE)
			.map(n => n.textContent.trim())
			.filter(Boolean)
			.join(' '),
		text: formish ? '' : (typeof e.innerText === 'string' ? e.innerText.trim() : ''),
		value,
		editable: !!e.isContentEditable,
		x: r.x, y: r.y, w: r.width, h: r.height,
		shadow: !!e.shadowRoot,
	};
}`

const (
	queryDocument = `(sel) => Array.from(document.querySelectorAll(sel))`
	queryRoot     = `(root, sel) => Array.from(root.querySelectorAll(sel))`
	describeAll   = `(els) => els.map(` + describeElement + `)`
	shadowOf      = `(e) => e.shadowRoot`
	formOf        = `(e) => e.form || e.closest('form')`

	bodyText   = `() => document.body ? document.body.innerText : ''`
	readScroll = `() => ({
		y: window.scrollY,
		inner: window.innerHeight,
		height: document.documentElement.scrollHeight,
	})`
	scrollTo = `(y) => window.scrollTo(0, y)`
)

// Мутации возвращают false для отсоединённого элемента.
const (
	clickElement  = `(e) => { if (!e.isConnected) return false; e.click(); return true; }`
	focusElement  = `(e) => { if (!e.isConnected) return false; e.focus(); return true; }`
	scrollElement = `(e) => {
		if (!e.isConnected) return false;
		e.scrollIntoView({behavior: 'smooth', block: 'center'});
		return true;
	}`
	dispatchEvent = `(e, ev) => {
		if (!e.isConnected) return false;
		const init = {bubbles: true, cancelable: true};
		const event = ev.key
			? new KeyboardEvent(ev.type, {...init, key: ev.key, code: ev.code, keyCode: ev.keyCode, which: ev.keyCode})
			: new Event(ev.type, init);
		e.dispatchEvent(event);
		return true;
	}`
	// null - формы нет.
	submitForm = `(e) => {
		if (!e.isConnected) return false;
		const f = e.tagName === 'FORM' ? e : (e.form || e.closest('form'));
		if (!f) return null;
		if (typeof f.requestSubmit === 'function') f.requestSubmit(); else f.submit();
		return true;
	}`
	assignValue = `(e, v) => {
		if (!e.isConnected) return 'detached';
		const tag = e.tagName.toLowerCase();
		if (tag === 'input' || tag === 'textarea' || tag === 'select') { e.value = v; return 'ok'; }
		if (e.isContentEditable) { e.textContent = v; return 'ok'; }
		return 'unsupported';
	}`
	// Сеттер с прототипа обходит перехват value у контролируемых полей.
	nativeSetValue = `(e, v) => {
		if (!e.isConnected) return 'detached';
		const proto = e instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype
			: e instanceof HTMLInputElement ? HTMLInputElement.prototype
			: e instanceof HTMLSelectElement ? HTMLSelectElement.prototype
			: null;
		const desc = proto && Object.getOwnPropertyDescriptor(proto, 'value');
		if (!desc || !desc.set) return 'unsupported';
		desc.set.call(e, v);
		return 'ok';
	}`
)

const (
	highlightElement = `(e, overlay) => {
		if (!e.isConnected) return false;
		window.__onyxMarks = window.__onyxMarks || [];
		if (!overlay) {
			e.style.outline = '3px solid #ff4757';
			e.style.outlineOffset = '2px';
			window.__onyxMarks.push(e);
			return true;
		}
		const r = e.getBoundingClientRect();
		const box = document.createElement('div');
		box.className = 'onyx-overlay';
		Object.assign(box.style, {
			position: 'absolute',
			left: (r.left + window.scrollX) + 'px',
			top: (r.top + window.scrollY) + 'px',
			width: r.width + 'px',
			height: r.height + 'px',
			border: '3px solid #ff4757',
			background: 'rgba(255, 71, 87, 0.15)',
			pointerEvents: 'none',
			zIndex: '2147483647',
		});
		document.body.appendChild(box);
		return true;
	}`
	clearHighlights = `() => {
		for (const e of window.__onyxMarks || []) {
			e.style.outline = '';
			e.style.outlineOffset = '';
		}
		window.__onyxMarks = [];
		document.querySelectorAll('.onyx-overlay').forEach(o => o.remove());
	}`
)
