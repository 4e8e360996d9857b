package crawler

const titleJS = `() => document.title`

const bodyTextJS = `() => document.body ? document.body.innerText : ''`

const tagNameJS = `() => this.tagName.toLowerCase()`

const disabledJS = `() => !!this.disabled`

const readOnlyJS = `() => !!(this.disabled || this.readOnly)`

// navLinksJS returns up to limit distinct same-origin link targets,
// preferring navigation landmarks over body links.
const navLinksJS = `(limit) => {
	const out = [];
	const seen = new Set([window.location.pathname]);
	const groups = ['nav a[href], header a[href], [role="navigation"] a[href]', 'a[href]'];
	for (const sel of groups) {
		for (const a of document.querySelectorAll(sel)) {
			const raw = a.getAttribute('href');
			if (!raw || raw.startsWith('#') || raw.startsWith('javascript:') || raw.startsWith('mailto:')) continue;
			let u;
			try { u = new URL(raw, window.location.href); } catch (e) { continue; }
			if (u.origin !== window.location.origin || seen.has(u.pathname)) continue;
			seen.add(u.pathname);
			out.push(u.href);
			if (out.length >= limit) return out;
		}
	}
	return out;
}`

const detectSPAJS = `() => {
	if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
	if (window.__VUE__ || document.querySelector('[data-v-app]')) return true;
	if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
	if (document.querySelector('[class*="svelte-"]')) return true;
	return false;
}`

const elementsJS = `() => {
	const elements = [];
	const seen = new Set();

	function validIdent(s) {
		if (!s) return false;
		if (/^-?[0-9]/.test(s)) return false;
		return !/[.:#\[\]()>~+*\/\\]/.test(s);
	}

	function selectorFor(el) {
		if (el.id && validIdent(el.id)) return '#' + el.id;
		if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
		if (el.className && typeof el.className === 'string') {
			const classes = el.className.trim().split(/\s+/).filter(validIdent).slice(0, 2);
			if (classes.length > 0) {
				const sel = el.tagName.toLowerCase() + '.' + classes.join('.');
				try {
					if (document.querySelectorAll(sel).length === 1) return sel;
				} catch (e) {}
			}
		}
		const parent = el.parentElement;
		if (parent) {
			const index = Array.from(parent.children).indexOf(el) + 1;
			const parentSel = selectorFor(parent);
			if (parentSel) return parentSel + ' > ' + el.tagName.toLowerCase() + ':nth-child(' + index + ')';
		}
		return el.tagName.toLowerCase();
	}

	function add(el, fields) {
		if (!el.offsetParent) return;
		const selector = selectorFor(el);
		if (seen.has(selector)) return;
		seen.add(selector);
		elements.push(Object.assign({ selector: selector, id: el.id || undefined, name: el.name || undefined }, fields));
	}

	document.querySelectorAll('button, [role="button"], input[type="submit"], input[type="button"]').forEach(el =>
		add(el, { type: 'button', text: (el.textContent || el.value || '').trim().slice(0, 50) }));
	document.querySelectorAll('input:not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="checkbox"]):not([type="radio"]), textarea').forEach(el =>
		add(el, { type: el.type || 'text', placeholder: el.placeholder || undefined }));
	document.querySelectorAll('a[href]').forEach(el => {
		const href = el.getAttribute('href');
		if (href.startsWith('#') || href.startsWith('javascript:')) return;
		add(el, { type: 'link', text: (el.textContent || '').trim().slice(0, 50) });
	});
	document.querySelectorAll('select').forEach(el => add(el, { type: 'select' }));
	document.querySelectorAll('input[type="checkbox"], input[type="radio"]').forEach(el => add(el, { type: el.type }));

	return elements;
}`

const navigationJS = `() => {
	const items = [];
	const seen = new Set();
	document.querySelectorAll('nav a, header a, [role="navigation"] a').forEach(el => {
		if (!el.offsetParent) return;
		const href = el.getAttribute('href');
		if (!href || href === '#' || href.startsWith('javascript:')) return;
		if (seen.has(href)) return;
		seen.add(href);
		items.push({
			selector: el.id ? '#' + el.id : 'a[href="' + href + '"]',
			text: (el.textContent || '').trim().slice(0, 30),
			href: href
		});
	});
	return items;
}`
