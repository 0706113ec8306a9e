package chrome

import (
	"encoding/json"
	"fmt"

	"github.com/joshsymonds/autolabel/internal/dom"
)

// OriginAttr marks the element the user triggered on.
const OriginAttr = "data-autolabel-origin"

// jsString renders s as a JavaScript string literal. encoding/json already
// escapes U+2028 and U+2029, which JSON allows but older JS parsers reject.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// snapshotScript stamps refs on the live tree, then serialises a clone that
// carries live form state and hidden flags as attributes.
func snapshotScript() string {
	return fmt.Sprintf(`(() => {
  const ref = %[1]s, hidden = %[2]s;
  window.__autolabelSeq = window.__autolabelSeq || 0;
  const live = Array.from(document.documentElement.querySelectorAll('*'));
  live.unshift(document.documentElement);
  for (const el of live) {
    if (!el.hasAttribute(ref)) el.setAttribute(ref, String(++window.__autolabelSeq));
  }
  const copy = document.documentElement.cloneNode(true);
  const copies = Array.from(copy.querySelectorAll('*'));
  copies.unshift(copy);
  for (let i = 0; i < live.length && i < copies.length; i++) {
    const el = live[i], out = copies[i];
    if (el instanceof HTMLInputElement || el instanceof HTMLTextAreaElement || el instanceof HTMLSelectElement) {
      out.setAttribute('value', el.value);
    }
    if (el instanceof HTMLInputElement && (el.type === 'checkbox' || el.type === 'radio')) {
      if (el.checked) out.setAttribute('checked', ''); else out.removeAttribute('checked');
    }
    if (el instanceof HTMLElement && el !== document.body && el !== document.documentElement &&
        el.getClientRects().length === 0) {
      out.setAttribute(hidden, '');
    }
  }
  return '<!DOCTYPE html>' + copy.outerHTML;
})()`, jsString(dom.RefAttr), jsString(dom.HiddenAttr))
}

func lookup(ref string) string {
	return fmt.Sprintf(`document.querySelector('[' + %s + '=' + JSON.stringify(%s) + ']')`,
		jsString(dom.RefAttr), jsString(ref))
}

func clickScript(ref string) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  if (!el) return false;
  el.scrollIntoView({block: 'center'});
  for (const type of ['mousedown', 'mouseup']) {
    el.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, view: window}));
  }
  el.click();
  return true;
})()`, lookup(ref))
}

// setValueScript goes through the prototype setter so frameworks that
// track the value property observe the change, then fires input and change.
func setValueScript(ref, value string) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  if (!el) return false;
  const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
  const desc = Object.getOwnPropertyDescriptor(proto, 'value');
  if (desc && desc.set) desc.set.call(el, %s); else el.value = %s;
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
  return true;
})()`, lookup(ref), jsString(value), jsString(value))
}

func setLocationScript(location string) string {
	return fmt.Sprintf(`(() => { window.location.hash = %s; return true; })()`, jsString(location))
}

const locationScript = `window.location.hash`

func alertScript(message string) string {
	return fmt.Sprintf(`(() => { window.alert(%s); return true; })()`, jsString(message))
}

func promptScript(message string) string {
	return fmt.Sprintf(`(window.prompt(%s, '') || '')`, jsString(message))
}

// triggerScript installs the Alt+right-click listener once per document.
func triggerScript() string {
	return fmt.Sprintf(`(() => {
  if (window.__autolabelTrigger) return false;
  window.__autolabelTrigger = true;
  window.__autolabelOrigin = window.__autolabelOrigin || 0;
  document.addEventListener('contextmenu', (ev) => {
    if (!ev.altKey || !(ev.target instanceof Element)) return;
    ev.preventDefault();
    for (const old of document.querySelectorAll('[' + %[1]s + ']')) old.removeAttribute(%[1]s);
    ev.target.setAttribute(%[1]s, String(++window.__autolabelOrigin));
  }, true);
  return true;
})()`, jsString(OriginAttr))
}

const triggerSeqScript = `(window.__autolabelOrigin || 0)`
