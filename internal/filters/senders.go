package filters

import "strings"

var senderSplitter = strings.NewReplacer(
	"{", " ", "}", " ", "(", " ", ")", " ", "|", " ", ",", " ",
	"<", " ", ">", " ", `"`, " ",
)

// Senders splits a From criterion into addresses. Gmail accepts "|", "OR"
// and braces as disjunctions; the updater writes " | ".
func Senders(from string) []string {
	var out []string
	for _, tok := range strings.Fields(senderSplitter.Replace(from)) {
		if strings.EqualFold(tok, "OR") {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// HasSender reports whether from names addr as a whole address. Case is
// ignored, so "Jane@Example.com" counts as "jane@example.com".
func HasSender(from, addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return false
	}
	for _, s := range Senders(from) {
		if strings.EqualFold(s, addr) {
			return true
		}
	}
	return false
}
