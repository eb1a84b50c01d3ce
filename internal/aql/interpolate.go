package aql

import "strings"

const (
	parentBindVar  = "@parent"
	contextBindVar = "@context"
)

// Scope holds the token replacements for one node.
type Scope struct {
	Self   string
	Parent string
	// Children is substituted for $children.
	Children string
}

var scopeTokens = []string{"children", "context", "parent", "field", "args"}

// userTokens are the relay source tokens; they name helper variables of the
// connection node.
var userTokens = map[string]string{
	"node": "$field_node",
	"edge": "$field_edge",
	"path": "$field_path",
}

// Interpolate resolves the tokens of text for the node described by s in a
// single left-to-right pass. Substituted text is never rescanned. Unknown
// $-sequences are copied verbatim.
func Interpolate(text string, s Scope) (string, error) {
	ip := &interpolator{scope: s, text: text}
	return ip.run(0, len(text))
}

// interpolateBlock is Interpolate for builder templates, which must contain
// exactly one $children insertion point.
func interpolateBlock(text string, s Scope) (string, error) {
	ip := &interpolator{scope: s, text: text}
	out, err := ip.run(0, len(text))
	if err != nil {
		return "", err
	}
	if ip.children != 1 {
		return "", &InterpolationError{Text: text, Reason: "template must contain exactly one $children insertion point"}
	}
	return out, nil
}

type interpolator struct {
	scope    Scope
	text     string
	children int
}

func (ip *interpolator) run(start, end int) (string, error) {
	var b strings.Builder
	i := start
	for i < end {
		c := ip.text[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}
		tok := matchToken(ip.text[i+1:end], scopeTokens)
		switch tok {
		case "":
			b.WriteByte(c)
			i++
			continue
		case "field":
			b.WriteString(ip.scope.Self)
		case "parent":
			b.WriteString(ip.scope.Parent)
		case "context":
			b.WriteString(contextBindVar)
		case "children":
			ip.children++
			b.WriteString(ip.scope.Children)
		case "args":
			b.WriteString("@" + BindVarName(ip.scope.Self) + ".args")
			next, err := ip.accessors(&b, i+1+len(tok), end)
			if err != nil {
				return "", err
			}
			i = next
			continue
		}
		i += 1 + len(tok)
	}
	return b.String(), nil
}

// accessors copies the .name and [expr] chain following $args. Bracket
// contents are interpolated before the enclosing chain is written.
func (ip *interpolator) accessors(b *strings.Builder, i, end int) (int, error) {
	for i < end {
		switch ip.text[i] {
		case '.':
			j := i + 1
			for j < end && isIdentByte(ip.text[j]) {
				j++
			}
			if j == i+1 {
				return i, nil
			}
			b.WriteString(ip.text[i:j])
			i = j
		case '[':
			closing, err := ip.matchBracket(i, end)
			if err != nil {
				return 0, err
			}
			inner, err := ip.run(i+1, closing)
			if err != nil {
				return 0, err
			}
			b.WriteByte('[')
			b.WriteString(inner)
			b.WriteByte(']')
			i = closing + 1
		default:
			return i, nil
		}
	}
	return i, nil
}

// matchBracket returns the index of the ']' closing the '[' at open.
func (ip *interpolator) matchBracket(open, end int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < end; i++ {
		c := ip.text[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, &InterpolationError{Text: ip.text, Offset: open, Reason: "unterminated bracket in $args accessor"}
}

// rewriteUserTokens maps $node, $edge and $path to helper variables of the
// enclosing node. The result still needs Interpolate.
func rewriteUserTokens(text string) string {
	names := []string{"node", "edge", "path"}
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '$' {
			if tok := matchToken(text[i+1:], names); tok != "" {
				b.WriteString(userTokens[tok])
				i += len(tok)
				continue
			}
		}
		b.WriteByte(text[i])
	}
	return b.String()
}

func matchToken(rest string, tokens []string) string {
	for _, tok := range tokens {
		if strings.HasPrefix(rest, tok) {
			return tok
		}
	}
	return ""
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
