package runtime

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Prompt implements expand.PromptEvaluator, backing ${x@P} (spec.md §4.2;
// original_source/src/wordexp.c's var_info_expand calls this "evaluate_prompt").
// Expansion is gated on the output stream actually being a terminal — the
// same mattn/go-isatty check repl.go uses to decide whether to print its own
// "loshell> " prompt — since a prompt string's host/cwd/time escapes only
// mean anything when something interactive is reading them; in a script or
// pipe, ${x@P} passes its value through unevaluated.
type Prompt struct {
	Out *os.File // defaults to os.Stdout
}

func (p *Prompt) out() *os.File {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}

func (p *Prompt) EvaluatePrompt(raw string) (string, error) {
	if !isatty.IsTerminal(p.out().Fd()) {
		return raw, nil
	}
	return decodePrompt(raw), nil
}

// decodePrompt expands the common backslash escapes bash's PS1 recognizes:
// \u (user), \h (hostname up to first '.'), \H (full hostname), \w (cwd),
// \W (cwd basename), \$ ('#' for root, '$' otherwise), \t (HH:MM:SS),
// \d (weekday month day), \n, \\, and \[ \] (readline markers, dropped).
func decodePrompt(raw string) string {
	var b strings.Builder
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i+1 >= len(runes) {
			b.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 'u':
			b.WriteString(currentUsername())
		case 'h':
			b.WriteString(firstLabel(hostname()))
		case 'H':
			b.WriteString(hostname())
		case 'w':
			b.WriteString(workingDir())
		case 'W':
			b.WriteString(filepath.Base(workingDir()))
		case '$':
			if os.Geteuid() == 0 {
				b.WriteByte('#')
			} else {
				b.WriteByte('$')
			}
		case 't':
			b.WriteString(time.Now().Format("15:04:05"))
		case 'd':
			b.WriteString(time.Now().Format("Mon Jan 02"))
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		case '[', ']':
			// readline non-printing markers: no visual effect here.
		default:
			b.WriteByte('\\')
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}
	return h
}

func firstLabel(host string) string {
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[:i]
	}
	return host
}

func workingDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	if home, herr := os.UserHomeDir(); herr == nil && home != "" {
		if dir == home {
			return "~"
		}
		if strings.HasPrefix(dir, home+string(os.PathSeparator)) {
			return "~" + strings.TrimPrefix(dir, home)
		}
	}
	return dir
}
