package cli

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindChat Kind = iota
	KindSubjects
	KindUse
	KindAdd
	KindDelete
	KindHistory
	KindOpen
	KindForget
	KindClear
	KindLogin
	KindSignup
	KindLogout
	KindTheme
	KindHelp
	KindQuit
	KindUnknown
)

type Command struct {
	Kind Kind
	Arg  string
}

var commandNames = map[string]Kind{
	"/subjects": KindSubjects,
	"/use":      KindUse,
	"/add":      KindAdd,
	"/delete":   KindDelete,
	"/history":  KindHistory,
	"/open":     KindOpen,
	"/forget":   KindForget,
	"/clear":    KindClear,
	"/login":    KindLogin,
	"/signup":   KindSignup,
	"/logout":   KindLogout,
	"/theme":    KindTheme,
	"/help":     KindHelp,
	"/quit":     KindQuit,
	"/exit":     KindQuit,
}

// Parse treats any line not starting with "/" as a chat message.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: KindChat, Arg: line}
	}
	name, arg, _ := strings.Cut(line, " ")
	kind, ok := commandNames[strings.ToLower(name)]
	if !ok {
		return Command{Kind: KindUnknown, Arg: name}
	}
	return Command{Kind: kind, Arg: strings.TrimSpace(arg)}
}

// Index parses a 1-based position into a 0-based index below n.
func Index(arg string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

const helpText = `Commands:
  /subjects            list subjects
  /use <name|n>        switch subject (starts a new conversation)
  /add <name>          add a custom subject
  /delete <name|n>     delete a custom subject
  /history             list saved chats and the per-subject summary
  /open <n>            resume saved chat n
  /forget <n>          delete saved chat n
  /clear               delete all saved chats
  /login <email>       log in
  /signup <email>      create an account
  /logout              log out and reset the session
  /theme               toggle light/dark
  /help                show this help
  /quit                exit
Anything else is sent to your tutor.`
