package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

const replPrompt = "tea> "
const replContinuePrompt = "...> "

// runREPL drives an interactive session over peterh/liner: history
// persisted to cfg.ReplHistoryFile, multi-line continuation while braces
// are unbalanced (so a function/class body can be typed across lines),
// each completed statement run through InterpretREPL and its result
// auto-printed unless it's Null.
func runREPL() error {
	cfg := newConfig()
	log := diag.New(cfg)
	v := newVM(cfg, log)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if cfg.ReplHistoryFile != "" {
		if f, err := os.Open(cfg.ReplHistoryFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	var buf strings.Builder
	depth := 0
	for {
		prompt := replPrompt
		if depth > 0 {
			prompt = replContinuePrompt
		}
		text, err := line.Prompt(prompt)
		if err != nil { // io.EOF on Ctrl-D, liner.ErrPromptAborted on Ctrl-C
			break
		}
		line.AppendHistory(text)

		depth += strings.Count(text, "{") - strings.Count(text, "}")
		buf.WriteString(text)
		buf.WriteByte('\n')
		if depth > 0 {
			continue
		}

		source := buf.String()
		buf.Reset()
		depth = 0
		if strings.TrimSpace(source) == "" {
			continue
		}

		result, rerr := v.InterpretREPL(source, "<repl>")
		if rerr != nil {
			log.Error("%v", rerr)
			continue
		}
		if !result.IsNull() {
			fmt.Println(value.Stringify(result))
		}
	}

	if cfg.ReplHistoryFile != "" {
		if f, err := os.Create(cfg.ReplHistoryFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}
