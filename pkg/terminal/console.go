package terminal

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/danswartzendruber/liner"
	"golang.org/x/term"

	"github.com/antibyte/petbasic/pkg/configuration"
	"github.com/antibyte/petbasic/pkg/logger"
	"github.com/antibyte/petbasic/pkg/petbasic"
)

// Console runs the interpreter in an ordinary terminal. Printed text goes to
// standard output as a transcript, lines are read with liner. The screen grid
// behind it keeps PEEK, POKE and POS working.
//
// Two liner states are used: one with history for commands and one without
// for INPUT. They are closed in reverse order so the terminal ends up in its
// original mode.
type Console struct {
	*petbasic.Screen

	commands *liner.State
	input    *liner.State
	history  bool
	out      io.Writer
	tty      bool
	timeout  time.Duration

	// OnBreak is called when ^C is typed while GET reads a key.
	OnBreak func()
}

// NewConsole creates a console with a screen grid of the given size.
func NewConsole(rows, cols int) *Console {
	rows, cols = ScreenSize(rows, cols)
	c := &Console{
		Screen:  petbasic.NewScreen(rows, cols),
		history: configuration.GetBool("Terminal", "history", true),
		out:     os.Stdout,
		tty:     term.IsTerminal(int(os.Stdin.Fd())),
		timeout: keyTimeout(),
	}
	c.commands = liner.NewLiner()
	c.input = liner.NewLiner()
	c.input.SetMultiLineMode(true)
	return c
}

// Close restores the terminal.
func (c *Console) Close() error {
	var err error
	if c.input != nil {
		err = c.input.Close()
		c.input = nil
	}
	if c.commands != nil {
		if cerr := c.commands.Close(); err == nil {
			err = cerr
		}
		c.commands = nil
	}
	return err
}

// Transcript is where printed text goes.
func (c *Console) Transcript() io.Writer { return c.out }

// ReadCommand reads a line for the command loop and adds it to the history.
func (c *Console) ReadCommand(prompt string) (string, error) {
	return c.prompt(c.commands, prompt, c.history)
}

// ReadLine reads a line for INPUT.
func (c *Console) ReadLine(prompt string) (string, error) {
	return c.prompt(c.input, prompt, false)
}

func (c *Console) prompt(l *liner.State, prompt string, history bool) (string, error) {
	s, err := l.Prompt(prompt)
	if err != nil {
		// ^C and ^D both end the input
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", err
	}
	if history && strings.TrimSpace(s) != "" {
		l.AppendHistory(s)
	}
	return s, nil
}

// ReadChar waits for a single key. The terminal is switched to raw mode for
// the read only, so a program polling with GET does not keep the terminal
// raw while it prints.
func (c *Console) ReadChar() (byte, bool) {
	if !c.tty {
		return 0, false
	}
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		logger.Debug(logger.AreaTerminal, "GET: raw mode failed: %v", err)
		return 0, false
	}
	defer term.Restore(fd, state)
	if !waitReadable(fd, c.timeout) {
		return 0, false
	}
	var buf [8]byte
	n, err := os.Stdin.Read(buf[:])
	if err != nil || n == 0 {
		return 0, false
	}
	keys, _ := splitKeys(string(buf[:n]))
	if len(keys) == 0 {
		return 0, false
	}
	if keys[0] == keyStop {
		if c.OnBreak != nil {
			c.OnBreak()
		}
		return 0, false
	}
	return keys[0], true
}

// WatchInterrupt calls stop on every SIGINT until the returned function is
// called. While liner is prompting the terminal is raw and ^C arrives as a
// key instead.
func WatchInterrupt(stop func()) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				logger.Debug(logger.AreaTerminal, "interrupt")
				stop()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

var _ petbasic.Display = (*Console)(nil)
