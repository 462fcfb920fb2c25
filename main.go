package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/antibyte/petbasic/pkg/conformance"
	"github.com/antibyte/petbasic/pkg/configuration"
	"github.com/antibyte/petbasic/pkg/logger"
	"github.com/antibyte/petbasic/pkg/petbasic"
	"github.com/antibyte/petbasic/pkg/terminal"
)

// display is a terminal front end the interpreter can run against.
type display interface {
	petbasic.Display
	Close() error
}

// commandReader is implemented by displays that read prompt commands
// differently from INPUT lines (history).
type commandReader interface {
	ReadCommand(prompt string) (string, error)
}

func main() {
	var (
		listFlag        = flag.Bool("list", false, "list the loaded program")
		highlightFlag   = flag.Bool("highlight", false, "list the loaded program with colors")
		runFlag         = flag.Bool("run", false, "run the loaded program")
		loopFlag        = flag.Bool("loop", false, "read commands at the READY. prompt")
		rawFlag         = flag.Bool("raw", false, "full screen terminal mode")
		debugFlag       = flag.Bool("debug", false, "debug logging, echo each executed line")
		serveFlag       = flag.String("serve", "", "mirror the screen to websocket clients at `addr` (- for the configured address)")
		configFlag      = flag.String("config", configuration.DefaultPath, "configuration `file`")
		rowsFlag        = flag.Int("rows", 0, "screen rows")
		colsFlag        = flag.Int("cols", 0, "screen columns")
		statsFlag       = flag.Bool("stats", false, "print CPU usage after a run")
		conformanceFlag = flag.String("conformance", "", "run the YAML test suites in `dir` and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [file ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := configuration.Initialize(*configFlag); err != nil {
		fmt.Printf("Error initializing configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.Info(logger.AreaConfig, "configuration loaded from %s", *configFlag)

	opts := petbasic.OptionsFromConfig()
	if *debugFlag {
		if err := logger.Enable(logger.DEBUG); err != nil {
			log.Printf("debug logging: %v", err)
		}
		logger.EnableArea(logger.AreaEngine)
		if !*rawFlag {
			opts.Trace = os.Stderr
		}
	}

	if *conformanceFlag != "" {
		os.Exit(runConformance(*conformanceFlag))
	}

	if *listFlag || *highlightFlag {
		p := petbasic.NewProgram()
		for _, path := range flag.Args() {
			if err := loadFile(path, p.LoadFile); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
		var err error
		if *highlightFlag {
			err = terminal.Highlight(os.Stdout, p)
		} else {
			err = p.List(os.Stdout, 0, 0)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !*runFlag && !*loopFlag {
			return
		}
	}

	// ohne Modus: Dateien ausführen, sonst Eingabeschleife
	if !*runFlag && !*loopFlag {
		if flag.NArg() > 0 {
			*runFlag = true
		} else {
			*loopFlag = true
		}
	}

	s := session{
		stats: *statsFlag,
	}
	if err := s.open(*rawFlag, *serveFlag, *rowsFlag, *colsFlag, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err := s.start(flag.Args(), *runFlag, *loopFlag)
	s.close()
	if err != nil {
		// BASIC errors are already on the screen
		var be *petbasic.BASICError
		if !errors.As(err, &be) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func loadFile(path string, load func(string) ([]petbasic.LoadWarning, error)) error {
	warnings, err := load(path)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, w)
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func runConformance(dir string) int {
	tests, err := conformance.LoadDir(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	results := conformance.NewRunner().RunAll(tests)
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			fmt.Printf("FAIL %s: %s: %v\n", r.Test.File, r.Test.Test.Name, r.Error)
		}
	}
	stats := conformance.ComputeStats(results)
	fmt.Println(conformance.FormatStats(stats))
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

// session ties a display, an interpreter and the optional mirror server
// together.
type session struct {
	d      display
	in     *petbasic.Interpreter
	server *http.Server
	stats  bool
}

func (s *session) open(raw bool, serve string, rows, cols int, opts petbasic.Options) error {
	switch {
	case serve != "":
		m := terminal.NewMirror(rows, cols)
		s.d = m
		s.in = petbasic.New(m, opts)
		m.OnBreak = s.in.Stop
		if serve == "-" {
			serve = configuration.GetString("Network", "listen_addr", "localhost:6464")
		}
		mux := http.NewServeMux()
		mux.Handle("/ws", m)
		s.server = &http.Server{Addr: serve, Handler: mux}
		go func() {
			logger.Info(logger.AreaWebSocket, "screen mirror on ws://%s/ws", serve)
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(logger.AreaWebSocket, "mirror server: %v", err)
				log.Printf("mirror server: %v", err)
				m.Close()
			}
		}()
		fmt.Printf("Screen mirror listening on ws://%s/ws\n", serve)
	case raw:
		r, err := terminal.NewRaw(rows, cols)
		if err != nil {
			return err
		}
		s.d = r
		s.in = petbasic.New(r, opts)
		r.OnBreak = s.in.Stop
	default:
		c := terminal.NewConsole(rows, cols)
		opts.Transcript = c.Transcript()
		s.d = c
		s.in = petbasic.New(c, opts)
		c.OnBreak = s.in.Stop
	}
	return nil
}

func (s *session) close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		s.server.Shutdown(ctx)
		cancel()
	}
	if err := s.d.Close(); err != nil {
		logger.Warn(logger.AreaTerminal, "close display: %v", err)
	}
}

func (s *session) start(files []string, run, loop bool) error {
	for _, path := range files {
		if err := loadFile(path, s.in.LoadFile); err != nil {
			return err
		}
	}
	if run {
		err := s.execute(func(ctx context.Context) error { return s.in.Run(ctx) })
		if !loop {
			return err
		}
	}
	if loop {
		return s.repl()
	}
	return nil
}

// execute runs f with ^C wired to the interpreter's Stop and reports how it
// ended on the screen.
func (s *session) execute(f func(context.Context) error) error {
	unwatch := terminal.WatchInterrupt(s.in.Stop)
	var stats *runStats
	if s.stats {
		stats = newRunStats()
	}
	err := f(context.Background())
	unwatch()
	if stats != nil {
		stats.report(os.Stderr)
	}

	var be *petbasic.BASICError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, petbasic.ErrStopped), errors.Is(err, petbasic.ErrBreak):
		s.freshLine()
		if line := s.in.HaltLine(); line > 0 {
			s.in.Print(fmt.Sprintf("BREAK IN %d\n", line))
		} else {
			s.in.Print("BREAK\n")
		}
		return nil
	case errors.As(err, &be):
		s.freshLine()
		s.in.Print("?" + be.Error() + "\n")
		return be
	}
	return err
}

func (s *session) freshLine() {
	if _, col := s.d.Cursor(); col > 0 {
		s.in.Print("\n")
	}
}

func (s *session) readCommand() (string, error) {
	if cr, ok := s.d.(commandReader); ok {
		return cr.ReadCommand("")
	}
	return s.d.ReadLine("")
}

// repl is the READY. prompt: numbered lines edit the program, anything else
// runs at once.
func (s *session) repl() error {
	s.in.Print("READY.\n")
	for {
		line, err := s.readCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		s.in.Echo(line)
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.execute(func(ctx context.Context) error { return s.in.RunLine(ctx, line) })
		if _, _, numbered := petbasic.SplitLineNumber(line); !numbered {
			s.in.Print("READY.\n")
		}
	}
}
