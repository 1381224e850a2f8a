package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/dicebag/analyzer"
	"github.com/domino14/dicebag/config"
	"github.com/domino14/dicebag/dice"
	"github.com/domino14/dicebag/sim"
)

type Response struct {
	message string
}

func Msg(message string) *Response {
	return &Response{message: message}
}

type ShellController struct {
	l        *readline.Instance
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	simmer   *sim.Simmer

	// current comparison set, in entry order
	descriptors []string
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func NewShellController(cfg *config.Config) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mdicebag>\033[0m ",
		HistoryFile:     "/tmp/readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	return &ShellController{
		l:        l,
		cfg:      cfg,
		analyzer: analyzer.NewAnalyzer(cfg),
		simmer:   sim.NewSimmer(cfg),
	}
}

func (sc *ShellController) add(args []string) (*Response, error) {
	if len(args) == 0 {
		return nil, errors.New("add <descriptor> [descriptor...], e.g. add 2d6+1")
	}
	if len(sc.descriptors)+len(args) > analyzer.MaxDice {
		return nil, fmt.Errorf("at most %d dice can be compared", analyzer.MaxDice)
	}
	for _, descriptor := range args {
		d, err := dice.Parse(descriptor)
		if err != nil {
			return nil, err
		}
		sc.descriptors = append(sc.descriptors, descriptor)
		log.Debug().Str("dice", d.Name()).Msg("added to comparison set")
	}
	return sc.list()
}

func (sc *ShellController) remove(args []string) (*Response, error) {
	if len(args) != 1 {
		return nil, errors.New("rm <index>")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(sc.descriptors) {
		return nil, errors.New("no dice at that index")
	}
	sc.descriptors = append(sc.descriptors[:idx-1], sc.descriptors[idx:]...)
	return sc.list()
}

func (sc *ShellController) list() (*Response, error) {
	if len(sc.descriptors) == 0 {
		return Msg("No dice. Use add <descriptor> to add some."), nil
	}
	out := strings.Builder{}
	for i, descriptor := range sc.descriptors {
		fmt.Fprintf(&out, "%2d: %s\n", i+1, descriptor)
	}
	return Msg(strings.TrimRight(out.String(), "\n")), nil
}

func (sc *ShellController) analyze() ([]analyzer.DiceResult, error) {
	if len(sc.descriptors) == 0 {
		return nil, errors.New("no dice to analyze; use add first")
	}
	return sc.analyzer.Analyze(sc.descriptors)
}

func (sc *ShellController) table() (*Response, error) {
	results, err := sc.analyze()
	if err != nil {
		return nil, err
	}
	out := strings.Builder{}
	fmt.Fprintf(&out, "%-10s %8s %7s %9s %7s %7s\n",
		"dice", "exp.val", "median", "variance", "stddev", "p.fail")
	for _, r := range results {
		fmt.Fprintf(&out, "%-10s %8.3f %7.1f %9.3f %7.3f %7.4f\n",
			r.Name, r.ExpectedValue, r.Median, r.Variance, r.StandardDeviation, r.PFail)
	}
	return Msg(strings.TrimRight(out.String(), "\n")), nil
}

func (sc *ShellController) thresholds() (*Response, error) {
	results, err := sc.analyze()
	if err != nil {
		return nil, err
	}
	out := strings.Builder{}
	fmt.Fprintf(&out, "%4s", "k")
	for _, r := range results {
		fmt.Fprintf(&out, " %10s", r.Name)
	}
	out.WriteString("\n")
	keys := make([]int, 0, len(results[0].PGreaterThan))
	for k := range results[0].PGreaterThan {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		fmt.Fprintf(&out, "%4d", k)
		for _, r := range results {
			fmt.Fprintf(&out, " %10.4f", r.PGreaterThan[k])
		}
		out.WriteString("\n")
	}
	return Msg(strings.TrimRight(out.String(), "\n")), nil
}

func (sc *ShellController) win() (*Response, error) {
	results, err := sc.analyze()
	if err != nil {
		return nil, err
	}
	out := strings.Builder{}
	for _, r := range results {
		fmt.Fprintf(&out, "%s beats:\n", r.Name)
		for _, w := range r.WinProbabilities {
			fmt.Fprintf(&out, "  %-10s %6.2f%%\n", w.Name, w.Probability*100)
		}
	}
	return Msg(strings.TrimRight(out.String(), "\n")), nil
}

func (sc *ShellController) export() (*Response, error) {
	results, err := sc.analyze()
	if err != nil {
		return nil, err
	}
	out, err := analyzer.ExportYAML(results)
	if err != nil {
		return nil, err
	}
	return Msg(string(out)), nil
}

func (sc *ShellController) simulate(args []string) (*Response, error) {
	iterations := sc.cfg.SimIterations
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return nil, errors.New("sim [iterations] - iterations must be a positive number")
		}
		iterations = n
	}
	if len(sc.descriptors) == 0 {
		return nil, errors.New("no dice to simulate; use add first")
	}
	ds := make([]dice.Dice, len(sc.descriptors))
	for i, descriptor := range sc.descriptors {
		d, err := dice.Parse(descriptor)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	results, err := sc.simmer.Run(ds, iterations)
	if err != nil {
		return nil, err
	}
	out := strings.Builder{}
	fmt.Fprintf(&out, "%-10s %10s %9s %9s %8s %8s\n",
		"dice", "rolls", "mean", "expected", "z", "ok")
	for _, r := range results {
		fmt.Fprintf(&out, "%-10s %10d %9.4f %9.4f %8.3f %8v\n",
			r.Name, r.Iterations, r.Mean, r.TheoreticalMean, r.ZScore, r.WithinCI)
	}
	return Msg(strings.TrimRight(out.String(), "\n")), nil
}

func (sc *ShellController) clear() (*Response, error) {
	sc.descriptors = nil
	return Msg("Cleared comparison set."), nil
}

func (sc *ShellController) handle(line string) (*Response, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	cmd := fields[0]
	args := fields[1:]
	switch cmd {
	case "add", "a":
		return sc.add(args)
	case "rm", "del":
		return sc.remove(args)
	case "list", "ls", "l":
		return sc.list()
	case "table", "t":
		return sc.table()
	case "thresholds", "th":
		return sc.thresholds()
	case "win", "w":
		return sc.win()
	case "sim", "s":
		return sc.simulate(args)
	case "export", "yaml":
		return sc.export()
	case "clear":
		return sc.clear()
	case "help", "?":
		usage(sc.l.Stderr())
		return nil, nil
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		if line == "exit" || line == "bye" {
			sig <- syscall.SIGINT
			break
		}
		resp, err := sc.handle(line)
		if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}
