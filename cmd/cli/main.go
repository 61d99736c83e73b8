package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-chat/internal/advice"
	"github.com/dvloznov/finance-chat/internal/config"
	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/export"
	"github.com/dvloznov/finance-chat/internal/llm"
	"github.com/dvloznov/finance-chat/internal/logger"
	"github.com/dvloznov/finance-chat/internal/pipeline"
	"github.com/dvloznov/finance-chat/internal/router"
	"github.com/dvloznov/finance-chat/internal/store"
	"github.com/dvloznov/finance-chat/internal/store/backend"
)

var (
	botc   = color.New(color.FgGreen)
	userc  = color.New(color.FgCyan, color.Bold)
	recc   = color.New(color.BgGreen, color.FgBlack)
	errc   = color.New(color.BgRed, color.FgWhite)
	labelc = color.New(color.FgYellow)
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat()
	case "parse":
		runParse()
	case "tips":
		runTips()
	case "summary":
		runSummary()
	case "export":
		runExport()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Chat CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat      Interactive chat; recorded transactions are saved locally")
	fmt.Println("  parse     Extract a transaction from one message without saving it")
	fmt.Println("  tips      Print financial tips for your history")
	fmt.Println("  summary   Print income, expenses and top categories")
	fmt.Println("  export    Write your transactions to an .xlsx file")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// env is what every subcommand needs.
type env struct {
	cfg     *config.Config
	log     zerolog.Logger
	ctx     context.Context
	querier llm.Querier
	user    string
}

func setup(fs *flag.FlagSet) *env {
	configDir := fs.String("config", ".", "Directory containing config.yaml")
	user := fs.String("user", "", "User ID (defaults to assistant.default_user)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configDir)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	// The CLI keeps its history in a local file unless told otherwise.
	if cfg.Store.Backend == "memory" {
		cfg.Store.Backend = "bolt"
	}
	if *user == "" {
		*user = cfg.Assistant.DefaultUser
	}

	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Pretty: true, Writer: os.Stderr})
	querier, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}

	return &env{
		cfg:     cfg,
		log:     log,
		ctx:     logger.WithContext(context.Background(), log),
		querier: querier,
		user:    *user,
	}
}

func (e *env) openStore() store.TransactionStore {
	s, err := backend.Open(e.ctx, e.cfg.Store)
	if err != nil {
		e.log.Fatal().Err(err).Str("backend", e.cfg.Store.Backend).Msg("Failed to open transaction store")
	}
	return s
}

func (e *env) history(s store.TransactionStore) []domain.TransactionRecord {
	txs, err := s.List(e.ctx, e.user)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to list transactions")
	}
	return txs
}

func runChat() {
	e := setup(flag.NewFlagSet("chat", flag.ExitOnError))
	s := e.openStore()
	defer s.Close()

	advisor := advice.NewAdvisor(e.querier)
	chat := router.New(pipeline.NewTransactionParser(e.querier), advisor)

	botc.Printf("Hi! Tell me what you spent or earned, or ask me anything about your money. Type 'exit' to quit.\n")
	for _, tip := range advisor.Tips(e.ctx, e.history(s)) {
		fmt.Println("  " + tip)
	}

	var transcript []domain.ConversationTurn
	scanner := bufio.NewScanner(os.Stdin)
	for {
		userc.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		msg := strings.TrimSpace(scanner.Text())
		if msg == "" {
			continue
		}
		if msg == "exit" || msg == "quit" {
			break
		}

		txs := e.history(s)
		action := chat.Route(e.ctx, msg, transcript, txs)

		if action.Kind == router.ActionRecordTransaction && action.Transaction != nil {
			saved, err := s.Append(e.ctx, e.user, *action.Transaction)
			if err != nil {
				errc.Printf(" could not save: %v ", err)
				fmt.Println()
				continue
			}
			action.Transaction = &saved
			txs = append(txs, saved)
		}

		renderAction(os.Stdout, action, txs)
		transcript = append(transcript,
			domain.ConversationTurn{Sender: domain.SenderUser, Text: msg},
			domain.ConversationTurn{Sender: domain.SenderBot, Text: action.Reply},
		)
	}
	if err := scanner.Err(); err != nil {
		e.log.Error().Err(err).Msg("Reading input failed")
	}
}

// renderAction prints the bot's reply. View changes print the view inline
// since the terminal has no separate screens.
func renderAction(w io.Writer, action router.Action, txs []domain.TransactionRecord) {
	switch action.Kind {
	case router.ActionRecordTransaction:
		recc.Fprintf(w, " %s ", strings.ToUpper(string(action.Transaction.Type)))
		fmt.Fprintln(w)
		botc.Fprintln(w, action.Reply)
	case router.ActionParseFailed:
		errc.Fprint(w, " ? ")
		fmt.Fprintln(w)
		fmt.Fprintln(w, action.Reply)
	case router.ActionChangeView:
		botc.Fprintln(w, action.Reply)
		if action.View == router.ViewTips {
			return
		}
		printSummary(w, advice.Summarize(txs), action.View == router.ViewChart)
	default:
		botc.Fprintln(w, action.Reply)
	}
}

func printSummary(w io.Writer, s advice.Summary, breakdownOnly bool) {
	if !breakdownOnly {
		labelc.Fprintf(w, "%-16s", "Income")
		fmt.Fprintf(w, "₹%s\n", advice.FormatINR(s.TotalIncome))
		labelc.Fprintf(w, "%-16s", "Expenses")
		fmt.Fprintf(w, "₹%s\n", advice.FormatINR(s.TotalExpenses))
		labelc.Fprintf(w, "%-16s", "Balance")
		fmt.Fprintf(w, "₹%s\n", advice.FormatINR(s.Balance))
	}
	for _, c := range s.Categories {
		labelc.Fprintf(w, "  %-14s", c.Category)
		fmt.Fprintf(w, "₹%s (%d)\n", advice.FormatINR(c.Amount), c.Count)
	}
}

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	e := setup(fs)
	msg := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(msg) == "" {
		e.log.Fatal().Msg("Usage: cli parse [options] <message>")
	}

	rec, err := pipeline.NewTransactionParser(e.querier).Extract(e.ctx, msg)
	if err != nil {
		var perr *pipeline.ParseError
		if errors.As(err, &perr) {
			fmt.Println(perr.Guidance())
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}

	labelc.Printf("%-12s", "Type")
	fmt.Println(rec.Type)
	labelc.Printf("%-12s", "Amount")
	fmt.Println("₹" + advice.FormatINR(rec.Amount))
	labelc.Printf("%-12s", "Category")
	fmt.Println(rec.Category)
	labelc.Printf("%-12s", "Description")
	fmt.Println(rec.Description)
	labelc.Printf("%-12s", "Source")
	fmt.Println(strings.SplitN(rec.ID, "-", 2)[0])
}

func runTips() {
	e := setup(flag.NewFlagSet("tips", flag.ExitOnError))
	s := e.openStore()
	defer s.Close()

	for _, tip := range advice.NewAdvisor(e.querier).Tips(e.ctx, e.history(s)) {
		fmt.Println(tip)
	}
}

func runSummary() {
	e := setup(flag.NewFlagSet("summary", flag.ExitOnError))
	s := e.openStore()
	defer s.Close()

	printSummary(os.Stdout, advice.Summarize(e.history(s)), false)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "Output file (defaults to the dated ClearBudget name)")
	e := setup(fs)
	s := e.openStore()
	defer s.Close()

	if *out == "" {
		*out = export.Filename(time.Now())
	}

	f, err := os.Create(*out)
	if err != nil {
		e.log.Fatal().Err(err).Str("file", *out).Msg("Failed to create output file")
	}
	if err := export.WriteWorkbook(f, e.history(s), time.Local); err != nil {
		f.Close()
		e.log.Fatal().Err(err).Msg("Export failed")
	}
	if err := f.Close(); err != nil {
		e.log.Fatal().Err(err).Msg("Failed to write output file")
	}

	fmt.Printf("Exported transactions to %s\n", *out)
}
