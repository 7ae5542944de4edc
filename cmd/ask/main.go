// Command ask sends one question to the answering service and prints the
// answer together with its analysis panes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/pkg/ask"
	"ai-oneshot-console/pkg/session"
	"ai-oneshot-console/pkg/supporting"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	defaults := ask.DefaultConfiguration()
	serviceURL := flag.String("url", envOr("ASK_SERVICE_URL", "http://localhost:5000"), "answering service base URL")
	approach := flag.String("approach", string(defaults.Approach), "approach: rr, rrrr, rrr, rrrt")
	deployment := flag.String("deployment", string(defaults.Deployment), "deployment: gpt-35-turbo, gpt-4")
	index := flag.String("index", string(defaults.Index), "index: ifrs, jgaap")
	searchOption := flag.String("search", string(defaults.SearchOption), "search option: BM25, \"Semantic Search\", Embeddings, VectorBM25, VectorSemantic")
	top := flag.Int("top", defaults.RetrieveCount, "number of documents to retrieve (1-50)")
	temperature := flag.Float64("temperature", defaults.Temperature, "temperature (0-1, step 0.1)")
	captions := flag.Bool("captions", false, "use semantic captions (semantic search options only)")
	timeout := flag.Duration("timeout", 0, "request timeout, 0 for none")
	showThoughts := flag.Bool("thoughts", false, "print the thought process")
	showSupporting := flag.Bool("supporting", false, "print the supporting content")
	showMonitoring := flag.Bool("monitoring", false, "print time, cost and token usage")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		color.Yellow("Usage: ask [flags] <question>")
		fmt.Println()
		fmt.Println("Examples:")
		for _, ex := range ask.Examples {
			fmt.Printf("  %s\n", ex)
		}
		os.Exit(2)
	}

	level := zapcore.WarnLevel
	if *verbose {
		level = zapcore.DebugLevel
	}
	log := logger.NewConsoleLogger(level)
	defer log.Sync()

	qs := session.NewQuerySession("cli", ask.NewHTTPClient(*serviceURL), log, *timeout)
	setters := []error{
		qs.SetApproach(ask.Approach(*approach)),
		qs.SetDeployment(ask.Deployment(*deployment)),
		qs.SetIndex(ask.Index(*index)),
		qs.SetSearchOption(ask.SearchOption(*searchOption)),
		qs.SetRetrieveCount(*top),
		qs.SetTemperature(*temperature),
		qs.SetUseSemanticCaptions(*captions),
	}
	for _, err := range setters {
		if err != nil {
			color.Red("Invalid configuration: %v", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	color.Cyan("Q: %s", question)
	state := qs.Submit(ctx, question)
	if state.Err != nil {
		kind := "transport"
		if ask.IsServiceError(state.Err) {
			kind = "service"
		}
		color.Red("Error (%s): %v", kind, state.Err)
		os.Exit(1)
	}

	resp := state.Answer
	color.Green("A:")
	fmt.Println(resp.Answer)

	if *showSupporting {
		printSupporting(supporting.ParseAll(resp.DataPoints))
	}
	if *showThoughts {
		printThoughts(resp.Thoughts)
	}
	if *showMonitoring {
		printMonitoring(resp.Monitoring)
	}
}

func printSupporting(items []supporting.Item) {
	fmt.Println()
	color.Cyan("Supporting content (%d)", len(items))
	for i, it := range items {
		color.Yellow("[%d] %s", i+1, it.Header())
		if it.Title != nil {
			fmt.Printf("    title: %s\n", it.Title.Text())
		}
		if it.Category != nil {
			fmt.Printf("    category: %s\n", it.Category.Text())
		}
		if it.Content != nil {
			fmt.Printf("    %s\n", it.Content.Text())
		}
		if missing := it.Missing(); len(missing) > 0 {
			fmt.Printf("    (missing: %s)\n", strings.Join(missing, ", "))
		}
	}
}

func printThoughts(thoughts []ask.LabeledValue) {
	fmt.Println()
	color.Cyan("Thought process")
	for i, th := range thoughts {
		color.Yellow("%d. %s", i+1, th.Label)
		if th.Value.IsStructured() {
			fmt.Println(indentLines(th.Value.Indent(), "   "))
		} else {
			fmt.Printf("   %s\n", th.Value.Text())
		}
	}
}

func printMonitoring(m *ask.Monitoring) {
	fmt.Println()
	color.Cyan("Monitoring")
	if m == nil {
		fmt.Println("  (not reported)")
		return
	}

	fmt.Printf("  time total: %s\n", m.Time.Total.Text())
	for _, item := range m.Time.Items {
		fmt.Printf("    %s: %s\n", item.Label, item.Value.Text())
	}
	fmt.Printf("  cost total: %s\n", m.Cost.Total.Text())
	for _, item := range m.Cost.Items {
		fmt.Printf("    %s: %s\n", item.Label, item.Value.Text())
	}
	for _, item := range m.Usage {
		if u, ok := item.Value.Usage(); ok {
			fmt.Printf("  %s: prompt=%d completion=%d total=%d\n", item.Label, u.PromptTokens, u.CompletionTokens, u.TotalTokens)
			continue
		}
		fmt.Printf("  %s: %s\n", item.Label, item.Value.Text())
	}
}

func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
