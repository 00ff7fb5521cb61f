package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/di"
	"github.com/mikey/mail-triage/internal/engine"
	"github.com/mikey/mail-triage/internal/logging"
)

var (
	flagConfigFile string
	flagVerbose    bool
	flagJSONLog    bool

	flagProvider     string
	flagOpenAIKey    string
	flagGeminiKey    string
	flagBedrockModel string
	flagStateType    string
	flagStatePath    string

	flagUserID    string
	flagAccountID string
	flagInputFile string
	flagSender    string

	flagLabel string
	flagClass int
)

func main() {
	root := &cobra.Command{
		Use:           "triage-score",
		Short:         "Score and teach the mail triage engine from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfigFile, "config", "", "Path to config file (overrides command line flags)")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	root.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false, "Output logs in JSON format")
	root.PersistentFlags().StringVar(&flagProvider, "provider", "none", "Embedding provider (openai, gemini, bedrock, none)")
	root.PersistentFlags().StringVar(&flagOpenAIKey, "openai-api-key", "", "API key for OpenAI embeddings")
	root.PersistentFlags().StringVar(&flagGeminiKey, "gemini-api-key", "", "API key for Google Gemini embeddings")
	root.PersistentFlags().StringVar(&flagBedrockModel, "bedrock-model", "amazon.titan-embed-text-v2:0", "Bedrock embedding model ID")
	root.PersistentFlags().StringVar(&flagStateType, "state", "memory", "Classifier state store (memory, sqlite, mysql)")
	root.PersistentFlags().StringVar(&flagStatePath, "state-path", "", "SQLite path for the classifier state store")
	root.PersistentFlags().StringVar(&flagUserID, "user", "cli", "User ID to score or teach for")
	root.PersistentFlags().StringVar(&flagAccountID, "account", "", "Account ID to score or teach for")
	root.PersistentFlags().StringVar(&flagInputFile, "file", "", "Input email file (use stdin if not specified)")
	root.PersistentFlags().StringVar(&flagSender, "sender", "", "Override the sender address from the message")

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score a raw RFC 822 message",
		RunE:  runScore,
	}

	learnCmd := &cobra.Command{
		Use:   "learn",
		Short: "Feed a correction into the online classifier",
		RunE:  runLearn,
	}
	learnCmd.Flags().StringVar(&flagLabel, "label", "urgency", "Label to correct (urgency, importance, spam, category)")
	learnCmd.Flags().IntVar(&flagClass, "class", 0, "Corrected class value")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop the trained classifier state for a user/label",
		RunE:  runReset,
	}
	resetCmd.Flags().StringVar(&flagLabel, "label", "urgency", "Label to reset")

	root.AddCommand(scoreCmd, learnCmd, resetCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildService(logger *zap.Logger) (*engine.Service, error) {
	var cfg *config.Config
	var err error

	if flagConfigFile != "" {
		cfg, err = config.NewFromFile(flagConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		logger.Info("Loaded configuration from file",
			zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	container, err := di.BuildContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency container: %w", err)
	}

	var svc *engine.Service
	if err := container.Invoke(func(s *engine.Service) { svc = s }); err != nil {
		return nil, err
	}
	return svc, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("embedding.provider", flagProvider)
	switch flagProvider {
	case "openai":
		v.Set("openai.api_key", flagOpenAIKey)
	case "gemini":
		v.Set("gemini.api_key", flagGeminiKey)
	case "bedrock":
		v.Set("bedrock.model_id", flagBedrockModel)
	}

	v.Set("state.type", flagStateType)
	if flagStatePath != "" {
		v.Set("state.sqlite_path", flagStatePath)
	}

	if flagVerbose {
		v.Set("logging.level", "debug")
	}
	if !flagJSONLog {
		v.Set("logging.format", "console")
	}

	return config.NewFromViper(v)
}

func runScore(cmd *cobra.Command, args []string) error {
	logger, err := logging.InitConsoleLogger(flagVerbose, flagJSONLog)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	svc, err := buildService(logger)
	if err != nil {
		return err
	}

	subject, body, sender, err := readMessage()
	if err != nil {
		return err
	}
	if flagSender != "" {
		sender = flagSender
	}

	input := core.ScoringInput{
		Subject:    subject,
		Body:       body,
		Sender:     sender,
		AccountID:  flagAccountID,
		UserID:     flagUserID,
		ReceivedAt: time.Now(),
	}

	fmt.Printf("\n=== Message ===\n")
	fmt.Printf("From: %s\n", sender)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(body))

	start := time.Now()
	result, err := svc.Score(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("failed to score message: %w", err)
	}

	fmt.Printf("\n=== Result ===\n")
	fmt.Printf("Urgency: %d\n", result.UrgencyScore)
	fmt.Printf("Importance: %d\n", result.ImportanceScore)
	fmt.Printf("Priority: %s\n", result.Priority)
	fmt.Printf("Confidence: %.4f\n", result.Confidence)
	fmt.Printf("Used classifier: %t\n", result.UsedClassifier)
	fmt.Printf("Processing ID: %s\n", result.ProcessingID)
	fmt.Printf("Processing time: %v\n", time.Since(start))
	return nil
}

func runLearn(cmd *cobra.Command, args []string) error {
	logger, err := logging.InitConsoleLogger(flagVerbose, flagJSONLog)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	svc, err := buildService(logger)
	if err != nil {
		return err
	}

	subject, body, _, err := readMessage()
	if err != nil {
		return err
	}

	event := core.CorrectionEvent{
		UserID:         flagUserID,
		AccountID:      flagAccountID,
		Label:          core.LabelType(flagLabel),
		CorrectedClass: flagClass,
		Subject:        subject,
		Body:           body,
	}

	if err := svc.Learn(cmd.Context(), event); err != nil {
		return fmt.Errorf("failed to apply correction: %w", err)
	}
	fmt.Printf("Correction applied: user=%s label=%s class=%d\n", flagUserID, flagLabel, flagClass)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	logger, err := logging.InitConsoleLogger(flagVerbose, flagJSONLog)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	svc, err := buildService(logger)
	if err != nil {
		return err
	}

	if err := svc.Reset(context.Background(), flagUserID, core.LabelType(flagLabel)); err != nil {
		return fmt.Errorf("failed to reset classifier state: %w", err)
	}
	fmt.Printf("Classifier state reset: user=%s label=%s\n", flagUserID, flagLabel)
	return nil
}

// readMessage parses the raw message from the input file or stdin and
// returns its subject, plain-text body and sender address.
func readMessage() (subject, body, sender string, err error) {
	var reader io.Reader = os.Stdin
	if flagInputFile != "" {
		file, err := os.Open(flagInputFile)
		if err != nil {
			return "", "", "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	mr, err := mail.CreateReader(reader)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to parse message: %w", err)
	}

	subject, _ = mr.Header.Subject()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		sender = from[0].Address
	}

	var parts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", "", fmt.Errorf("failed to read message part: %w", err)
		}
		if _, ok := part.Header.(*mail.InlineHeader); ok {
			content, err := io.ReadAll(part.Body)
			if err != nil {
				return "", "", "", fmt.Errorf("failed to read message body: %w", err)
			}
			parts = append(parts, string(content))
		}
	}
	return subject, strings.Join(parts, "\n"), sender, nil
}
