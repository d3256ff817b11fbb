package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/docuscan/internal/bootstrap"
	"github.com/kirillkom/docuscan/internal/config"
	"github.com/kirillkom/docuscan/internal/core/classification"
	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/infrastructure/extractor"
	"github.com/kirillkom/docuscan/internal/observability/logging"
)

type classifyFlags struct {
	caseType   string
	urgency    string
	clientName string
	lexicon    string
	format     string
	compact    bool
	verbose    bool
	explain    bool
}

func classifyCmd() *cobra.Command {
	var flags classifyFlags

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Extract and classify one document, printing the result as JSON",
		Long: "Reads a .txt, .md, .pdf or .docx file (or stdin when the argument is \"-\" or omitted)\n" +
			"and prints the classification result as JSON.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runClassify(cmd, path, flags)
		},
	}
	cmd.Flags().StringVar(&flags.caseType, "case-type", "", "case type hint")
	cmd.Flags().StringVar(&flags.urgency, "urgency", "", "urgency hint")
	cmd.Flags().StringVar(&flags.clientName, "client", "", "client name hint")
	cmd.Flags().StringVar(&flags.lexicon, "lexicon", "", "lexicon override YAML file")
	cmd.Flags().StringVar(&flags.format, "format", "", "input format (text, pdf, docx); detected from the extension by default")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "print compact JSON")
	cmd.Flags().BoolVar(&flags.explain, "explain", false, "include raw case-type and urgency scores")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log pipeline diagnostics to stderr")
	return cmd
}

func runClassify(cmd *cobra.Command, path string, flags classifyFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.lexicon != "" {
		cfg.Classification.LexiconPath = flags.lexicon
	}

	format, err := resolveFormat(path, flags.format)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	hints, err := domain.ClassificationHints{
		CaseType:   flags.caseType,
		Urgency:    flags.urgency,
		ClientName: flags.clientName,
	}.Normalize()
	if err != nil {
		return err
	}

	level := "error"
	if flags.verbose {
		level = "debug"
	}
	logger, err := logging.New("cli", level, "console")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	extracted, err := extractor.ExtractBytes(ctx, format, raw)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	pipeline, err := bootstrap.NewClassifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	result := pipeline.Classify(ctx, domain.ClassificationInput{Text: extracted.Text, Hints: hints})

	var payload any = result
	if flags.explain {
		payload = explainedResult{Result: result, Explanation: pipeline.Explain(extracted.Text)}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	if !flags.compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(payload)
}

type explainedResult struct {
	Result      domain.ClassificationResult `json:"result"`
	Explanation classification.Explanation  `json:"explanation"`
}

func resolveFormat(path, explicit string) (extractor.Format, error) {
	if explicit != "" {
		format := extractor.Format(strings.ToLower(strings.TrimSpace(explicit)))
		switch format {
		case extractor.FormatText, extractor.FormatPDF, extractor.FormatDOCX:
			return format, nil
		}
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "classify", fmt.Errorf("format %q", explicit))
	}
	if path == "-" {
		return extractor.FormatText, nil
	}
	format, ok := extractor.DetectFormat(filepath.Base(path), "")
	if !ok {
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "classify", fmt.Errorf("cannot detect format of %s; supported: %s",
			path, strings.Join(extractor.SupportedExtensions(), ", ")))
	}
	return format, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(io.LimitReader(stdin, extractor.DefaultMaxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if int64(len(raw)) > extractor.DefaultMaxBytes {
			return nil, domain.WrapError(domain.ErrInvalidInput, "classify", fmt.Errorf("input exceeds %d bytes", extractor.DefaultMaxBytes))
		}
		return raw, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > extractor.DefaultMaxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "classify", fmt.Errorf("%s exceeds %d bytes", path, extractor.DefaultMaxBytes))
	}
	return os.ReadFile(path)
}
