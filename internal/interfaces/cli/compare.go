package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClauseLens/internal/application/comparison"
	domainComparison "github.com/turtacn/ClauseLens/internal/domain/comparison"
	"github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
	"github.com/turtacn/ClauseLens/internal/intelligence/doc_extractor"
)

func newCompareCommand() *cobra.Command {
	var (
		analysisURL   string
		analysisModel string
		analysisKey   string
		concurrency   int
	)

	cmd := &cobra.Command{
		Use:   "compare <client-file> <vendor-file>",
		Short: "Compare two contract files clause by clause",
		Long:  "Compare runs the comparison pipeline locally on two plain-text\ncontract files: the client draft and the vendor draft. Clauses are\nsegmented, classified and matched across the two files; each client\nclause receives an alignment status and a risk level.\n\nWithout an analysis backend the built-in heuristic analyzer produces\nthe clause summaries. Point --analysis-url at an OpenAI-compatible\nendpoint to use a remote model instead.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			clientText, err := readContractFile(ctx, args[0])
			if err != nil {
				return err
			}
			vendorText, err := readContractFile(ctx, args[1])
			if err != nil {
				return err
			}

			analyzer, err := buildAnalyzer(analysisURL, analysisModel, analysisKey, cliCtx)
			if err != nil {
				return err
			}

			orch := comparison.NewOrchestrator(analyzer, concurrency, nil, cliCtx.Logger)
			results, err := orch.Compare(ctx, clientText, vendorText)
			if err != nil {
				return err
			}

			report := comparison.NewReportBuilder(nil).Build("local", results)
			return PrintResult(cmd, &compareOutput{
				ClientFile: args[0],
				VendorFile: args[1],
				Results:    results,
				Report:     report,
			})
		},
	}

	cmd.Flags().StringVar(&analysisURL, "analysis-url", "", "OpenAI-compatible analysis endpoint (default: built-in heuristics)")
	cmd.Flags().StringVar(&analysisModel, "analysis-model", "", "model name for the analysis endpoint")
	cmd.Flags().StringVar(&analysisKey, "analysis-key", "", "API key for the analysis endpoint")
	cmd.Flags().IntVar(&concurrency, "concurrency", comparison.DefaultAnalysisConcurrency, "concurrent clause analyses")

	return cmd
}

// readContractFile loads a local file and extracts its normalized text.
func readContractFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "text/plain"
	}

	text, err := doc_extractor.NewPlainTextExtractor().Extract(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	return text, nil
}

// buildAnalyzer selects the clause analyzer: the --analysis-url flag wins,
// then the analysis section of the configuration, then local heuristics.
func buildAnalyzer(baseURL, model, apiKey string, cliCtx *CLIContext) (counsel_gpt.Analyzer, error) {
	cfg := counsel_gpt.DefaultConfig()

	if baseURL == "" && cliCtx.Config != nil && cliCtx.Config.Analysis.Backend == "http" {
		baseURL = cliCtx.Config.Analysis.BaseURL
		if model == "" {
			model = cliCtx.Config.Analysis.Model
		}
		if apiKey == "" {
			apiKey = cliCtx.Config.Analysis.APIKey
		}
	}
	if baseURL == "" {
		return counsel_gpt.NewHeuristicAnalyzer(), nil
	}

	cfg.BaseURL = baseURL
	if model != "" {
		cfg.Model = model
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	return counsel_gpt.NewHTTPAnalyzer(cfg, cliCtx.Logger)
}

// compareOutput is the printable result of one local comparison.
type compareOutput struct {
	ClientFile string                    `json:"client_file"`
	VendorFile string                    `json:"vendor_file"`
	Results    []domainComparison.Result `json:"results"`
	Report     *domainComparison.Report  `json:"report"`
}

func (o *compareOutput) TableHeaders() []string {
	return []string{"#", "CLAUSE", "TYPE", "STATUS", "RISK", "SCORE"}
}

func (o *compareOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Results))
	for i, r := range o.Results {
		score := "-"
		if r.Score != nil {
			score = fmt.Sprintf("%.2f", *r.Score)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			truncate(r.Title, 40),
			r.ClauseType.String(),
			r.Status.String(),
			r.Risk.String(),
			score,
		})
	}
	return rows
}

// String renders the clause table followed by the overall and per-category
// summaries.
func (o *compareOutput) String() string {
	var sb strings.Builder
	sb.WriteString(FormatTable(o.TableHeaders(), o.TableRows()))

	if o.Report == nil {
		return sb.String()
	}

	ov := o.Report.Overall
	fmt.Fprintf(&sb, "\nOverall: %d aligned, %d partial, %d non-compliant, %d missing\n",
		ov.Aligned, ov.Partial, ov.NonCompliant, ov.Missing)

	for _, cat := range o.Report.Categories {
		fmt.Fprintf(&sb, "  %-20s %d aligned, %d partial, %d non-compliant, %d missing",
			cat.Category, cat.Aligned, cat.Partial, cat.NonCompliant, cat.Missing)
		if cat.HighRisk > 0 {
			fmt.Fprintf(&sb, ", %d high risk", cat.HighRisk)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
