package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClauseLens/pkg/client"
)

func newDocumentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Manage uploaded contract documents",
	}

	cmd.AddCommand(
		newDocumentsListCommand(),
		newDocumentsGetCommand(),
		newDocumentsUploadCommand(),
		newDocumentsDeleteCommand(),
	)
	return cmd
}

func newDocumentsListCommand() *cobra.Command {
	var (
		page     int
		pageSize int
		status   string
		query    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			api, err := requireClient(cliCtx)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			list, err := api.Documents().List(ctx, &client.DocumentListQuery{
				Page:     page,
				PageSize: pageSize,
				Status:   status,
				Query:    query,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, &documentListOutput{DocumentList: list})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "documents per page")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, processing, ready, failed)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by file name substring")

	return cmd
}

func newDocumentsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <document-id>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			api, err := requireClient(cliCtx)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			doc, err := api.Documents().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, &documentOutput{Document: doc})
		},
	}
}

func newDocumentsUploadCommand() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a contract document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			api, err := requireClient(cliCtx)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			ct := contentType
			if ct == "" {
				ct = mime.TypeByExtension(filepath.Ext(args[0]))
			}
			if ct == "" {
				ct = "application/octet-stream"
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			doc, err := api.Documents().Upload(ctx, &client.UploadRequest{
				FileName:    filepath.Base(args[0]),
				ContentType: ct,
				Data:        data,
			})
			if err != nil {
				return err
			}

			PrintSuccess(cmd, fmt.Sprintf("uploaded %s as %s (status: %s)", doc.FileName, doc.ID, doc.Status))
			if doc.Status == "failed" && doc.ErrorMsg != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: text extraction failed: %s\n", doc.ErrorMsg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "media type of the file (default: derived from the extension)")
	return cmd
}

func newDocumentsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document and its stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			api, err := requireClient(cliCtx)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			if err := api.Documents().Delete(ctx, args[0]); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("document %s deleted", args[0]))
			return nil
		},
	}
}

// documentListOutput renders one page of documents.
type documentListOutput struct {
	*client.DocumentList
}

func (o *documentListOutput) TableHeaders() []string {
	return []string{"ID", "FILE", "STATUS", "SIZE", "CREATED"}
}

func (o *documentListOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Documents))
	for _, d := range o.Documents {
		rows = append(rows, []string{
			d.ID,
			truncate(d.FileName, 40),
			d.Status,
			formatSize(d.SizeBytes),
			d.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func (o *documentListOutput) String() string {
	var sb strings.Builder
	sb.WriteString(FormatTable(o.TableHeaders(), o.TableRows()))
	fmt.Fprintf(&sb, "\nPage %d of %d (%d document(s) total)\n", o.Page, o.TotalPages, o.Total)
	return sb.String()
}

// documentOutput renders a single document.
type documentOutput struct {
	*client.Document
}

func (o *documentOutput) TableHeaders() []string {
	return []string{"ID", "FILE", "STATUS", "SIZE", "CREATED"}
}

func (o *documentOutput) TableRows() [][]string {
	return [][]string{{
		o.ID,
		truncate(o.FileName, 40),
		o.Status,
		formatSize(o.SizeBytes),
		o.CreatedAt.Format("2006-01-02 15:04"),
	}}
}

func (o *documentOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID:           %s\n", o.ID)
	fmt.Fprintf(&sb, "File:         %s\n", o.FileName)
	fmt.Fprintf(&sb, "Content type: %s\n", o.ContentType)
	fmt.Fprintf(&sb, "Size:         %s\n", formatSize(o.SizeBytes))
	fmt.Fprintf(&sb, "Status:       %s\n", o.Status)
	if o.ErrorMsg != "" {
		fmt.Fprintf(&sb, "Error:        %s\n", o.ErrorMsg)
	}
	fmt.Fprintf(&sb, "Created:      %s\n", o.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Updated:      %s\n", o.UpdatedAt.Format("2006-01-02 15:04:05"))
	return sb.String()
}

// formatSize renders a byte count in binary units.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
