package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc", "docs"},
	Short:   "Manage handbook documents",
	Long: `List, show, create, update, delete and import handbook documents.

Every change rewrites the row store and invalidates the semantic index; the
next search rebuilds it.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get <doc-id>",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a document",
	Long: `Creates a document from --text or --file (use "-" to read stdin).
The text is split into passages of at most index.chunk_size characters.`,
	Args: cobra.NoArgs,
	RunE: runDocumentCreate,
}

var documentUpdateCmd = &cobra.Command{
	Use:   "update <doc-id>",
	Short: "Update a document",
	Long: `Replaces the title and text of a document. Fields that are not given
keep their current value.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentUpdate,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Create documents from files",
	Long: `Extracts text from .txt, .md, .html, .docx and .pdf files and creates one
document per file. The title comes from --title, the file's own title or
its name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentImport,
}

// Document flags.
var (
	docTitle       string
	docText        string
	docFile        string
	docDepartment  string
	docAccessLevel string
)

func init() {
	for _, c := range []*cobra.Command{documentCreateCmd, documentUpdateCmd} {
		c.Flags().StringVarP(&docTitle, "title", "t", "", "document title")
		c.Flags().StringVar(&docText, "text", "", "document text")
		c.Flags().StringVarP(&docFile, "file", "f", "", `read the text from a file ("-" for stdin)`)
		c.Flags().StringVar(&docDepartment, "department", "", "owning department")
		c.Flags().StringVar(&docAccessLevel, "access-level", "", "access level")
	}
	documentImportCmd.Flags().StringVarP(&docTitle, "title", "t", "", "title override (single file only)")
	documentImportCmd.Flags().StringVar(&docDepartment, "department", "", "owning department")
	documentImportCmd.Flags().StringVar(&docAccessLevel, "access-level", "", "access level")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentCreateCmd)
	documentCmd.AddCommand(documentUpdateCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentImportCmd)
	rootCmd.AddCommand(documentCmd)
}

// Structured document output, shaped like the HTTP API responses.
type (
	documentListOutput struct {
		Documents []domain.Document `json:"documents" yaml:"documents"`
	}
	documentGetOutput struct {
		Found    bool             `json:"found" yaml:"found"`
		Document *domain.Document `json:"document" yaml:"document"`
	}
	documentCreatedOutput struct {
		Created  bool             `json:"created" yaml:"created"`
		Document *domain.Document `json:"document" yaml:"document"`
	}
	documentUpdatedOutput struct {
		Updated  bool             `json:"updated" yaml:"updated"`
		Document *domain.Document `json:"document" yaml:"document"`
	}
	documentDeletedOutput struct {
		Deleted bool   `json:"deleted" yaml:"deleted"`
		DocID   string `json:"doc_id" yaml:"doc_id"`
	}
)

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	docs, err := documentService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}

	return render(cmd, documentListOutput{Documents: docs}, func(w io.Writer) {
		if len(docs) == 0 {
			fmt.Fprintln(w, "No documents found.")
			return
		}
		for i := range docs {
			fmt.Fprintf(w, "%-10s %-12s %-10s %s\n", docs[i].ID, docs[i].Department, docs[i].AccessLevel, docs[i].Title)
		}
		fmt.Fprintf(w, "\nTotal: %d documents\n", len(docs))
	})
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	docID := args[0]
	doc, found, err := documentService.Get(commandContext(cmd), docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if !found {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}

	return render(cmd, documentGetOutput{Found: true, Document: doc}, func(w io.Writer) {
		printDocument(w, doc)
	})
}

func runDocumentCreate(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	text, err := readDocumentText(cmd)
	if err != nil {
		return err
	}

	doc, err := documentService.Create(commandContext(cmd), driving.DocumentInput{
		Title:       docTitle,
		Text:        text,
		Department:  optional(cmd, "department", docDepartment),
		AccessLevel: optional(cmd, "access-level", docAccessLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return render(cmd, documentCreatedOutput{Created: true, Document: doc}, func(w io.Writer) {
		fmt.Fprintf(w, "Created %s (%s)\n", doc.ID, doc.Title)
	})
}

func runDocumentUpdate(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	ctx := commandContext(cmd)
	docID := args[0]
	current, found, err := documentService.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if !found {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}

	in := driving.DocumentInput{
		Title:       current.Title,
		Text:        current.Text,
		Department:  optional(cmd, "department", docDepartment),
		AccessLevel: optional(cmd, "access-level", docAccessLevel),
	}
	if cmd.Flags().Changed("title") {
		in.Title = docTitle
	}
	if cmd.Flags().Changed("text") || cmd.Flags().Changed("file") {
		if in.Text, err = readDocumentText(cmd); err != nil {
			return err
		}
	}

	doc, found, err := documentService.Update(ctx, docID, in)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if !found {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}

	return render(cmd, documentUpdatedOutput{Updated: true, Document: doc}, func(w io.Writer) {
		fmt.Fprintf(w, "Updated %s (%s)\n", doc.ID, doc.Title)
	})
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	docID := args[0]
	deleted, err := documentService.Delete(commandContext(cmd), docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if !deleted {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}

	return render(cmd, documentDeletedOutput{Deleted: true, DocID: docID}, func(w io.Writer) {
		fmt.Fprintf(w, "Deleted %s\n", docID)
	})
}

func runDocumentImport(cmd *cobra.Command, args []string) error {
	if importService == nil {
		return errNotConfigured("import")
	}
	if docTitle != "" && len(args) > 1 {
		return fmt.Errorf("%w: --title needs exactly one file", domain.ErrInvalidInput)
	}

	ctx := commandContext(cmd)
	in := driving.DocumentInput{
		Title:       docTitle,
		Department:  optional(cmd, "department", docDepartment),
		AccessLevel: optional(cmd, "access-level", docAccessLevel),
	}

	created := make([]domain.Document, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		doc, err := importService.Import(ctx, filepath.Base(path), data, in)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		created = append(created, *doc)
	}

	return render(cmd, documentListOutput{Documents: created}, func(w io.Writer) {
		for i := range created {
			fmt.Fprintf(w, "Imported %s as %s (%s)\n", args[i], created[i].ID, created[i].Title)
		}
	})
}

// readDocumentText returns --text, or the contents of --file.
func readDocumentText(cmd *cobra.Command) (string, error) {
	switch {
	case docFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case docFile != "":
		data, err := os.ReadFile(docFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", docFile, err)
		}
		return string(data), nil
	default:
		return docText, nil
	}
}

// optional returns a pointer to value when the flag was given.
func optional(cmd *cobra.Command, flag, value string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

func printDocument(w io.Writer, doc *domain.Document) {
	fmt.Fprintf(w, "Document: %s\n\n", doc.ID)
	fmt.Fprintf(w, "  Title:        %s\n", doc.Title)
	fmt.Fprintf(w, "  Department:   %s\n", doc.Department)
	fmt.Fprintf(w, "  Access level: %s\n", doc.AccessLevel)
	fmt.Fprintf(w, "  Created:      %s\n", doc.CreatedAt)
	fmt.Fprintf(w, "  Updated:      %s\n", doc.UpdatedAt)
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.TrimSpace(doc.Text))
}
