package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schoolcms/schoolcms/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI document",
		Long: `Generate the OpenAPI 3.0 document describing the public content API, the
admin API and the upload endpoints. The same document is served at /openapi.json.`,
		Example: `  schoolcms openapi                                  # print to stdout
  schoolcms openapi -o openapi.json                  # write to file
  schoolcms openapi --server https://school.example  # include a server URL`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(cmd, outputFile, baseURL)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write document to file instead of stdout")
	cmd.Flags().StringVar(&baseURL, "server", "", "Base URL listed under servers")

	return cmd
}

func runOpenAPI(cmd *cobra.Command, outputFile, baseURL string) error {
	doc := openapi.Generate(versionString(), baseURL)

	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal openapi document: %w", err)
	}
	jsonBytes = append(jsonBytes, '\n')

	if outputFile == "" {
		_, err := cmd.OutOrStdout().Write(jsonBytes)
		return err
	}
	if err := os.WriteFile(outputFile, jsonBytes, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputFile)
	return nil
}
