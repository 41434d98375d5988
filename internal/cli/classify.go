package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andreyxaxa/Asset-Pipeline/internal/app"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/classifier"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <name>...",
	Short: "Show how file names would be classified",
	Long: `Show the extension and category each file name would be stored under,
using the extension lists from the environment.

Examples:
  assetctl classify song.WAV cover.webp notes
  AUDIO_EXTENSIONS=mp3,opus assetctl classify voice.opus`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printClassification(cmd.OutOrStdout(), app.Classifier(cfg.Classifier), args)
	},
}

func printClassification(w io.Writer, c *classifier.Classifier, names []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tEXTENSION\tCATEGORY")
	for _, name := range names {
		ext := classifier.ExtensionOf(name)
		if ext == "" {
			fmt.Fprintf(tw, "%s\t-\t%s\n", name, c.Classify(ext))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, ext, c.Classify(ext))
	}

	return tw.Flush()
}
