package cmd

import (
	"encoding/json"
	"strings"

	"github.com/adalundhe/llcguide/core/intent"
	"github.com/spf13/cobra"
)

// classification is the JSON printed by the classify command
type classification struct {
	Text       string            `json:"text"`
	Intent     intent.Intent     `json:"intent"`
	Confidence float64           `json:"confidence"`
	Recognized bool              `json:"recognized"`
	Entities   intent.Entities   `json:"entities"`
	Urgency    intent.Urgency    `json:"urgency"`
	Complexity intent.Complexity `json:"complexity"`
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify a message without starting a conversation",
		Long: `Classify prints the intent, confidence, extracted entities, urgency and
complexity the assistant would see for a message.

Examples:
  llcguide classify "how much does it cost to form an LLC"
  llcguide classify --compact "we need to file in Texas asap"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configs, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer configs.Close()

			text := strings.Join(args, " ")
			out := classify(text, configs.Get().Conversation.RecognitionThreshold)

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print JSON on a single line")
	return cmd
}

func classify(text string, threshold float64) classification {
	result := intent.NewClassifier(nil).Classify(text)
	return classification{
		Text:       text,
		Intent:     result.Intent,
		Confidence: result.Confidence,
		Recognized: result.Recognized(threshold),
		Entities:   intent.ExtractEntities(text),
		Urgency:    intent.DetectUrgency(text),
		Complexity: intent.AssessComplexity(text),
	}
}
