// Package documents implements the document specialist, which prepares the
// Articles of Organization and the Operating Agreement.
package documents

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/adalundhe/llcguide/core/capability"
	"github.com/adalundhe/llcguide/core/conversation"
)

// Name is the registry key of the document specialist
const Name = conversation.AgentDocumentSpecialist

// Drafting styles recorded for each document
const (
	DraftTemplate = "template"
	DraftCustom   = "custom"
)

// Config holds configuration for the document specialist
type Config struct {
	Capabilities capability.Set
	Logger       *slog.Logger // Optional, uses slog.Default() if nil
}

// Specialist is the document specialist agent
type Specialist struct {
	caps   capability.Set
	logger *slog.Logger
}

// New creates a document specialist
func New(cfg Config) *Specialist {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Specialist{
		caps:   cfg.Capabilities,
		logger: cfg.Logger.With("agent", Name),
	}
}

var (
	articlesPattern  = regexp.MustCompile(`(?i)\barticles?\b|\bcertificate of formation\b`)
	agreementPattern = regexp.MustCompile(`(?i)\boperating agreement\b|\bagreement\b`)
	bothPattern      = regexp.MustCompile(`(?i)\b(?:both|all (?:of )?(?:them|the documents)|everything)\b`)
	confirmPattern   = regexp.MustCompile(`(?i)\b(?:yes|draft|prepare|generate|use|create|ready|done|ok(?:ay)?|sounds good|template|custom)\b`)
	customPattern    = regexp.MustCompile(`(?i)\bcustom`)
	negationPattern  = regexp.MustCompile(`(?i)\b(?:no|not|don't|dont|do not|won't|wont|never|skip|later|wait|hold off)\b`)
	clauseSplit      = regexp.MustCompile(`(?i)[.,;!?]|\bbut\b|\bhowever\b`)
)

type document struct {
	key   string
	title string
}

var documentOrder = []document{
	{"articles", "Articles of Organization"},
	{"operating_agreement", "Operating Agreement"},
}

// Process records which documents the user has agreed to prepare and offers
// the next one.
func (s *Specialist) Process(ctx context.Context, input string, info conversation.Info) (*conversation.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := s.confirmations(input, info)
	known := info.Clone()
	known.Merge(found)

	for _, doc := range documentOrder {
		if found.Has(doc.key) {
			s.logger.Debug("document confirmed", "document", doc.key, "style", found.String(doc.key))
		}
	}

	for _, doc := range documentOrder {
		if !known.Has(doc.key) {
			return &conversation.AgentResponse{
				Message:       s.offer(doc, known),
				Actions:       s.actions(),
				CollectedInfo: found,
			}, nil
		}
	}

	return &conversation.AgentResponse{
		Message: "Your Articles of Organization and Operating Agreement are ready for review. " +
			"Next, we'll do a final legal review before filing.",
		CollectedInfo: found,
	}, nil
}

// confirmations decides which documents input agrees to prepare, clause by
// clause. Naming a document in a confirming clause settles it; a bare
// confirmation settles the next outstanding document. Negated clauses settle
// nothing and keep the documents they name from being settled by a bare
// confirmation.
func (s *Specialist) confirmations(input string, info conversation.Info) conversation.Info {
	found := conversation.Info{}

	style := DraftTemplate
	if customPattern.MatchString(input) && s.caps.Has(capability.DocumentProcessing) {
		style = DraftCustom
	}

	bare := false
	declined := map[string]bool{}
	for _, clause := range clauseSplit.Split(input, -1) {
		docs := namedDocuments(clause)
		if negationPattern.MatchString(clause) {
			for _, key := range docs {
				declined[key] = true
			}
			continue
		}
		if !confirmPattern.MatchString(clause) {
			continue
		}
		if len(docs) == 0 {
			bare = true
			continue
		}
		for _, key := range docs {
			found[key] = style
		}
	}
	if len(found) > 0 || !bare {
		return found
	}

	for _, doc := range documentOrder {
		if !info.Has(doc.key) && !declined[doc.key] {
			found[doc.key] = style
			break
		}
	}
	return found
}

func namedDocuments(clause string) []string {
	if bothPattern.MatchString(clause) {
		keys := make([]string, len(documentOrder))
		for i, doc := range documentOrder {
			keys[i] = doc.key
		}
		return keys
	}
	var keys []string
	if articlesPattern.MatchString(clause) {
		keys = append(keys, "articles")
	}
	if agreementPattern.MatchString(clause) {
		keys = append(keys, "operating_agreement")
	}
	return keys
}

func (s *Specialist) offer(doc document, known conversation.Info) string {
	subject := "your LLC"
	if name := known.String("business_name"); name != "" {
		subject = name
	}

	if s.caps.Has(capability.DocumentProcessing) {
		return "I can draft customized " + doc.title + " for " + subject +
			" based on the details you've shared. Would you like a standard template or a custom draft?"
	}
	return "I'll help you prepare the " + doc.title + " for " + subject +
		". I can start you with a basic template. Shall I prepare it?"
}

func (s *Specialist) actions() []conversation.Action {
	if s.caps.Has(capability.DocumentProcessing) {
		return conversation.Actions("Standard Template", "Custom Draft")
	}
	return conversation.Actions("Use Template", "Skip For Now")
}
