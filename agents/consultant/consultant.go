// Package consultant implements the business consultant agent, which owns
// the BUSINESS_INFO and INDUSTRY_SELECTION stages.
package consultant

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/adalundhe/llcguide/core/capability"
	"github.com/adalundhe/llcguide/core/conversation"
)

// Name is the registry key of the business consultant
const Name = conversation.AgentBusinessConsultant

// Config holds configuration for the business consultant
type Config struct {
	Capabilities capability.Set
	Logger       *slog.Logger // Optional, uses slog.Default() if nil
}

// Consultant collects the business name, business type and industry and
// offers market research and business plan guidance along the way.
type Consultant struct {
	caps   capability.Set
	logger *slog.Logger
}

// New creates a business consultant
func New(cfg Config) *Consultant {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Consultant{
		caps:   cfg.Capabilities,
		logger: cfg.Logger.With("agent", Name),
	}
}

var (
	namePattern       = regexp.MustCompile(`(?i)\b(?:called|named|name is|name's)\s+["']?([^"'.,!?;\n]+)`)
	designatorPattern = regexp.MustCompile(`(?i)\b(?:llc|l\.l\.c\.?|limited liability company)\s*$`)
	marketPattern     = regexp.MustCompile(`(?i)\b(?:market|competition|competitors?)\b`)
	planPattern       = regexp.MustCompile(`(?i)\bbusiness plan\b`)
)

// keyword maps a fact value to the word prefixes that imply it
type keyword struct {
	value   string
	pattern *regexp.Regexp
}

func keywords(value string, prefixes ...string) keyword {
	return keyword{
		value:   value,
		pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(prefixes, "|") + `)`),
	}
}

var businessTypes = []keyword{
	keywords("service", "services?\\b"),
	keywords("product", "products?\\b", "manufactur", "goods\\b"),
	keywords("online", "online", "e-?commerce", "internet"),
	keywords("professional", "professional", "practice\\b"),
}

var industries = []keyword{
	keywords("technology", "software", "technology", "tech\\b", "saas", "apps?\\b"),
	keywords("healthcare", "health", "medical", "clinic", "dental", "therap"),
	keywords("food_service", "restaurant", "cafe", "food", "catering", "baker"),
	keywords("retail", "retail", "store", "shop", "boutique"),
	keywords("construction", "construction", "contractor", "plumbing", "roofing"),
	keywords("real_estate", "real estate", "propert", "rental", "realty"),
	keywords("consulting", "consult", "advisory"),
	keywords("creative", "design", "photograph", "marketing", "media"),
	keywords("professional_services", "professional services?"),
}

var stopWords = map[string]struct{}{
	"and": {}, "but": {}, "which": {}, "that": {}, "because": {}, "so": {},
}

var businessTypeActions = []string{
	"Service-based Business",
	"Product-based Business",
	"Online Business",
	"Professional Practice",
}

// Process extracts business facts from input and prompts for whatever is
// still missing.
func (c *Consultant) Process(ctx context.Context, input string, info conversation.Info) (*conversation.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := strings.ToLower(input)
	found := extract(input, lower, info)
	known := info.Clone()
	known.Merge(found)

	if len(found) > 0 {
		c.logger.Debug("collected business facts", "keys", found.Keys())
	}

	resp := c.respond(lower, known)
	resp.CollectedInfo = found
	return resp, nil
}

func (c *Consultant) respond(lower string, known conversation.Info) *conversation.AgentResponse {
	switch {
	case marketPattern.MatchString(lower):
		return c.marketResearch()
	case planPattern.MatchString(lower):
		return c.businessPlan()
	case !known.Has("business_name"):
		return &conversation.AgentResponse{
			Message: "Let's start with the basics. What would you like to call your business?",
		}
	case !known.Has("business_type"):
		return c.askBusinessType(known.String("business_name"))
	case !known.Has("industry"):
		return &conversation.AgentResponse{
			Message: "Which industry will " + known.String("business_name") + " operate in? " +
				"Some industries carry extra licensing requirements, so this helps me tailor the next steps.",
			Actions: conversation.Actions("Technology", "Retail", "Food Service", "Professional Services"),
		}
	}

	msg := "Great! I have all the information needed for your business consultation. " +
		"Let's move on to selecting your state of formation."
	if name := known.String("business_name"); name != "" && !designatorPattern.MatchString(name) {
		msg += " Remember that the name you file must end with a designator such as \"LLC\" (for example \"" +
			name + " LLC\")."
	}
	return &conversation.AgentResponse{Message: msg}
}

func (c *Consultant) askBusinessType(name string) *conversation.AgentResponse {
	if c.caps.Has(capability.AdvancedNLP) {
		return &conversation.AgentResponse{
			Message: "Let me analyze your business needs. What type of business is " + name + "?",
			Actions: conversation.Actions(businessTypeActions...),
		}
	}
	return &conversation.AgentResponse{
		Message: "What type of business would you like to start?",
		Actions: conversation.Actions(businessTypeActions...),
	}
}

func (c *Consultant) marketResearch() *conversation.AgentResponse {
	if c.caps.Has(capability.DataLookup) {
		return &conversation.AgentResponse{
			Message: "I can perform detailed market research for your business. " +
				"Would you like me to analyze the competition in your area?",
			Actions: conversation.Actions("Analyze Competition", "Skip Market Research"),
		}
	}
	return &conversation.AgentResponse{
		Message: "Would you like some guidance on how to research your market?",
		Actions: conversation.Actions("Get Research Tips", "Skip Market Research"),
	}
}

func (c *Consultant) businessPlan() *conversation.AgentResponse {
	if c.caps.Has(capability.DocumentProcessing) {
		return &conversation.AgentResponse{
			Message: "Based on your business type and market research, " +
				"I can help you create a customized business plan. " +
				"Would you like to start with a template?",
			Actions: conversation.Actions("Use Template", "Custom Plan"),
		}
	}
	return &conversation.AgentResponse{
		Message: "I can provide you with a basic business plan template. Would you like to use it?",
		Actions: conversation.Actions("Use Template", "Skip Business Plan"),
	}
}

// extract returns the facts found in input. An explicit name ("called X")
// replaces an earlier one; business type and industry are only inferred while
// still unknown.
func extract(input, lower string, info conversation.Info) conversation.Info {
	found := conversation.Info{}

	if m := namePattern.FindStringSubmatch(input); m != nil {
		if name := cleanName(m[1]); name != "" {
			found["business_name"] = name
		}
	}
	if !info.Has("business_type") {
		if v := firstMatch(lower, businessTypes); v != "" {
			found["business_type"] = v
		}
	}
	// Industry is only inferred once the business is described, so a name
	// like "Tech Bakery" does not settle it on the first turn.
	if !info.Has("industry") && (info.Has("business_type") || found.Has("business_type")) {
		if v := firstMatch(lower, industries); v != "" {
			found["industry"] = v
		}
	}
	return found
}

func cleanName(raw string) string {
	words := strings.Fields(raw)
	for i, w := range words {
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			words = words[:i]
			break
		}
	}
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}

func firstMatch(lower string, table []keyword) string {
	for _, k := range table {
		if k.pattern.MatchString(lower) {
			return k.value
		}
	}
	return ""
}
