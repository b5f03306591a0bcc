package documents

import (
	"context"
	"testing"

	"github.com/adalundhe/llcguide/core/capability"
	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecialist_OffersArticlesFirst(t *testing.T) {
	resp, err := New(Config{}).Process(context.Background(), "what's next", conversation.Info{"business_name": "Acme"})
	require.NoError(t, err)

	assert.Empty(t, resp.CollectedInfo)
	assert.Contains(t, resp.Message, "Articles of Organization for Acme")
	assert.Equal(t, conversation.Actions("Use Template", "Skip For Now"), resp.Actions)
}

func TestSpecialist_BareConfirmationSettlesNextDocument(t *testing.T) {
	s := New(Config{})

	resp, err := s.Process(context.Background(), "Use Template", conversation.Info{})
	require.NoError(t, err)
	assert.Equal(t, conversation.Info{"articles": DraftTemplate}, resp.CollectedInfo)
	assert.Contains(t, resp.Message, "Operating Agreement")

	resp, err = s.Process(context.Background(), "yes", conversation.Info{"articles": DraftTemplate})
	require.NoError(t, err)
	assert.Equal(t, conversation.Info{"operating_agreement": DraftTemplate}, resp.CollectedInfo)
	assert.Contains(t, resp.Message, "ready for review")
}

func TestSpecialist_NamedDocuments(t *testing.T) {
	resp, err := New(Config{}).Process(context.Background(), "please draft the operating agreement", conversation.Info{})
	require.NoError(t, err)
	assert.Equal(t, conversation.Info{"operating_agreement": DraftTemplate}, resp.CollectedInfo)
	assert.Contains(t, resp.Message, "Articles of Organization")

	resp, err = New(Config{}).Process(context.Background(), "prepare both", conversation.Info{})
	require.NoError(t, err)
	assert.Equal(t, conversation.Info{"articles": DraftTemplate, "operating_agreement": DraftTemplate}, resp.CollectedInfo)
}

func TestSpecialist_CustomDraftNeedsCapability(t *testing.T) {
	resp, err := New(Config{}).Process(context.Background(), "custom articles", conversation.Info{})
	require.NoError(t, err)
	assert.Equal(t, DraftTemplate, resp.CollectedInfo.String("articles"))

	s := New(Config{Capabilities: capability.NewSet(capability.DocumentProcessing)})
	resp, err = s.Process(context.Background(), "custom articles", conversation.Info{})
	require.NoError(t, err)
	assert.Equal(t, DraftCustom, resp.CollectedInfo.String("articles"))
	assert.Equal(t, conversation.Actions("Standard Template", "Custom Draft"), resp.Actions)
}

func TestSpecialist_QuestionsDoNotConfirm(t *testing.T) {
	resp, err := New(Config{}).Process(context.Background(), "what is an operating agreement?", conversation.Info{})
	require.NoError(t, err)
	assert.Empty(t, resp.CollectedInfo)
}

func TestSpecialist_NegationsDoNotConfirm(t *testing.T) {
	for _, input := range []string{
		"I'm not ready for the articles yet",
		"don't create the operating agreement",
		"no, I don't want to use a template",
	} {
		t.Run(input, func(t *testing.T) {
			resp, err := New(Config{}).Process(context.Background(), input, conversation.Info{})
			require.NoError(t, err)
			assert.Empty(t, resp.CollectedInfo)
		})
	}
}

func TestSpecialist_MixedClauses(t *testing.T) {
	resp, err := New(Config{}).Process(context.Background(),
		"use the template for the articles, but not the agreement yet", conversation.Info{})
	require.NoError(t, err)
	assert.Equal(t, conversation.Info{"articles": DraftTemplate}, resp.CollectedInfo)

	resp, err = New(Config{}).Process(context.Background(),
		"yes, but skip the articles for now", conversation.Info{})
	require.NoError(t, err)
	assert.Equal(t, conversation.Info{"operating_agreement": DraftTemplate}, resp.CollectedInfo)
}
