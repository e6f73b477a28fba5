package graphql

import (
	"context"
	"strings"
	"testing"

	"github.com/brbranch/builder_profile/internal/builderprofile"
	"github.com/brbranch/builder_profile/internal/service"
	"github.com/brbranch/builder_profile/internal/store"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testEnv struct {
	store     store.Store
	schema    *Schema
	drives    service.DriveService
	documents service.DocumentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, s.Initialize(context.Background(), "test"))
	drives := service.NewDriveService(s)
	documents := service.NewDocumentService(s, service.DefaultRegistry(), drives, nil, zaptest.NewLogger(t))

	schema, err := NewSchema(documents, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = drives.AddDrive(context.Background(), &service.AddDriveRequest{ID: "drive-1", Name: "Drive 1"})
	require.NoError(t, err)

	return &testEnv{store: s, schema: schema, drives: drives, documents: documents}
}

func (e *testEnv) exec(t *testing.T, query string, vars map[string]interface{}) *graphql.Result {
	t.Helper()
	return e.schema.Execute(context.Background(), query, vars)
}

func (e *testEnv) mustExec(t *testing.T, query string, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	res := e.exec(t, query, vars)
	require.Empty(t, res.Errors, "unexpected errors: %v", res.Errors)
	return res.Data.(map[string]interface{})
}

func (e *testEnv) createProfile(t *testing.T, name string) string {
	t.Helper()
	data := e.mustExec(t, `mutation($name: String!, $driveId: String) {
		BuilderProfile_createDocument(name: $name, driveId: $driveId)
	}`, map[string]interface{}{"name": name, "driveId": "drive-1"})
	id, ok := data["BuilderProfile_createDocument"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

func errorMessage(t *testing.T, res *graphql.Result) string {
	t.Helper()
	require.NotEmpty(t, res.Errors)
	return res.Errors[0].Message
}

func TestCreateDocument_AddsToDrive(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProfile(t, "Acme")

	ids, err := env.documents.GetDocumentIDs(context.Background(), "drive-1")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	doc, err := env.documents.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", doc.Header.Name)
	assert.Equal(t, builderprofile.DocumentType, doc.Header.DocumentType)
}

func TestGetDocument(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProfile(t, "Acme")

	data := env.mustExec(t, `mutation($docId: ID, $input: BuilderProfile_UpdateProfileInput) {
		BuilderProfile_updateProfile(docId: $docId, input: $input)
	}`, map[string]interface{}{
		"docId": id,
		"input": map[string]interface{}{"name": "Acme Builders", "slug": "acme", "status": "ACTIVE", "about": "**Bold** team"},
	})
	assert.Equal(t, 2, data["BuilderProfile_updateProfile"])

	data = env.mustExec(t, `query($docId: ID!, $driveId: ID) {
		BuilderProfile {
			getDocument(docId: $docId, driveId: $driveId) {
				driveId id name documentType revision created lastModified
				state { name slug status type isOperator skills scopes contributors links { id } }
				stateJSON
				aboutHTML
			}
		}
	}`, map[string]interface{}{"docId": id, "driveId": "drive-1"})

	doc := data["BuilderProfile"].(map[string]interface{})["getDocument"].(map[string]interface{})
	assert.Equal(t, "drive-1", doc["driveId"])
	assert.Equal(t, id, doc["id"])
	assert.Equal(t, "Acme", doc["name"])
	assert.Equal(t, builderprofile.DocumentType, doc["documentType"])
	assert.Equal(t, 2, doc["revision"])
	assert.NotEmpty(t, doc["created"])

	state := doc["state"].(map[string]interface{})
	assert.Equal(t, "Acme Builders", state["name"])
	assert.Equal(t, "acme", state["slug"])
	assert.Equal(t, "ACTIVE", state["status"])
	assert.Equal(t, "INDIVIDUAL", state["type"])
	assert.Equal(t, false, state["isOperator"])
	assert.Empty(t, state["skills"])

	stateJSON := doc["stateJSON"].(map[string]interface{})
	assert.Equal(t, "Acme Builders", stateJSON["name"])

	html, _ := doc["aboutHTML"].(string)
	assert.Contains(t, html, "<strong>Bold</strong>")
}

func TestGetDocument_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProfile(t, "Acme")
	_, err := env.drives.AddDrive(context.Background(), &service.AddDriveRequest{ID: "drive-2", Name: "Drive 2"})
	require.NoError(t, err)

	query := `query($docId: ID!, $driveId: ID) {
		BuilderProfile { getDocument(docId: $docId, driveId: $driveId) { id } }
	}`

	tests := []struct {
		name string
		vars map[string]interface{}
		want string
	}{
		{"empty id", map[string]interface{}{"docId": ""}, "Document id is required"},
		{"wrong drive", map[string]interface{}{"docId": id, "driveId": "drive-2"}, "Document with id " + id + " is not part of drive-2"},
		{"missing", map[string]interface{}{"docId": "missing"}, "Document not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(t, env.exec(t, query, tt.vars)))
		})
	}
}

func TestGetDocuments_FiltersBuilderProfiles(t *testing.T) {
	env := newTestEnv(t)
	first := env.createProfile(t, "First")
	second := env.createProfile(t, "Second")

	data := env.mustExec(t, `query($driveId: String!) {
		BuilderProfile { getDocuments(driveId: $driveId) { id name driveId } }
	}`, map[string]interface{}{"driveId": "drive-1"})

	docs := data["BuilderProfile"].(map[string]interface{})["getDocuments"].([]interface{})
	require.Len(t, docs, 2)
	assert.Equal(t, first, docs[0].(map[string]interface{})["id"])
	assert.Equal(t, second, docs[1].(map[string]interface{})["id"])
	assert.Equal(t, "drive-1", docs[0].(map[string]interface{})["driveId"])
}

// TestGetDocuments_KeepsProfileWithUnknownEnum は保存済みstateの値に関わらずdocumentTypeで絞り込むことをテスト
func TestGetDocuments_KeepsProfileWithUnknownEnum(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProfile(t, "Legacy")

	ctx := context.Background()
	doc, err := env.store.GetDocument(ctx, id)
	require.NoError(t, err)
	doc.State.Global = []byte(`{"name":"Legacy","type":"GUILD","status":"RETIRED","isOperator":false,"skills":[],"scopes":[],"links":[],"contributors":[]}`)
	require.NoError(t, env.store.UpdateDocument(ctx, doc))
	require.False(t, builderprofile.IsDocument(doc))

	data := env.mustExec(t, `{ BuilderProfile { getDocuments(driveId: "drive-1") { id name } } }`, nil)
	docs := data["BuilderProfile"].(map[string]interface{})["getDocuments"].([]interface{})
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].(map[string]interface{})["id"])
}

func TestGetDocuments_UnknownDrive(t *testing.T) {
	env := newTestEnv(t)
	res := env.exec(t, `{ BuilderProfile { getDocuments(driveId: "nope") { id } } }`, nil)
	assert.NotEmpty(t, res.Errors)
}

func TestOperationMutations(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProfile(t, "Acme")

	steps := []struct {
		mutation string
		input    map[string]interface{}
		inputTyp string
	}{
		{"BuilderProfile_addSkill", map[string]interface{}{"skill": "FRONTEND_DEVELOPMENT"}, "BuilderProfile_AddSkillInput"},
		{"BuilderProfile_addScope", map[string]interface{}{"scope": "ACC"}, "BuilderProfile_AddScopeInput"},
		{"BuilderProfile_addLink", map[string]interface{}{"id": "l1", "url": "https://example.com", "label": "Site"}, "BuilderProfile_AddLinkInput"},
		{"BuilderProfile_editLink", map[string]interface{}{"id": "l1", "url": "https://example.org"}, "BuilderProfile_EditLinkInput"},
		{"BuilderProfile_addContributor", map[string]interface{}{"contributorPHID": "phd:1"}, "BuilderProfile_AddContributorInput"},
		{"BuilderProfile_setOperator", map[string]interface{}{"isOperator": true}, "BuilderProfile_SetOperatorInput"},
		{"BuilderProfile_setOpHubMember", map[string]interface{}{"name": "Hub", "phid": "phd:hub"}, "BuilderProfile_SetOpHubMemberInput"},
		{"BuilderProfile_removeSkill", map[string]interface{}{"skill": "FRONTEND_DEVELOPMENT"}, "BuilderProfile_RemoveSkillInput"},
		{"BuilderProfile_removeScope", map[string]interface{}{"scope": "ACC"}, "BuilderProfile_RemoveScopeInput"},
		{"BuilderProfile_removeContributor", map[string]interface{}{"contributorPHID": "phd:1"}, "BuilderProfile_RemoveContributorInput"},
		{"BuilderProfile_removeLink", map[string]interface{}{"id": "l1"}, "BuilderProfile_RemoveLinkInput"},
	}

	// 作成時のSET_NAMEがrevision 1
	revision := 1
	for _, step := range steps {
		query := "mutation($docId: ID, $input: " + step.inputTyp + ") { " + step.mutation + "(docId: $docId, input: $input) }"
		data := env.mustExec(t, query, map[string]interface{}{"docId": id, "input": step.input})
		revision++
		assert.Equal(t, revision, data[step.mutation], step.mutation)
	}

	doc, err := env.documents.GetDocument(context.Background(), id)
	require.NoError(t, err)
	state, err := builderprofile.DecodeState(doc)
	require.NoError(t, err)
	assert.Empty(t, state.Skills)
	assert.Empty(t, state.Scopes)
	assert.Empty(t, state.Links)
	assert.Empty(t, state.Contributors)
	assert.True(t, state.IsOperator)
	require.NotNil(t, state.OperationalHubMember.Name)
	assert.Equal(t, "Hub", *state.OperationalHubMember.Name)
}

func TestOperationMutation_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProfile(t, "Acme")

	t.Run("document not found", func(t *testing.T) {
		res := env.exec(t, `mutation { BuilderProfile_addSkill(docId: "missing", input: {skill: QA_TESTING}) }`, nil)
		assert.Equal(t, "Document not found", errorMessage(t, res))
	})

	t.Run("description too long", func(t *testing.T) {
		res := env.exec(t, `mutation($docId: ID, $input: BuilderProfile_UpdateProfileInput) {
			BuilderProfile_updateProfile(docId: $docId, input: $input)
		}`, map[string]interface{}{"docId": id, "input": map[string]interface{}{"description": strings.Repeat("a", 351)}})
		assert.Equal(t, "Description exceeds maximum length of 350 characters (351 provided)", errorMessage(t, res))
	})

	t.Run("invalid link url", func(t *testing.T) {
		res := env.exec(t, `mutation($docId: ID) {
			BuilderProfile_addLink(docId: $docId, input: {id: "l1", url: "not a url"})
		}`, map[string]interface{}{"docId": id})
		assert.NotEmpty(t, errorMessage(t, res))
	})

	doc, err := env.documents.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.GlobalRevision())
}
