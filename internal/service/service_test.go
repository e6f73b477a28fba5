package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/brbranch/builder_profile/internal/builderprofile"
	"github.com/brbranch/builder_profile/internal/events"
	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingPublisher は配信されたイベントを記録する
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OperationEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.OperationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type testReactor struct {
	store     *store.MemoryStore
	drives    DriveService
	documents DocumentService
	publisher *recordingPublisher
}

func newTestReactor(t *testing.T) *testReactor {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, s.Initialize(context.Background(), "test"))

	pub := &recordingPublisher{}
	drives := NewDriveService(s)
	docs := NewDocumentService(s, DefaultRegistry(), drives, pub, zaptest.NewLogger(t))
	return &testReactor{store: s, drives: drives, documents: docs, publisher: pub}
}

func action(actionType string, input any) model.Action {
	raw, _ := json.Marshal(input)
	return model.Action{Type: actionType, Input: raw}
}

func TestDriveService_AddDrive(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()

	drive, err := r.drives.AddDrive(ctx, &AddDriveRequest{ID: "BuildersV2", Name: "BuildersV2"})
	require.NoError(t, err)
	assert.Equal(t, "BuildersV2", drive.Slug, "slug defaults to id")
	assert.Empty(t, drive.Nodes)

	_, err = r.drives.AddDrive(ctx, &AddDriveRequest{ID: "BuildersV2", Name: "again"})
	assert.ErrorIs(t, err, ErrDriveExists)

	generated, err := r.drives.AddDrive(ctx, &AddDriveRequest{Name: "No id"})
	require.NoError(t, err)
	assert.NotEmpty(t, generated.ID)

	ids, err := r.drives.GetDriveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BuildersV2", generated.ID}, ids)
}

func TestDriveService_AddDrive_Validation(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()

	_, err := r.drives.AddDrive(ctx, &AddDriveRequest{ID: "d1"})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = r.drives.AddDrive(ctx, &AddDriveRequest{ID: "bad id", Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidDriveID)

	icon := "not a url"
	_, err = r.drives.AddDrive(ctx, &AddDriveRequest{ID: "d2", Name: "x", Icon: &icon})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDriveService_GetDrive_NotFound(t *testing.T) {
	r := newTestReactor(t)
	_, err := r.drives.GetDrive(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDriveNotFound)

	_, err = r.drives.GetDrive(context.Background(), "")
	assert.ErrorIs(t, err, ErrDriveIDRequired)
}

func TestDriveService_AddDriveActions(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()
	_, err := r.drives.AddDrive(ctx, &AddDriveRequest{ID: "d1", Name: "Drive"})
	require.NoError(t, err)

	folder := "folder-1"
	result, err := r.drives.AddDriveActions(ctx, "d1", []model.Action{
		action(DriveActionAddFolder, AddFolderInput{ID: folder, Name: "Team"}),
		action(DriveActionAddFile, AddFileInput{ID: "doc-1", Name: "Acme", DocumentType: builderprofile.DocumentType, ParentFolder: &folder}),
		action(DriveActionAddFile, AddFileInput{ID: "doc-2", Name: "Beta", DocumentType: builderprofile.DocumentType}),
		action(DriveActionSetDriveName, SetDriveNameInput{Name: "Renamed"}),
	})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Len(t, result.Operations, 4)
	assert.Equal(t, 4, result.Revision)

	drive, err := r.drives.GetDrive(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", drive.Name)
	assert.Equal(t, []string{"doc-1", "doc-2"}, drive.FileIDs())

	// フォルダ削除は子孫も削除する
	result, err = r.drives.AddDriveActions(ctx, "d1", []model.Action{
		action(DriveActionDeleteNode, DeleteNodeInput{ID: folder}),
	})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())

	drive, err = r.drives.GetDrive(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-2"}, drive.FileIDs())
}

func TestDriveService_AddDriveActions_StopsAtFirstRejection(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()
	_, err := r.drives.AddDrive(ctx, &AddDriveRequest{ID: "d1", Name: "Drive"})
	require.NoError(t, err)

	result, err := r.drives.AddDriveActions(ctx, "d1", []model.Action{
		action(DriveActionAddFile, AddFileInput{ID: "doc-1", Name: "A", DocumentType: builderprofile.DocumentType}),
		action(DriveActionAddFile, AddFileInput{ID: "doc-1", Name: "A again", DocumentType: builderprofile.DocumentType}),
		action(DriveActionAddFile, AddFileInput{ID: "doc-3", Name: "C", DocumentType: builderprofile.DocumentType}),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "already exists")
	assert.Len(t, result.Operations, 1)

	drive, err := r.drives.GetDrive(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, drive.FileIDs())
}

func TestDriveService_AddDriveActions_InvalidInput(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()
	_, err := r.drives.AddDrive(ctx, &AddDriveRequest{ID: "d1", Name: "Drive"})
	require.NoError(t, err)

	tests := []model.Action{
		action(DriveActionAddFile, map[string]string{"id": "x"}),
		action(DriveActionDeleteNode, DeleteNodeInput{ID: "missing"}),
		action("MOVE_NODE", map[string]string{}),
		action(DriveActionAddFile, AddFileInput{ID: "y", Name: "Y", DocumentType: "t", ParentFolder: strPtr("nope")}),
	}
	for _, a := range tests {
		result, err := r.drives.AddDriveActions(ctx, "d1", []model.Action{a})
		require.NoError(t, err)
		assert.Equal(t, StatusError, result.Status, "action %s", a.Type)
	}

	_, err = r.drives.AddDriveActions(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrDriveNotFound)
}

func TestDocumentService_CreateDocument(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()
	_, err := r.drives.AddDrive(ctx, &AddDriveRequest{ID: "d1", Name: "Drive"})
	require.NoError(t, err)

	doc, err := r.documents.CreateDocument(ctx, &CreateDocumentRequest{
		DocumentType: builderprofile.DocumentType,
		Name:         "Acme",
		DriveID:      "d1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", doc.Header.Name)
	assert.Equal(t, 1, doc.GlobalRevision())

	ids, err := r.documents.GetDocumentIDs(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{doc.Header.ID}, ids)

	drive, err := r.drives.GetDrive(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", drive.Nodes[0].Name)

	stored, err := r.documents.GetDocument(ctx, doc.Header.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Header.Name)

	require.Len(t, r.publisher.events, 1)
	assert.Equal(t, "d1", r.publisher.events[0].DriveID)
}

func TestDocumentService_CreateDocument_Errors(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()

	_, err := r.documents.CreateDocument(ctx, &CreateDocumentRequest{})
	assert.ErrorIs(t, err, ErrDocumentTypeRequired)

	_, err = r.documents.CreateDocument(ctx, &CreateDocumentRequest{DocumentType: "powerhouse/unknown"})
	assert.ErrorIs(t, err, ErrUnknownDocumentType)

	_, err = r.documents.CreateDocument(ctx, &CreateDocumentRequest{DocumentType: builderprofile.DocumentType, DriveID: "missing"})
	assert.ErrorIs(t, err, ErrDriveNotFound)

	ids, err := r.store.ListDocumentIDs(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, ids, "no document should be stored when drive is missing")
}

func TestDocumentService_AddActions(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()

	doc, err := r.documents.CreateDocument(ctx, &CreateDocumentRequest{DocumentType: builderprofile.DocumentType})
	require.NoError(t, err)

	result, err := r.documents.AddActions(ctx, doc.Header.ID, []model.Action{
		action(builderprofile.ActionUpdateProfile, map[string]string{"name": "Acme", "slug": "acme"}),
		action(builderprofile.ActionAddSkill, map[string]string{"skill": "BACKEND_DEVELOPMENT"}),
		action(builderprofile.ActionSetOperator, map[string]bool{"isOperator": true}),
	})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Len(t, result.Operations, 3)
	assert.Equal(t, 3, result.Revision)
	for _, op := range result.Operations {
		assert.NotEmpty(t, op.Action.ID, "missing action ids are generated")
		assert.NotZero(t, op.Action.TimestampUtcMs)
	}

	stored, err := r.documents.GetDocument(ctx, doc.Header.ID)
	require.NoError(t, err)
	s, err := builderprofile.DecodeState(stored)
	require.NoError(t, err)
	assert.Equal(t, "Acme", *s.Name)
	assert.Equal(t, []builderprofile.Skill{builderprofile.SkillBackendDevelopment}, s.Skills)
	assert.True(t, s.IsOperator)

	require.Len(t, r.publisher.events, 1)
	assert.Equal(t, 3, r.publisher.events[0].Revision)
}

func TestDocumentService_AddActions_PartialFailure(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()

	doc, err := r.documents.CreateDocument(ctx, &CreateDocumentRequest{DocumentType: builderprofile.DocumentType})
	require.NoError(t, err)

	result, err := r.documents.AddActions(ctx, doc.Header.ID, []model.Action{
		action(builderprofile.ActionAddScope, map[string]string{"scope": "STA"}),
		action(builderprofile.ActionAddLink, map[string]string{"id": "l1", "url": "not a url"}),
		action(builderprofile.ActionAddScope, map[string]string{"scope": "SUP"}),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "ADD_LINK")
	assert.Len(t, result.Operations, 1)
	assert.Equal(t, 1, result.Revision)

	stored, err := r.documents.GetDocument(ctx, doc.Header.ID)
	require.NoError(t, err)
	s, err := builderprofile.DecodeState(stored)
	require.NoError(t, err)
	assert.Equal(t, []builderprofile.Scope{builderprofile.ScopeSTA}, s.Scopes)
}

func TestDocumentService_AddActions_DescriptionTooLong(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()

	doc, err := r.documents.CreateDocument(ctx, &CreateDocumentRequest{DocumentType: builderprofile.DocumentType})
	require.NoError(t, err)

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	result, err := r.documents.AddActions(ctx, doc.Header.ID, []model.Action{
		action(builderprofile.ActionUpdateProfile, map[string]string{"description": string(long)}),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Error)
	assert.Equal(t, "Description exceeds maximum length of 350 characters (400 provided)", *result.Error)
	assert.Empty(t, r.publisher.events)
}

func TestDocumentService_AddActions_RoutesDriveActions(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()
	_, err := r.drives.AddDrive(ctx, &AddDriveRequest{ID: "d1", Name: "Drive"})
	require.NoError(t, err)

	result, err := r.documents.AddActions(ctx, "d1", []model.Action{
		action(DriveActionAddFile, AddFileInput{ID: "doc-9", Name: "Nine", DocumentType: builderprofile.DocumentType}),
	})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())

	ids, err := r.documents.GetDocumentIDs(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-9"}, ids)
}

func TestDocumentService_NotFound(t *testing.T) {
	r := newTestReactor(t)
	ctx := context.Background()

	_, err := r.documents.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = r.documents.AddActions(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = r.documents.GetDocumentIDs(ctx, "missing")
	assert.ErrorIs(t, err, ErrDriveNotFound)
}

func TestDocumentService_PublishFailureDoesNotFailAction(t *testing.T) {
	r := newTestReactor(t)
	r.publisher.err = errors.New("redis down")
	ctx := context.Background()

	doc, err := r.documents.CreateDocument(ctx, &CreateDocumentRequest{DocumentType: builderprofile.DocumentType})
	require.NoError(t, err)

	result, err := r.documents.AddActions(ctx, doc.Header.ID, []model.Action{
		action(builderprofile.ActionAddContributor, map[string]string{"contributorPHID": "phd:1"}),
	})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
}

func TestDocumentService_GetDocumentModels(t *testing.T) {
	r := newTestReactor(t)
	models := r.documents.GetDocumentModels(context.Background())
	require.Len(t, models, 1)
	assert.Equal(t, builderprofile.DocumentType, models[0].ID)
}

func strPtr(s string) *string { return &s }
