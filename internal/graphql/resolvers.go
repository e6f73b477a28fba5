package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/brbranch/builder_profile/internal/builderprofile"
	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/service"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// getDocumentsConcurrency はgetDocumentsでの並列取得数の上限
const getDocumentsConcurrency = 8

var (
	errDocumentIDRequired = errors.New("Document id is required")
	errDocumentNotFound   = errors.New("Document not found")
)

// getDocumentResolver はBuilderProfile.getDocumentを処理する
func (s *Schema) getDocumentResolver() graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		ctx := p.Context
		docID := getStringOrDefault(p.Args, "docId", "")
		driveID := getStringOrDefault(p.Args, "driveId", "")

		if docID == "" {
			return nil, errDocumentIDRequired
		}

		if driveID != "" {
			ids, err := s.documents.GetDocumentIDs(ctx, driveID)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(ids, docID) {
				return nil, fmt.Errorf("Document with id %s is not part of %s", docID, driveID)
			}
		}

		doc, err := s.documents.GetDocument(ctx, docID)
		if err != nil {
			if errors.Is(err, service.ErrDocumentNotFound) {
				return nil, errDocumentNotFound
			}
			return nil, err
		}
		return documentView(doc, driveID)
	}
}

// getDocumentsResolver はBuilderProfile.getDocumentsを処理する
// ドキュメントを並列に取得し、documentTypeがbuilder-profileのものだけを返す
func (s *Schema) getDocumentsResolver() graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		driveID := getStringOrDefault(p.Args, "driveId", "")

		ids, err := s.documents.GetDocumentIDs(p.Context, driveID)
		if err != nil {
			return nil, err
		}

		docs := make([]*model.Document, len(ids))
		g, gctx := errgroup.WithContext(p.Context)
		g.SetLimit(getDocumentsConcurrency)
		for i, id := range ids {
			g.Go(func() error {
				doc, err := s.documents.GetDocument(gctx, id)
				if err != nil {
					return fmt.Errorf("failed to get document %s: %w", id, err)
				}
				docs[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.logger.Warn("getDocuments failed", zap.String("driveId", driveID), zap.Error(err))
			return nil, err
		}

		views := make([]map[string]interface{}, 0, len(docs))
		for _, doc := range docs {
			if doc.Header.DocumentType != builderprofile.DocumentType {
				continue
			}
			view, err := documentView(doc, driveID)
			if err != nil {
				return nil, err
			}
			views = append(views, view)
		}
		return views, nil
	}
}

// createDocumentResolver はBuilderProfile_createDocumentを処理する
func (s *Schema) createDocumentResolver() graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		doc, err := s.documents.CreateDocument(p.Context, &service.CreateDocumentRequest{
			DocumentType: builderprofile.DocumentType,
			Name:         getStringOrDefault(p.Args, "name", ""),
			DriveID:      getStringOrDefault(p.Args, "driveId", ""),
		})
		if err != nil {
			return nil, err
		}
		return doc.Header.ID, nil
	}
}

// aboutHTMLResolver はstate.aboutをHTMLプレビューに変換する
func (s *Schema) aboutHTMLResolver() graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		source, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		state, _ := source["state"].(map[string]interface{})
		about, _ := state["about"].(string)
		if about == "" {
			return nil, nil
		}
		return builderprofile.RenderAbout(about, getIntOrDefault(p.Args, "maxLength", builderprofile.AboutPreviewLength))
	}
}

// operationResolver はBuilderProfile_<op> mutationのリゾルバーを作成する
// 入力をcreateでアクションに変換し、ドキュメントに適用する
func operationResolver[T any](s *Schema, op string, create func(T) (model.Action, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		var input T
		if err := decodeArg(p.Args["input"], &input); err != nil {
			return nil, fmt.Errorf("invalid input for %s: %w", op, err)
		}
		action, err := create(input)
		if err != nil {
			return nil, err
		}
		return s.dispatch(p.Context, getStringOrDefault(p.Args, "docId", ""), op, action)
	}
}

// dispatch はアクションを1つ適用し、新しいglobal revisionを返す
func (s *Schema) dispatch(ctx context.Context, docID, op string, action model.Action) (interface{}, error) {
	if _, err := s.documents.GetDocument(ctx, docID); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) || errors.Is(err, service.ErrIDRequired) {
			return nil, errDocumentNotFound
		}
		return nil, err
	}

	result, err := s.documents.AddActions(ctx, docID, []model.Action{action})
	if err != nil {
		return nil, err
	}
	if !result.Succeeded() {
		if result.Error != nil && *result.Error != "" {
			return nil, errors.New(*result.Error)
		}
		return nil, fmt.Errorf("Failed to %s", op)
	}
	return result.Revision, nil
}

// documentView はドキュメントをBuilderProfileオブジェクトの形に展開する
func documentView(doc *model.Document, driveID string) (map[string]interface{}, error) {
	state := map[string]interface{}{}
	if len(doc.State.Global) > 0 {
		if err := json.Unmarshal(doc.State.Global, &state); err != nil {
			return nil, fmt.Errorf("failed to decode state of %s: %w", doc.Header.ID, err)
		}
	}

	var drive interface{}
	if driveID != "" {
		drive = driveID
	}
	return map[string]interface{}{
		"driveId":      drive,
		"id":           doc.Header.ID,
		"name":         doc.Header.Name,
		"documentType": doc.Header.DocumentType,
		"revision":     doc.GlobalRevision(),
		"created":      doc.Header.CreatedAtUtcIso,
		"lastModified": doc.Header.LastModifiedAtUtcIso,
		"state":        state,
		"stateJSON":    state,
	}, nil
}

// decodeArg はGraphQLの入力引数を型付きの構造体に変換する
func decodeArg(arg interface{}, target interface{}) error {
	if arg == nil {
		return nil
	}
	b, err := json.Marshal(arg)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}

// マップから値を取り出すヘルパー
func getStringOrDefault(m map[string]interface{}, key, defaultValue string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return defaultValue
}

func getIntOrDefault(m map[string]interface{}, key string, defaultValue int) int {
	if val, ok := m[key].(int); ok {
		return val
	}
	return defaultValue
}
