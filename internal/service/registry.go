package service

import (
	"sort"

	"github.com/brbranch/builder_profile/internal/builderprofile"
	"github.com/brbranch/builder_profile/internal/model"
)

// DocumentModel はドキュメント型ごとの生成・reducer
type DocumentModel struct {
	Info   model.DocumentModelInfo
	Create func() (*model.Document, error)
	Reduce func(doc *model.Document, action model.Action) (*model.Document, error)
}

// Registry はドキュメント型からDocumentModelを引く
type Registry struct {
	models map[string]DocumentModel
}

// NewRegistry は指定したモデルを登録したRegistryを作成する
func NewRegistry(models ...DocumentModel) *Registry {
	r := &Registry{models: make(map[string]DocumentModel, len(models))}
	for _, m := range models {
		r.models[m.Info.ID] = m
	}
	return r
}

// DefaultRegistry はBuilder Profileを登録したRegistryを返す
func DefaultRegistry() *Registry {
	return NewRegistry(DocumentModel{
		Info:   builderprofile.DocumentModelInfo(),
		Create: func() (*model.Document, error) { return builderprofile.CreateDocument(nil) },
		Reduce: builderprofile.Reduce,
	})
}

// Get はドキュメント型のモデルを返す
func (r *Registry) Get(documentType string) (DocumentModel, bool) {
	m, ok := r.models[documentType]
	return m, ok
}

// Infos は登録済みモデルのメタ情報をID順に返す
func (r *Registry) Infos() []model.DocumentModelInfo {
	infos := make([]model.DocumentModelInfo, 0, len(r.models))
	for _, m := range r.models {
		infos = append(infos, m.Info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
