package builderprofile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/brbranch/builder_profile/internal/model"
	"github.com/google/uuid"
)

// ModuleName はbuildersモジュール名
const ModuleName = "builders"

// DocumentModelInfo はBuilder Profileドキュメントモデルのメタ情報を返す
func DocumentModelInfo() model.DocumentModelInfo {
	ops := make([]string, len(Operations))
	copy(ops, Operations)
	return model.DocumentModelInfo{
		ID:          DocumentType,
		Name:        "Builder Profile",
		Description: "A builder profile document",
		Extension:   "",
		Author: model.Author{
			Name:    "Powerhouse",
			Website: "https://powerhouse.inc",
		},
		Modules: []model.ModuleInfo{
			{Name: ModuleName, Operations: ops},
		},
	}
}

// CreateDocument は初期stateの新規ドキュメントを作成する
// stateを渡した場合は初期stateの代わりに使用する
func CreateDocument(state *State) (*model.Document, error) {
	s := InitialState()
	if state != nil {
		s = *state
		s.normalize()
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initial state: %w", err)
	}

	now := model.FormatTimestamp(model.NowMillis())
	return &model.Document{
		Header: model.DocumentHeader{
			ID:                   uuid.New().String(),
			DocumentType:         DocumentType,
			CreatedAtUtcIso:      now,
			LastModifiedAtUtcIso: now,
			Revision:             map[string]int{model.ScopeGlobal: 0},
		},
		State:        model.DocumentState{Global: raw},
		InitialState: model.DocumentState{Global: append(json.RawMessage(nil), raw...)},
		Operations:   model.DocumentOperations{Global: []model.Operation{}},
	}, nil
}

// DecodeState はドキュメントのグローバルstateをデコードする
func DecodeState(doc *model.Document) (State, error) {
	var s State
	if len(bytes.TrimSpace(doc.State.Global)) == 0 {
		return s, fmt.Errorf("%w: empty state", ErrInvalidState)
	}
	if err := json.Unmarshal(doc.State.Global, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	s.normalize()
	return s, nil
}

// IsDocument はBuilder Profileドキュメントかどうかを返す
func IsDocument(doc *model.Document) bool {
	return AssertIsDocument(doc) == nil
}

// AssertIsDocument はBuilder Profileドキュメントでなければエラーを返す
func AssertIsDocument(doc *model.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrNotBuilderProfile)
	}
	if doc.Header.DocumentType != DocumentType {
		return fmt.Errorf("%w: documentType %q", ErrNotBuilderProfile, doc.Header.DocumentType)
	}
	s, err := DecodeState(doc)
	if err != nil {
		return err
	}
	return AssertIsState(s)
}

// AssertIsState はstateの各値が定義済みの列挙値・形式であることを検証する
func AssertIsState(s State) error {
	if s.Type != TeamTypeIndividual && s.Type != TeamTypeTeam {
		return fmt.Errorf("%w: type %q", ErrInvalidState, s.Type)
	}
	if present(s.Status) {
		if err := ValidateInput("state", &UpdateProfileInput{Status: s.Status}); err != nil {
			return fmt.Errorf("%w: status %q", ErrInvalidState, *s.Status)
		}
	}
	for _, sk := range s.Skills {
		if err := ValidateInput("state", &AddSkillInput{Skill: &sk}); err != nil {
			return fmt.Errorf("%w: skill %q", ErrInvalidState, sk)
		}
	}
	for _, sc := range s.Scopes {
		if err := ValidateInput("state", &AddScopeInput{Scope: &sc}); err != nil {
			return fmt.Errorf("%w: scope %q", ErrInvalidState, sc)
		}
	}
	for _, l := range s.Links {
		if l.ID == "" {
			return fmt.Errorf("%w: link without id", ErrInvalidState)
		}
	}
	return nil
}
