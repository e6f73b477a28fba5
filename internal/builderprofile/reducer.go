package builderprofile

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/brbranch/builder_profile/internal/model"
)

// operationHandler はアクション1件をstateに適用する
type operationHandler func(s *State, input json.RawMessage, ts int64) error

var handlers = map[string]operationHandler{
	ActionUpdateProfile:     updateProfile,
	ActionAddSkill:          addSkill,
	ActionRemoveSkill:       removeSkill,
	ActionAddScope:          addScope,
	ActionRemoveScope:       removeScope,
	ActionAddLink:           addLink,
	ActionEditLink:          editLink,
	ActionRemoveLink:        removeLink,
	ActionAddContributor:    addContributor,
	ActionRemoveContributor: removeContributor,
	ActionSetOperator:       setOperator,
	ActionSetOpHubMember:    setOpHubMember,
}

// Reduce はアクションを適用した新しいドキュメントを返す
// 入力のドキュメントは変更しない。検証・適用に失敗した場合はエラーを返す
func Reduce(doc *model.Document, action model.Action) (*model.Document, error) {
	if doc.Header.DocumentType != DocumentType {
		return nil, fmt.Errorf("%w: %s", ErrNotBuilderProfile, doc.Header.DocumentType)
	}
	if action.Scope != "" && action.Scope != model.ScopeGlobal {
		return nil, fmt.Errorf("unsupported scope %q for %s", action.Scope, action.Type)
	}

	next := doc.Clone()

	if action.Type == ActionSetName {
		name, err := decodeSetName(action.Input)
		if err != nil {
			return nil, err
		}
		next.Header.Name = name
	} else {
		handle, ok := handlers[action.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action.Type)
		}

		state, err := DecodeState(next)
		if err != nil {
			return nil, err
		}
		if err := handle(&state, action.Input, action.TimestampUtcMs); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(state)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state: %w", err)
		}
		next.State.Global = raw
	}

	action.Scope = model.ScopeGlobal
	next.Operations.Global = append(next.Operations.Global, model.Operation{
		Index:          len(next.Operations.Global),
		TimestampUtcMs: action.TimestampUtcMs,
		Hash:           hashState(next.State.Global),
		Action:         action,
	})
	if next.Header.Revision == nil {
		next.Header.Revision = map[string]int{}
	}
	next.Header.Revision[model.ScopeGlobal] = len(next.Operations.Global)
	next.Header.LastModifiedAtUtcIso = model.FormatTimestamp(action.TimestampUtcMs)

	return next, nil
}

// hashState はstateのハッシュ（SHA1のbase64）を返す
func hashState(raw json.RawMessage) string {
	sum := sha1.Sum(raw)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// decodeSetName はSET_NAMEの入力を読む（文字列またはオブジェクト）
func decodeSetName(raw json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name, nil
	}
	var input SetNameInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return "", &ValidationError{Action: ActionSetName, Fields: []string{err.Error()}}
	}
	return input.Name, nil
}

func stamp(s *State, ts int64) {
	lm := model.FormatTimestamp(ts)
	s.LastModified = &lm
}

// present は値が設定されていて空文字でないかを返す
func present[T ~string](v *T) bool {
	return v != nil && *v != ""
}

func updateProfile(s *State, raw json.RawMessage, ts int64) error {
	var in UpdateProfileInput
	if err := decodeInput(ActionUpdateProfile, raw, &in); err != nil {
		return err
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}

	if present(in.ID) {
		s.ID = in.ID
	}
	if present(in.Code) {
		s.Code = in.Code
	}
	if present(in.Slug) {
		s.Slug = in.Slug
	}
	if present(in.Name) {
		s.Name = in.Name
	}
	if present(in.Icon) {
		s.Icon = in.Icon
	}
	if present(in.Description) {
		s.Description = in.Description
	}
	if present(in.About) {
		s.About = in.About
	}
	if present(in.Status) {
		s.Status = in.Status
	}
	if present(in.Type) {
		s.Type = *in.Type
	}
	stamp(s, ts)
	return nil
}

func addSkill(s *State, raw json.RawMessage, ts int64) error {
	var in AddSkillInput
	if err := decodeInput(ActionAddSkill, raw, &in); err != nil {
		return err
	}
	if present(in.Skill) && !slices.Contains(s.Skills, *in.Skill) {
		s.Skills = append(s.Skills, *in.Skill)
	}
	stamp(s, ts)
	return nil
}

func removeSkill(s *State, raw json.RawMessage, ts int64) error {
	var in RemoveSkillInput
	if err := decodeInput(ActionRemoveSkill, raw, &in); err != nil {
		return err
	}
	if present(in.Skill) {
		if i := slices.Index(s.Skills, *in.Skill); i >= 0 {
			s.Skills = slices.Delete(s.Skills, i, i+1)
		}
	}
	stamp(s, ts)
	return nil
}

func addScope(s *State, raw json.RawMessage, ts int64) error {
	var in AddScopeInput
	if err := decodeInput(ActionAddScope, raw, &in); err != nil {
		return err
	}
	if present(in.Scope) && !slices.Contains(s.Scopes, *in.Scope) {
		s.Scopes = append(s.Scopes, *in.Scope)
	}
	stamp(s, ts)
	return nil
}

func removeScope(s *State, raw json.RawMessage, ts int64) error {
	var in RemoveScopeInput
	if err := decodeInput(ActionRemoveScope, raw, &in); err != nil {
		return err
	}
	if present(in.Scope) {
		if i := slices.Index(s.Scopes, *in.Scope); i >= 0 {
			s.Scopes = slices.Delete(s.Scopes, i, i+1)
		}
	}
	stamp(s, ts)
	return nil
}

func addLink(s *State, raw json.RawMessage, ts int64) error {
	var in AddLinkInput
	if err := decodeInput(ActionAddLink, raw, &in); err != nil {
		return err
	}
	link := Link{ID: in.ID, URL: in.URL}
	if present(in.Label) {
		link.Label = in.Label
	}
	s.Links = append(s.Links, link)
	stamp(s, ts)
	return nil
}

func editLink(s *State, raw json.RawMessage, ts int64) error {
	var in EditLinkInput
	if err := decodeInput(ActionEditLink, raw, &in); err != nil {
		return err
	}
	i := slices.IndexFunc(s.Links, func(l Link) bool { return l.ID == in.ID })
	if i >= 0 {
		if in.URL != "" {
			s.Links[i].URL = in.URL
		}
		if present(in.Label) {
			s.Links[i].Label = in.Label
		}
	}
	stamp(s, ts)
	return nil
}

func removeLink(s *State, raw json.RawMessage, ts int64) error {
	var in RemoveLinkInput
	if err := decodeInput(ActionRemoveLink, raw, &in); err != nil {
		return err
	}
	if i := slices.IndexFunc(s.Links, func(l Link) bool { return l.ID == in.ID }); i >= 0 {
		s.Links = slices.Delete(s.Links, i, i+1)
	}
	stamp(s, ts)
	return nil
}

func addContributor(s *State, raw json.RawMessage, ts int64) error {
	var in AddContributorInput
	if err := decodeInput(ActionAddContributor, raw, &in); err != nil {
		return err
	}
	if !slices.Contains(s.Contributors, in.ContributorPHID) {
		s.Contributors = append(s.Contributors, in.ContributorPHID)
	}
	stamp(s, ts)
	return nil
}

func removeContributor(s *State, raw json.RawMessage, ts int64) error {
	var in RemoveContributorInput
	if err := decodeInput(ActionRemoveContributor, raw, &in); err != nil {
		return err
	}
	if i := slices.Index(s.Contributors, in.ContributorPHID); i >= 0 {
		s.Contributors = slices.Delete(s.Contributors, i, i+1)
	}
	stamp(s, ts)
	return nil
}

// setOperator はlastModifiedを更新しない
func setOperator(s *State, raw json.RawMessage, _ int64) error {
	var in SetOperatorInput
	if err := decodeInput(ActionSetOperator, raw, &in); err != nil {
		return err
	}
	s.IsOperator = *in.IsOperator
	return nil
}

func setOpHubMember(s *State, raw json.RawMessage, ts int64) error {
	var in SetOpHubMemberInput
	if err := decodeInput(ActionSetOpHubMember, raw, &in); err != nil {
		return err
	}
	if present(in.Name) {
		s.OperationalHubMember.Name = in.Name
	}
	if present(in.Phid) {
		s.OperationalHubMember.Phid = in.Phid
	}
	stamp(s, ts)
	return nil
}
