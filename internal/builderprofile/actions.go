package builderprofile

import (
	"encoding/json"
	"fmt"

	"github.com/brbranch/builder_profile/internal/model"
	"github.com/google/uuid"
)

// NewAction は入力を検証してアクションを生成する
func NewAction(actionType string, input any) (model.Action, error) {
	if err := ValidateInput(actionType, input); err != nil {
		return model.Action{}, err
	}
	return BuildAction(actionType, input)
}

// BuildAction は入力を検証せずにアクションを生成する
// id は新しいUUID、scope はglobal、timestamp は現在時刻
func BuildAction(actionType string, input any) (model.Action, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return model.Action{}, fmt.Errorf("failed to marshal %s input: %w", actionType, err)
	}
	return model.Action{
		ID:             uuid.New().String(),
		Type:           actionType,
		Scope:          model.ScopeGlobal,
		Input:          raw,
		TimestampUtcMs: model.NowMillis(),
	}, nil
}

// UpdateProfile はUPDATE_PROFILEアクションを生成する
func UpdateProfile(input UpdateProfileInput) (model.Action, error) {
	if err := validateDescription(input.Description); err != nil {
		return model.Action{}, err
	}
	return NewAction(ActionUpdateProfile, &input)
}

// AddSkill はADD_SKILLアクションを生成する
func AddSkill(input AddSkillInput) (model.Action, error) {
	return NewAction(ActionAddSkill, &input)
}

// RemoveSkill はREMOVE_SKILLアクションを生成する
func RemoveSkill(input RemoveSkillInput) (model.Action, error) {
	return NewAction(ActionRemoveSkill, &input)
}

// AddScope はADD_SCOPEアクションを生成する
func AddScope(input AddScopeInput) (model.Action, error) {
	return NewAction(ActionAddScope, &input)
}

// RemoveScope はREMOVE_SCOPEアクションを生成する
func RemoveScope(input RemoveScopeInput) (model.Action, error) {
	return NewAction(ActionRemoveScope, &input)
}

// AddLink はADD_LINKアクションを生成する
func AddLink(input AddLinkInput) (model.Action, error) {
	return NewAction(ActionAddLink, &input)
}

// EditLink はEDIT_LINKアクションを生成する
func EditLink(input EditLinkInput) (model.Action, error) {
	return NewAction(ActionEditLink, &input)
}

// RemoveLink はREMOVE_LINKアクションを生成する
func RemoveLink(input RemoveLinkInput) (model.Action, error) {
	return NewAction(ActionRemoveLink, &input)
}

// AddContributor はADD_CONTRIBUTORアクションを生成する
func AddContributor(input AddContributorInput) (model.Action, error) {
	return NewAction(ActionAddContributor, &input)
}

// RemoveContributor はREMOVE_CONTRIBUTORアクションを生成する
func RemoveContributor(input RemoveContributorInput) (model.Action, error) {
	return NewAction(ActionRemoveContributor, &input)
}

// SetOperator はSET_OPERATORアクションを生成する
func SetOperator(input SetOperatorInput) (model.Action, error) {
	return NewAction(ActionSetOperator, &input)
}

// SetOpHubMember はSET_OP_HUB_MEMBERアクションを生成する
func SetOpHubMember(input SetOpHubMemberInput) (model.Action, error) {
	return NewAction(ActionSetOpHubMember, &input)
}

// SetName はSET_NAMEアクションを生成する
func SetName(name string) (model.Action, error) {
	return NewAction(ActionSetName, &SetNameInput{Name: name})
}
