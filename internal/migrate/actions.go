package migrate

import (
	"github.com/brbranch/builder_profile/internal/builderprofile"
	"github.com/brbranch/builder_profile/internal/model"
)

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// GenerateMigrationActions は移行元のstateを再現するアクション列を生成する
// 順序: UPDATE_PROFILE, SET_OPERATOR, ADD_SKILL, ADD_SCOPE, ADD_LINK, ADD_CONTRIBUTOR, SET_OP_HUB_MEMBER
func GenerateMigrationActions(state builderprofile.State) ([]model.Action, error) {
	var actions []model.Action
	add := func(actionType string, input any) error {
		// 入力の検証は受け側のreducerに任せる
		action, err := builderprofile.BuildAction(actionType, input)
		if err != nil {
			return err
		}
		actions = append(actions, action)
		return nil
	}

	teamType := state.Type
	if teamType == "" {
		teamType = builderprofile.TeamTypeIndividual
	}
	var status *builderprofile.Status
	if state.Status != nil && *state.Status != "" {
		status = state.Status
	}
	profile := builderprofile.UpdateProfileInput{
		ID:          nonEmpty(state.ID),
		Code:        nonEmpty(state.Code),
		Slug:        nonEmpty(state.Slug),
		Name:        nonEmpty(state.Name),
		Icon:        nonEmpty(state.Icon),
		Description: nonEmpty(state.Description),
		About:       nonEmpty(state.About),
		Status:      status,
		Type:        &teamType,
	}
	if err := add(builderprofile.ActionUpdateProfile, profile); err != nil {
		return nil, err
	}

	isOperator := state.IsOperator
	if err := add(builderprofile.ActionSetOperator, builderprofile.SetOperatorInput{IsOperator: &isOperator}); err != nil {
		return nil, err
	}

	for _, skill := range state.Skills {
		if err := add(builderprofile.ActionAddSkill, builderprofile.AddSkillInput{Skill: &skill}); err != nil {
			return nil, err
		}
	}

	for _, scope := range state.Scopes {
		if err := add(builderprofile.ActionAddScope, builderprofile.AddScopeInput{Scope: &scope}); err != nil {
			return nil, err
		}
	}

	for _, link := range state.Links {
		input := builderprofile.AddLinkInput{ID: link.ID, URL: link.URL, Label: nonEmpty(link.Label)}
		if err := add(builderprofile.ActionAddLink, input); err != nil {
			return nil, err
		}
	}

	for _, phid := range state.Contributors {
		if err := add(builderprofile.ActionAddContributor, builderprofile.AddContributorInput{ContributorPHID: phid}); err != nil {
			return nil, err
		}
	}

	hub := state.OperationalHubMember
	if nonEmpty(hub.Name) != nil || nonEmpty(hub.Phid) != nil {
		input := builderprofile.SetOpHubMemberInput{Name: nonEmpty(hub.Name), Phid: nonEmpty(hub.Phid)}
		if err := add(builderprofile.ActionSetOpHubMember, input); err != nil {
			return nil, err
		}
	}

	return actions, nil
}

// Batch はアクション列をsize件ずつに分割する
func Batch(actions []model.Action, size int) [][]model.Action {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]model.Action
	for start := 0; start < len(actions); start += size {
		end := min(start+size, len(actions))
		batches = append(batches, actions[start:end])
	}
	return batches
}
