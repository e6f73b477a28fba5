// Package builderprofile implements the Builder Profile document model:
// its state shape, input validation, action creators and reducer.
package builderprofile

// DocumentType はBuilder Profileのドキュメント型
const DocumentType = "powerhouse/builder-profile"

// DescriptionMaxLength はdescriptionの最大文字数
const DescriptionMaxLength = 350

// Skill はビルダーのスキル
type Skill string

const (
	SkillFrontendDevelopment      Skill = "FRONTEND_DEVELOPMENT"
	SkillBackendDevelopment       Skill = "BACKEND_DEVELOPMENT"
	SkillFullStackDevelopment     Skill = "FULL_STACK_DEVELOPMENT"
	SkillDevopsEngineering        Skill = "DEVOPS_ENGINEERING"
	SkillSmartContractDevelopment Skill = "SMART_CONTRACT_DEVELOPMENT"
	SkillUIUXDesign               Skill = "UI_UX_DESIGN"
	SkillTechnicalWriting         Skill = "TECHNICAL_WRITING"
	SkillQATesting                Skill = "QA_TESTING"
	SkillDataEngineering          Skill = "DATA_ENGINEERING"
	SkillSecurityEngineering      Skill = "SECURITY_ENGINEERING"
)

// AllSkills は定義済みスキルの一覧
var AllSkills = []Skill{
	SkillFrontendDevelopment,
	SkillBackendDevelopment,
	SkillFullStackDevelopment,
	SkillDevopsEngineering,
	SkillSmartContractDevelopment,
	SkillUIUXDesign,
	SkillTechnicalWriting,
	SkillQATesting,
	SkillDataEngineering,
	SkillSecurityEngineering,
}

var skillLabels = map[Skill]string{
	SkillFrontendDevelopment:      "Frontend",
	SkillBackendDevelopment:       "Backend",
	SkillFullStackDevelopment:     "Full Stack",
	SkillDevopsEngineering:        "DevOps",
	SkillSmartContractDevelopment: "Smart Contracts",
	SkillUIUXDesign:               "UI/UX",
	SkillTechnicalWriting:         "Tech Writing",
	SkillQATesting:                "QA",
	SkillDataEngineering:          "Data",
	SkillSecurityEngineering:      "Security",
}

// Label は表示用の短いラベルを返す（未知の値はそのまま）
func (s Skill) Label() string {
	if l, ok := skillLabels[s]; ok {
		return l
	}
	return string(s)
}

// Scope はビルダーが担当するスコープ
type Scope string

const (
	ScopeACC        Scope = "ACC"
	ScopeSTA        Scope = "STA"
	ScopeSUP        Scope = "SUP"
	ScopeStability  Scope = "STABILITY_SCOPE"
	ScopeSupport    Scope = "SUPPORT_SCOPE"
	ScopeProtocol   Scope = "PROTOCOL_SCOPE"
	ScopeGovernance Scope = "GOVERNANCE_SCOPE"
)

// AllScopes は定義済みスコープの一覧
var AllScopes = []Scope{ScopeACC, ScopeSTA, ScopeSUP, ScopeStability, ScopeSupport, ScopeProtocol, ScopeGovernance}

var scopeLabels = map[Scope]string{
	ScopeACC:        "ACC",
	ScopeSTA:        "STA",
	ScopeSUP:        "SUP",
	ScopeStability:  "Stability",
	ScopeSupport:    "Support",
	ScopeProtocol:   "Protocol",
	ScopeGovernance: "Governance",
}

// Label は表示用の短いラベルを返す
func (s Scope) Label() string {
	if l, ok := scopeLabels[s]; ok {
		return l
	}
	return string(s)
}

// Status はビルダーのステータス
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusOnHold    Status = "ON_HOLD"
	StatusCompleted Status = "COMPLETED"
	StatusArchived  Status = "ARCHIVED"
)

// AllStatuses は定義済みステータスの一覧
var AllStatuses = []Status{StatusActive, StatusInactive, StatusOnHold, StatusCompleted, StatusArchived}

// TeamType は個人かチームか
type TeamType string

const (
	TeamTypeIndividual TeamType = "INDIVIDUAL"
	TeamTypeTeam       TeamType = "TEAM"
)

// AllTeamTypes は定義済みチーム種別の一覧
var AllTeamTypes = []TeamType{TeamTypeIndividual, TeamTypeTeam}

// Link はプロフィールの外部リンク
type Link struct {
	ID    string  `json:"id"`
	URL   string  `json:"url"`
	Label *string `json:"label"` // nullable
}

// OperationalHubMember はオペレーショナルハブのメンバー情報
type OperationalHubMember struct {
	Name *string `json:"name"`
	Phid *string `json:"phid"`
}

// State はBuilder Profileのグローバルstate
type State struct {
	ID                   *string              `json:"id"`
	Code                 *string              `json:"code"`
	Slug                 *string              `json:"slug"`
	Name                 *string              `json:"name"`
	Icon                 *string              `json:"icon"`
	Description          *string              `json:"description"`
	About                *string              `json:"about"`
	Status               *Status              `json:"status"`
	Type                 TeamType             `json:"type"`
	LastModified         *string              `json:"lastModified"`
	IsOperator           bool                 `json:"isOperator"`
	Contributors         []string             `json:"contributors"`
	Skills               []Skill              `json:"skills"`
	Scopes               []Scope              `json:"scopes"`
	Links                []Link               `json:"links"`
	OperationalHubMember OperationalHubMember `json:"operationalHubMember"`
}

// InitialState は新規ドキュメントのstateを返す
func InitialState() State {
	return State{
		Type:         TeamTypeIndividual,
		Contributors: []string{},
		Skills:       []Skill{},
		Scopes:       []Scope{},
		Links:        []Link{},
	}
}

// normalize はnilスライスを空スライスにそろえる
func (s *State) normalize() {
	if s.Contributors == nil {
		s.Contributors = []string{}
	}
	if s.Skills == nil {
		s.Skills = []Skill{}
	}
	if s.Scopes == nil {
		s.Scopes = []Scope{}
	}
	if s.Links == nil {
		s.Links = []Link{}
	}
	if s.Type == "" {
		s.Type = TeamTypeIndividual
	}
}

// Action type定数
const (
	ActionUpdateProfile     = "UPDATE_PROFILE"
	ActionAddSkill          = "ADD_SKILL"
	ActionRemoveSkill       = "REMOVE_SKILL"
	ActionAddScope          = "ADD_SCOPE"
	ActionRemoveScope       = "REMOVE_SCOPE"
	ActionAddLink           = "ADD_LINK"
	ActionEditLink          = "EDIT_LINK"
	ActionRemoveLink        = "REMOVE_LINK"
	ActionAddContributor    = "ADD_CONTRIBUTOR"
	ActionRemoveContributor = "REMOVE_CONTRIBUTOR"
	ActionSetOperator       = "SET_OPERATOR"
	ActionSetOpHubMember    = "SET_OP_HUB_MEMBER"

	// ActionSetName はヘッダーの名前を変更する基本アクション
	ActionSetName = "SET_NAME"
)

// Operations はbuildersモジュールの操作一覧（定義順）
var Operations = []string{
	ActionUpdateProfile,
	ActionAddSkill,
	ActionRemoveSkill,
	ActionAddScope,
	ActionRemoveScope,
	ActionAddLink,
	ActionEditLink,
	ActionRemoveLink,
	ActionAddContributor,
	ActionRemoveContributor,
	ActionSetOperator,
	ActionSetOpHubMember,
}

// UpdateProfileInput はUPDATE_PROFILEの入力
type UpdateProfileInput struct {
	ID          *string   `json:"id,omitempty"`
	Code        *string   `json:"code,omitempty"`
	Slug        *string   `json:"slug,omitempty"`
	Name        *string   `json:"name,omitempty"`
	Icon        *string   `json:"icon,omitempty" validate:"omitempty,url"`
	Description *string   `json:"description,omitempty"`
	About       *string   `json:"about,omitempty"`
	Status      *Status   `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE ON_HOLD COMPLETED ARCHIVED"`
	Type        *TeamType `json:"type,omitempty" validate:"omitempty,oneof=INDIVIDUAL TEAM"`
}

// AddSkillInput はADD_SKILLの入力
type AddSkillInput struct {
	Skill *Skill `json:"skill,omitempty" validate:"omitempty,oneof=FRONTEND_DEVELOPMENT BACKEND_DEVELOPMENT FULL_STACK_DEVELOPMENT DEVOPS_ENGINEERING SMART_CONTRACT_DEVELOPMENT UI_UX_DESIGN TECHNICAL_WRITING QA_TESTING DATA_ENGINEERING SECURITY_ENGINEERING"`
}

// RemoveSkillInput はREMOVE_SKILLの入力
type RemoveSkillInput struct {
	Skill *Skill `json:"skill,omitempty" validate:"omitempty,oneof=FRONTEND_DEVELOPMENT BACKEND_DEVELOPMENT FULL_STACK_DEVELOPMENT DEVOPS_ENGINEERING SMART_CONTRACT_DEVELOPMENT UI_UX_DESIGN TECHNICAL_WRITING QA_TESTING DATA_ENGINEERING SECURITY_ENGINEERING"`
}

// AddScopeInput はADD_SCOPEの入力
type AddScopeInput struct {
	Scope *Scope `json:"scope,omitempty" validate:"omitempty,oneof=ACC STA SUP STABILITY_SCOPE SUPPORT_SCOPE PROTOCOL_SCOPE GOVERNANCE_SCOPE"`
}

// RemoveScopeInput はREMOVE_SCOPEの入力
type RemoveScopeInput struct {
	Scope *Scope `json:"scope,omitempty" validate:"omitempty,oneof=ACC STA SUP STABILITY_SCOPE SUPPORT_SCOPE PROTOCOL_SCOPE GOVERNANCE_SCOPE"`
}

// AddLinkInput はADD_LINKの入力
type AddLinkInput struct {
	ID    string  `json:"id" validate:"required"`
	URL   string  `json:"url" validate:"required,url"`
	Label *string `json:"label,omitempty"`
}

// EditLinkInput はEDIT_LINKの入力
type EditLinkInput struct {
	ID    string  `json:"id" validate:"required"`
	URL   string  `json:"url" validate:"required,url"`
	Label *string `json:"label,omitempty"`
}

// RemoveLinkInput はREMOVE_LINKの入力
type RemoveLinkInput struct {
	ID string `json:"id" validate:"required"`
}

// AddContributorInput はADD_CONTRIBUTORの入力
type AddContributorInput struct {
	ContributorPHID string `json:"contributorPHID" validate:"required"`
}

// RemoveContributorInput はREMOVE_CONTRIBUTORの入力
type RemoveContributorInput struct {
	ContributorPHID string `json:"contributorPHID" validate:"required"`
}

// SetOperatorInput はSET_OPERATORの入力
// isOperatorは必須（falseも有効な値なのでポインタで存在を判定する）
type SetOperatorInput struct {
	IsOperator *bool `json:"isOperator" validate:"required"`
}

// SetOpHubMemberInput はSET_OP_HUB_MEMBERの入力
type SetOpHubMemberInput struct {
	Name *string `json:"name,omitempty"`
	Phid *string `json:"phid,omitempty"`
}

// SetNameInput はSET_NAMEの入力
type SetNameInput struct {
	Name string `json:"name"`
}
