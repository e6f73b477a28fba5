// Package graphql provides the BuilderProfile GraphQL subgraph on top of the reactor services.
package graphql

import (
	"context"
	"fmt"

	"github.com/brbranch/builder_profile/internal/builderprofile"
	"github.com/brbranch/builder_profile/internal/service"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

// Schema はGraphQLスキーマとリゾルバーが使うサービスを保持する
type Schema struct {
	schema    graphql.Schema
	documents service.DocumentService
	logger    *zap.Logger
}

// NewSchema はBuilderProfileスキーマを作成する
func NewSchema(documents service.DocumentService, logger *zap.Logger) (*Schema, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Schema{
		documents: documents,
		logger:    logger,
	}

	skillEnum := enumType("BuilderProfile_BuilderSkill", builderprofile.AllSkills, func(v builderprofile.Skill) string { return v.Label() })
	scopeEnum := enumType("BuilderProfile_BuilderScope", builderprofile.AllScopes, func(v builderprofile.Scope) string { return v.Label() })
	statusEnum := enumType("BuilderProfile_BuilderStatus", builderprofile.AllStatuses, nil)
	teamTypeEnum := enumType("BuilderProfile_TeamType", builderprofile.AllTeamTypes, nil)

	jsonObject := graphql.NewScalar(graphql.ScalarConfig{
		Name:        "JSONObject",
		Description: "Arbitrary JSON object",
		Serialize:   func(value interface{}) interface{} { return value },
	})

	linkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BuilderProfile_BuilderLink",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"url":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"label": &graphql.Field{Type: graphql.String},
		},
	})

	opHubMemberType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BuilderProfile_OpHubMember",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"phid": &graphql.Field{Type: graphql.ID},
		},
	})

	stateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BuilderProfile_BuilderProfileState",
		Fields: graphql.Fields{
			"id":                   &graphql.Field{Type: graphql.ID},
			"code":                 &graphql.Field{Type: graphql.String},
			"slug":                 &graphql.Field{Type: graphql.String},
			"name":                 &graphql.Field{Type: graphql.String},
			"icon":                 &graphql.Field{Type: graphql.String},
			"description":          &graphql.Field{Type: graphql.String},
			"about":                &graphql.Field{Type: graphql.String},
			"status":               &graphql.Field{Type: statusEnum},
			"type":                 &graphql.Field{Type: graphql.NewNonNull(teamTypeEnum)},
			"lastModified":         &graphql.Field{Type: graphql.String},
			"isOperator":           &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"contributors":         &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID)))},
			"skills":               &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(skillEnum)))},
			"scopes":               &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(scopeEnum)))},
			"links":                &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(linkType)))},
			"operationalHubMember": &graphql.Field{Type: opHubMemberType},
		},
	})

	profileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BuilderProfile",
		Fields: graphql.Fields{
			"driveId":      &graphql.Field{Type: graphql.String},
			"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"name":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"documentType": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"revision":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"created":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"lastModified": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"state":        &graphql.Field{Type: graphql.NewNonNull(stateType)},
			"stateJSON":    &graphql.Field{Type: jsonObject},
			"aboutHTML": &graphql.Field{
				Type:        graphql.String,
				Description: "Markdown about rendered as HTML and truncated to maxLength characters",
				Args: graphql.FieldConfigArgument{
					"maxLength": &graphql.ArgumentConfig{
						Type:         graphql.Int,
						DefaultValue: builderprofile.AboutPreviewLength,
					},
				},
				Resolve: s.aboutHTMLResolver(),
			},
		},
	})

	queriesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BuilderProfileQueries",
		Fields: graphql.Fields{
			"getDocument": &graphql.Field{
				Type: profileType,
				Args: graphql.FieldConfigArgument{
					"docId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"driveId": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: s.getDocumentResolver(),
			},
			"getDocuments": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(profileType)),
				Args: graphql.FieldConfigArgument{
					"driveId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: s.getDocumentsResolver(),
			},
		},
	})

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"BuilderProfile": &graphql.Field{
				Type: queriesType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return map[string]interface{}{}, nil
				},
			},
		},
	})

	// 入力型
	updateProfileInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BuilderProfile_UpdateProfileInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":          &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"code":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"slug":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"name":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"icon":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"about":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"status":      &graphql.InputObjectFieldConfig{Type: statusEnum},
			"type":        &graphql.InputObjectFieldConfig{Type: teamTypeEnum},
		},
	})
	skillInput := func(name string) *graphql.InputObject {
		return graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   name,
			Fields: graphql.InputObjectConfigFieldMap{"skill": &graphql.InputObjectFieldConfig{Type: skillEnum}},
		})
	}
	scopeInput := func(name string) *graphql.InputObject {
		return graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   name,
			Fields: graphql.InputObjectConfigFieldMap{"scope": &graphql.InputObjectFieldConfig{Type: scopeEnum}},
		})
	}
	linkInput := func(name string) *graphql.InputObject {
		return graphql.NewInputObject(graphql.InputObjectConfig{
			Name: name,
			Fields: graphql.InputObjectConfigFieldMap{
				"id":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
				"url":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
				"label": &graphql.InputObjectFieldConfig{Type: graphql.String},
			},
		})
	}
	contributorInput := func(name string) *graphql.InputObject {
		return graphql.NewInputObject(graphql.InputObjectConfig{
			Name: name,
			Fields: graphql.InputObjectConfigFieldMap{
				"contributorPHID": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
		})
	}
	removeLinkInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BuilderProfile_RemoveLinkInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
	})
	setOperatorInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BuilderProfile_SetOperatorInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"isOperator": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})
	setOpHubMemberInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BuilderProfile_SetOpHubMemberInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"phid": &graphql.InputObjectFieldConfig{Type: graphql.ID},
		},
	})

	rootMutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"BuilderProfile_createDocument": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{
					"name":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"driveId": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: s.createDocumentResolver(),
			},
			"BuilderProfile_updateProfile":     operationField(updateProfileInput, operationResolver(s, "updateProfile", builderprofile.UpdateProfile)),
			"BuilderProfile_addSkill":          operationField(skillInput("BuilderProfile_AddSkillInput"), operationResolver(s, "addSkill", builderprofile.AddSkill)),
			"BuilderProfile_removeSkill":       operationField(skillInput("BuilderProfile_RemoveSkillInput"), operationResolver(s, "removeSkill", builderprofile.RemoveSkill)),
			"BuilderProfile_addScope":          operationField(scopeInput("BuilderProfile_AddScopeInput"), operationResolver(s, "addScope", builderprofile.AddScope)),
			"BuilderProfile_removeScope":       operationField(scopeInput("BuilderProfile_RemoveScopeInput"), operationResolver(s, "removeScope", builderprofile.RemoveScope)),
			"BuilderProfile_addLink":           operationField(linkInput("BuilderProfile_AddLinkInput"), operationResolver(s, "addLink", builderprofile.AddLink)),
			"BuilderProfile_editLink":          operationField(linkInput("BuilderProfile_EditLinkInput"), operationResolver(s, "editLink", builderprofile.EditLink)),
			"BuilderProfile_removeLink":        operationField(removeLinkInput, operationResolver(s, "removeLink", builderprofile.RemoveLink)),
			"BuilderProfile_addContributor":    operationField(contributorInput("BuilderProfile_AddContributorInput"), operationResolver(s, "addContributor", builderprofile.AddContributor)),
			"BuilderProfile_removeContributor": operationField(contributorInput("BuilderProfile_RemoveContributorInput"), operationResolver(s, "removeContributor", builderprofile.RemoveContributor)),
			"BuilderProfile_setOperator":       operationField(setOperatorInput, operationResolver(s, "setOperator", builderprofile.SetOperator)),
			"BuilderProfile_setOpHubMember":    operationField(setOpHubMemberInput, operationResolver(s, "setOpHubMember", builderprofile.SetOpHubMember)),
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    rootQuery,
		Mutation: rootMutation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL schema: %w", err)
	}
	s.schema = schema
	return s, nil
}

// GetSchema はGraphQLスキーマを返す
func (s *Schema) GetSchema() graphql.Schema {
	return s.schema
}

// Execute はスキーマに対してクエリを実行する
func (s *Schema) Execute(ctx context.Context, query string, variables map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	})
}

// operationField は(driveId, docId, input)を受け取り新しいrevisionを返すmutationフィールドを作成する
func operationField(input *graphql.InputObject, resolve graphql.FieldResolveFn) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Int,
		Args: graphql.FieldConfigArgument{
			"driveId": &graphql.ArgumentConfig{Type: graphql.String},
			"docId":   &graphql.ArgumentConfig{Type: graphql.ID},
			"input":   &graphql.ArgumentConfig{Type: input},
		},
		Resolve: resolve,
	}
}

func enumType[T ~string](name string, values []T, describe func(T) string) *graphql.Enum {
	cfg := graphql.EnumValueConfigMap{}
	for _, v := range values {
		vc := &graphql.EnumValueConfig{Value: string(v)}
		if describe != nil {
			vc.Description = describe(v)
		}
		cfg[string(v)] = vc
	}
	return graphql.NewEnum(graphql.EnumConfig{
		Name:   name,
		Values: cfg,
	})
}
