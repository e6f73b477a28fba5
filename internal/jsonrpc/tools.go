package jsonrpc

import "github.com/brbranch/builder_profile/internal/model"

// toolNameToMethod はMCPツール名から内部メソッド名への対応
var toolNameToMethod = map[string]string{
	"getDrives":         "reactor.getDrives",
	"addDrive":          "reactor.addDrive",
	"getDrive":          "reactor.getDrive",
	"getDocuments":      "reactor.getDocuments",
	"getDocument":       "reactor.getDocument",
	"createDocument":    "reactor.createDocument",
	"addActions":        "reactor.addActions",
	"getDocumentModels": "reactor.getDocumentModels",
}

var (
	stringSchema   = model.JSONSchema{Type: "string"}
	nullableString = model.JSONSchema{OneOf: []model.JSONSchema{{Type: "string"}, {Type: "null"}}}
	noArgs         = model.JSONSchema{Type: "object", Properties: map[string]model.JSONSchema{}}
)

// mcpTools は tools/list で返すツール定義
var mcpTools = []model.Tool{
	{
		Name:        "getDrives",
		Description: "List the ids of all drives",
		InputSchema: noArgs,
	},
	{
		Name:        "addDrive",
		Description: "Create a new drive",
		InputSchema: model.JSONSchema{
			Type: "object",
			Properties: map[string]model.JSONSchema{
				"driveInput": {
					Type: "object",
					Properties: map[string]model.JSONSchema{
						"id":   stringSchema,
						"slug": stringSchema,
						"global": {
							Type: "object",
							Properties: map[string]model.JSONSchema{
								"name": stringSchema,
								"icon": nullableString,
							},
							Required: []string{"name"},
						},
						"local": {
							Type: "object",
							Properties: map[string]model.JSONSchema{
								"availableOffline": {Type: "boolean"},
								"sharingType": {
									Description: "PRIVATE, SHARED or PUBLIC",
									OneOf:       []model.JSONSchema{{Type: "string", Enum: []string{"PRIVATE", "SHARED", "PUBLIC"}}, {Type: "null"}},
								},
							},
						},
					},
					Required: []string{"global"},
				},
			},
			Required: []string{"driveInput"},
		},
	},
	{
		Name:        "getDrive",
		Description: "Get a drive and its nodes",
		InputSchema: model.JSONSchema{
			Type:       "object",
			Properties: map[string]model.JSONSchema{"driveId": stringSchema},
			Required:   []string{"driveId"},
		},
	},
	{
		Name:        "getDocuments",
		Description: "List the ids of the documents in a drive",
		InputSchema: model.JSONSchema{
			Type: "object",
			Properties: map[string]model.JSONSchema{
				"parentId": {Type: "string", Description: "Drive id"},
			},
			Required: []string{"parentId"},
		},
	},
	{
		Name:        "getDocument",
		Description: "Get a document with its state and operations",
		InputSchema: model.JSONSchema{
			Type:       "object",
			Properties: map[string]model.JSONSchema{"id": stringSchema},
			Required:   []string{"id"},
		},
	},
	{
		Name:        "createDocument",
		Description: "Create a new document, optionally adding it to a drive",
		InputSchema: model.JSONSchema{
			Type: "object",
			Properties: map[string]model.JSONSchema{
				"documentType": {Type: "string", Description: "e.g. powerhouse/builder-profile"},
				"name":         stringSchema,
				"parentId":     {Type: "string", Description: "Drive id to add the document to"},
				"parentFolder": stringSchema,
			},
			Required: []string{"documentType"},
		},
	},
	{
		Name:        "addActions",
		Description: "Apply actions to a document or drive in order",
		InputSchema: model.JSONSchema{
			Type: "object",
			Properties: map[string]model.JSONSchema{
				"documentId": stringSchema,
				"actions": {
					Type: "array",
					Items: &model.JSONSchema{
						Type: "object",
						Properties: map[string]model.JSONSchema{
							"type":  stringSchema,
							"input": {Type: "object"},
							"scope": {Type: "string", Enum: []string{model.ScopeGlobal}},
						},
						Required: []string{"type", "input"},
					},
				},
			},
			Required: []string{"documentId", "actions"},
		},
	},
	{
		Name:        "getDocumentModels",
		Description: "List the registered document models",
		InputSchema: noArgs,
	},
}
